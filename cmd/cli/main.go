package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guhjy/BFDA/adapters/postgres"
	"github.com/guhjy/BFDA/adapters/tablefile"
	"github.com/guhjy/BFDA/domain/trajectory"
	"github.com/guhjy/BFDA/internal/config"
	"github.com/guhjy/BFDA/internal/design"
	"github.com/guhjy/BFDA/internal/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bfda",
		Short: "Sequential-design analysis of simulated Bayes factor trajectories",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newSweepCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// tableFlags are the input-source options shared by the subcommands.
type tableFlags struct {
	file    string
	dsn     string
	pgTable string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "Trajectory table file (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Postgres DSN to load the trajectory table from")
	cmd.Flags().StringVar(&f.pgTable, "pg-table", "", "Postgres table name (with --dsn)")
}

func (f *tableFlags) load(ctx context.Context, cfg *config.Config) (trajectory.Table, error) {
	if f.dsn == "" {
		f.dsn = cfg.Data.PostgresDSN
	}
	if f.pgTable == "" {
		f.pgTable = cfg.Data.PGTable
	}
	if f.file == "" {
		f.file = cfg.Data.TableFile
	}

	if f.file != "" {
		return tablefile.NewReader(f.file).ReadTable()
	}
	if f.dsn != "" {
		db, err := postgres.Connect(f.dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return postgres.NewTrajectoryRepository(db).LoadTable(ctx, f.pgTable)
	}
	return nil, fmt.Errorf("no trajectory table source: pass --file or --dsn (or set BFDA_TABLE_FILE)")
}

func newAnalyzeCmd() *cobra.Command {
	var (
		flags      tableFlags
		boundary   float64
		lower      float64
		upper      float64
		nMin, nMax int
		alpha      float64
		digits     int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify simulated trajectories and print the design analysis",
		Long: `Classify every simulated trajectory against a stopping boundary and
print the stopping-outcome summary.

Example: bfda analyze --file sim.csv --boundary 6 --n-max 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			table, err := flags.load(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			params := design.Params{NMin: nMin, NMax: nMax, Alpha: alpha}
			if params.Alpha == 0 {
				params.Alpha = cfg.Analysis.Alpha
			}
			if b, err := boundaryFromFlags(boundary, lower, upper); err != nil {
				return err
			} else if b != nil {
				params.Boundary = b
			}

			result, err := design.NewAnalyzer().Analyze(table, params)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if digits < 0 {
				digits = cfg.Analysis.Digits
			}
			fmt.Print(report.Render(result, digits))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&boundary, "boundary", 0, "Symmetric stopping boundary b, expanded to {1/b, b}")
	cmd.Flags().Float64Var(&lower, "lower", 0, "Explicit lower stopping boundary")
	cmd.Flags().Float64Var(&upper, "upper", 0, "Explicit upper stopping boundary")
	cmd.Flags().IntVar(&nMin, "n-min", 0, "Smallest sample size to include (default: data minimum)")
	cmd.Flags().IntVar(&nMax, "n-max", 0, "Sample-size ceiling (default: data maximum)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level for the fixed-design power estimate")
	cmd.Flags().IntVar(&digits, "digits", -1, "Decimal digits in the rendered report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw analysis result as JSON")

	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		flags      tableFlags
		boundaries string
		nMin, nMax int
		alpha      float64
		digits     int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the analysis for several candidate boundaries",
		Long: `Run the design analysis once per candidate symmetric boundary and print
each summary in turn.

Example: bfda sweep --file sim.csv --boundaries 3,6,10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			table, err := flags.load(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			pairs, err := parseBoundaryList(boundaries)
			if err != nil {
				return err
			}

			params := design.Params{NMin: nMin, NMax: nMax, Alpha: alpha}
			if params.Alpha == 0 {
				params.Alpha = cfg.Analysis.Alpha
			}

			results, err := design.NewAnalyzer().Sweep(cmd.Context(), table, params, pairs)
			if err != nil {
				return err
			}

			if digits < 0 {
				digits = cfg.Analysis.Digits
			}
			for i, r := range results {
				if i > 0 {
					fmt.Println(strings.Repeat("-", 64))
				}
				fmt.Print(report.Render(r, digits))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&boundaries, "boundaries", "", "Comma-separated symmetric boundaries, e.g. 3,6,10")
	cmd.Flags().IntVar(&nMin, "n-min", 0, "Smallest sample size to include (default: data minimum)")
	cmd.Flags().IntVar(&nMax, "n-max", 0, "Sample-size ceiling (default: data maximum)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level for the fixed-design power estimate")
	cmd.Flags().IntVar(&digits, "digits", -1, "Decimal digits in the rendered reports")
	_ = cmd.MarkFlagRequired("boundaries")

	return cmd
}

func boundaryFromFlags(symmetric, lower, upper float64) (*trajectory.Boundary, error) {
	switch {
	case lower != 0 || upper != 0:
		b, err := trajectory.NewBoundary(lower, upper)
		if err != nil {
			return nil, err
		}
		return &b, nil
	case symmetric != 0:
		b, err := trajectory.NewSymmetricBoundary(symmetric)
		if err != nil {
			return nil, err
		}
		return &b, nil
	default:
		return nil, nil
	}
}

func parseBoundaryList(s string) ([]trajectory.Boundary, error) {
	parts := strings.Split(s, ",")
	out := make([]trajectory.Boundary, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid boundary %q: %w", part, err)
		}
		b, err := trajectory.NewSymmetricBoundary(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
