package design

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/guhjy/BFDA/domain/trajectory"
	"github.com/guhjy/BFDA/internal"
	"github.com/guhjy/BFDA/internal/errors"
)

// DefaultAlpha is the significance level used for fixed-design power
// estimates when the caller does not supply one.
const DefaultAlpha = 0.05

// Conventional Bayes factor evidence thresholds on the log scale.
var (
	logEvidenceH1 = math.Log(3)
	logEvidenceH0 = math.Log(1.0 / 3.0)
)

// Params are the caller-supplied analysis parameters. Zero values mean
// "derive from the data": sample-size bounds default to the data extent,
// the boundary defaults to the symmetric pair built from the largest
// generating boundary in the table, and alpha defaults to DefaultAlpha.
type Params struct {
	NMin     int
	NMax     int
	Boundary *trajectory.Boundary
	Alpha    float64
}

// ResolvedParams echo the effective parameters of one analysis.
type ResolvedParams struct {
	NMin     int                 `json:"n_min"`
	NMax     int                 `json:"n_max"`
	Boundary trajectory.Boundary `json:"boundary"`
	LogLower float64             `json:"log_lower"`
	LogUpper float64             `json:"log_upper"`
	Alpha    float64             `json:"alpha"`
}

// Result is the immutable output of one Analyze call. It is constructed
// once and never mutated; renderers and other consumers only read it.
type Result struct {
	RunID     uuid.UUID `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Params ResolvedParams `json:"params"`

	// AllN counts the distinct trajectories in the working subset.
	AllN int `json:"all_traj_n"`

	// Disjoint outcome id sets, ascending.
	UpperHitIDs []int `json:"upper_hit_ids"`
	LowerHitIDs []int `json:"lower_hit_ids"`
	CeilingIDs  []int `json:"n_max_hit_ids"`

	UpperHitN    int `json:"upper_hit_n"`
	LowerHitN    int `json:"lower_hit_n"`
	BoundaryHitN int `json:"boundary_hit_n"`
	CeilingN     int `json:"n_max_hit_n"`

	UpperHitFrac    float64 `json:"upper_hit_frac"`
	LowerHitFrac    float64 `json:"lower_hit_frac"`
	BoundaryHitFrac float64 `json:"boundary_hit_frac"`
	CeilingFrac     float64 `json:"n_max_hit_frac"`

	// Stopping sample sizes per outcome, plus the pooled endpoint set.
	UpperStopN []float64 `json:"upper_stop_n"`
	LowerStopN []float64 `json:"lower_stop_n"`
	EndpointN  []float64 `json:"endpoint_n"`

	// Density estimates; nil with fewer than two samples in a bucket.
	UpperStopDensity *Density `json:"upper_stop_density,omitempty"`
	LowerStopDensity *Density `json:"lower_stop_density,omitempty"`

	// Evidence values among trajectories that survived to n.max.
	CeilingLogBF        []float64 `json:"n_max_log_bf"`
	CeilingLogBFDensity *Density  `json:"n_max_log_bf_density,omitempty"`

	// ASN is the average sample number at stopping, rounded up.
	ASN int `json:"asn"`

	// Breakdown of ceiling survivors by conventional evidence thresholds,
	// each as a fraction of AllN.
	CeilingFavorsH1Frac     float64 `json:"n_max_favors_h1_frac"`
	CeilingInconclusiveFrac float64 `json:"n_max_inconclusive_frac"`
	CeilingFavorsH0Frac     float64 `json:"n_max_favors_h0_frac"`

	// Power is present only for fixed-size designs (constant n across the
	// working subset): the fraction of trajectories with p < alpha.
	Power *float64 `json:"p_value_power,omitempty"`

	Warnings []trajectory.WarningCode `json:"warnings,omitempty"`
}

// Analyzer classifies simulated sequential-testing trajectories against a
// stopping boundary and aggregates the outcomes into a design analysis.
type Analyzer struct {
	log *internal.Logger
}

// NewAnalyzer creates an analyzer that reports warnings through the
// default logger.
func NewAnalyzer() *Analyzer {
	return &Analyzer{log: internal.DefaultLogger.Named("design")}
}

// NewAnalyzerWithLogger creates an analyzer with an explicit logger.
func NewAnalyzerWithLogger(log *internal.Logger) *Analyzer {
	return &Analyzer{log: log.Named("design")}
}

// Analyze classifies every trajectory in the table into one of three
// disjoint outcomes (upper-boundary hit, lower-boundary hit, survival to
// n.max) and aggregates them into a Result. Inconsistent parameters that
// the data cannot cover are surfaced as warnings, not failures.
func (a *Analyzer) Analyze(table trajectory.Table, p Params) (*Result, error) {
	if len(table) == 0 {
		return nil, errors.InvalidInput("empty trajectory table")
	}

	rp, warnings, err := a.resolveParams(table, p)
	if err != nil {
		return nil, err
	}

	working := table.Subset(rp.NMin, rp.NMax)
	if len(working) == 0 {
		return nil, errors.InvalidInput("no rows within the requested sample-size bounds")
	}

	res := &Result{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		Params:    rp,
		Warnings:  warnings,
	}

	a.classify(working, rp, res)
	a.aggregate(working, res)

	return res, nil
}

// resolveParams fills defaults from the data and validates the rest.
func (a *Analyzer) resolveParams(table trajectory.Table, p Params) (ResolvedParams, []trajectory.WarningCode, error) {
	var warnings []trajectory.WarningCode

	rp := ResolvedParams{
		NMin:  p.NMin,
		NMax:  p.NMax,
		Alpha: p.Alpha,
	}

	if rp.NMin == 0 {
		rp.NMin = table.MinN()
	}
	if rp.NMax == 0 {
		rp.NMax = table.MaxN()
	}
	if rp.NMin > rp.NMax {
		return rp, nil, errors.InvalidInput("n_min must not exceed n_max")
	}

	if rp.Alpha == 0 {
		rp.Alpha = DefaultAlpha
	}
	if rp.Alpha < 0 || rp.Alpha >= 1 {
		return rp, nil, errors.InvalidInput("alpha must be in (0, 1)")
	}

	if p.Boundary != nil {
		rp.Boundary = *p.Boundary
	} else {
		b, err := trajectory.NewSymmetricBoundary(table.MaxBoundary())
		if err != nil {
			return rp, nil, errors.Wrap(err, "cannot derive a default boundary from the table")
		}
		rp.Boundary = b
	}
	rp.LogLower, rp.LogUpper = rp.Boundary.Log()

	// A requested region wider than the simulation actually covered is
	// answerable only partially; the result may undercount categories.
	if rp.Boundary.Upper > table.MinBoundary() {
		warnings = append(warnings, trajectory.WarningBoundaryCoverage)
		a.log.Warn("requested upper boundary %g exceeds the smallest generating boundary %g; results beyond the simulated region are unreliable",
			rp.Boundary.Upper, table.MinBoundary())
	}
	if rp.NMax > table.MaxN() {
		warnings = append(warnings, trajectory.WarningNMaxCoverage)
		a.log.Warn("requested n.max %d exceeds the largest simulated n %d; results beyond the simulated region are unreliable",
			rp.NMax, table.MaxN())
	}

	return rp, warnings, nil
}

// classify makes a single ordered pass over each trajectory, computing the
// first-crossing test and the full-containment ceiling test in one scan.
func (a *Analyzer) classify(working trajectory.Table, rp ResolvedParams, res *Result) {
	byID := make(map[int][]trajectory.Row)
	order := make([]int, 0)
	for _, r := range working {
		if _, seen := byID[r.ID]; !seen {
			order = append(order, r.ID)
		}
		byID[r.ID] = append(byID[r.ID], r)
	}
	res.AllN = len(order)

	// Fixed-size designs have exactly one sample size across the table.
	distinctN := make(map[int]bool)
	for _, r := range working {
		distinctN[r.N] = true
	}
	fixedDesign := len(distinctN) == 1

	significant := 0
	for _, id := range order {
		rows := byID[id]

		crossed := false
		crossedUpper := false
		var stop trajectory.Row
		var ceiling trajectory.Row
		atCeiling := false

		for _, r := range rows {
			if !crossed && (r.LogBF >= rp.LogUpper || r.LogBF <= rp.LogLower) {
				crossed = true
				crossedUpper = r.LogBF >= rp.LogUpper
				stop = r
			}
			if r.N == rp.NMax {
				ceiling = r
				atCeiling = true
			}
		}

		switch {
		case crossed && crossedUpper:
			res.UpperHitIDs = append(res.UpperHitIDs, id)
			res.UpperStopN = append(res.UpperStopN, float64(stop.N))
			res.EndpointN = append(res.EndpointN, float64(stop.N))
		case crossed:
			res.LowerHitIDs = append(res.LowerHitIDs, id)
			res.LowerStopN = append(res.LowerStopN, float64(stop.N))
			res.EndpointN = append(res.EndpointN, float64(stop.N))
		case atCeiling:
			res.CeilingIDs = append(res.CeilingIDs, id)
			res.CeilingLogBF = append(res.CeilingLogBF, ceiling.LogBF)
			res.EndpointN = append(res.EndpointN, float64(ceiling.N))
		}

		if fixedDesign && rows[0].PValue < rp.Alpha {
			significant++
		}
	}

	sort.Ints(res.UpperHitIDs)
	sort.Ints(res.LowerHitIDs)
	sort.Ints(res.CeilingIDs)

	if fixedDesign && res.AllN > 0 {
		power := float64(significant) / float64(res.AllN)
		res.Power = &power
	}
}

// aggregate turns the per-trajectory outcomes into counts, fractions,
// the ASN, and the density estimates.
func (a *Analyzer) aggregate(working trajectory.Table, res *Result) {
	res.UpperHitN = len(res.UpperHitIDs)
	res.LowerHitN = len(res.LowerHitIDs)
	res.BoundaryHitN = res.UpperHitN + res.LowerHitN
	res.CeilingN = len(res.CeilingIDs)

	// Sanity invariant: the three outcomes must partition the trajectory
	// set. A violation means unclassified or double-classified ids; the
	// partial result is still returned for diagnosis.
	if res.AllN != res.BoundaryHitN+res.CeilingN {
		res.Warnings = append(res.Warnings, trajectory.WarningPartition)
		a.log.Warn("outcome counts do not partition the trajectory set: %d trajectories vs %d boundary hits + %d at n.max",
			res.AllN, res.BoundaryHitN, res.CeilingN)
	}

	if res.AllN > 0 {
		total := float64(res.AllN)
		res.UpperHitFrac = float64(res.UpperHitN) / total
		res.LowerHitFrac = float64(res.LowerHitN) / total
		res.BoundaryHitFrac = float64(res.BoundaryHitN) / total
		res.CeilingFrac = float64(res.CeilingN) / total

		var h1, inconclusive, h0 int
		for _, logBF := range res.CeilingLogBF {
			switch {
			case logBF > logEvidenceH1:
				h1++
			case logBF < logEvidenceH0:
				h0++
			default:
				inconclusive++
			}
		}
		res.CeilingFavorsH1Frac = float64(h1) / total
		res.CeilingInconclusiveFrac = float64(inconclusive) / total
		res.CeilingFavorsH0Frac = float64(h0) / total
	}

	if len(res.EndpointN) > 0 {
		mean, _ := stats.Mean(res.EndpointN)
		res.ASN = int(math.Ceil(mean))
	}

	// Stopping-size densities span from the smallest n in the working
	// table up to the largest stopping n of that outcome.
	supportFrom := float64(working.MinN())
	if len(res.UpperStopN) >= 2 {
		max, _ := stats.Max(res.UpperStopN)
		res.UpperStopDensity = estimateDensity(res.UpperStopN, supportFrom, max)
	}
	if len(res.LowerStopN) >= 2 {
		max, _ := stats.Max(res.LowerStopN)
		res.LowerStopDensity = estimateDensity(res.LowerStopN, supportFrom, max)
	}
	if len(res.CeilingLogBF) >= 2 {
		min, _ := stats.Min(res.CeilingLogBF)
		max, _ := stats.Max(res.CeilingLogBF)
		res.CeilingLogBFDensity = estimateDensity(res.CeilingLogBF, min, max)
	}
}
