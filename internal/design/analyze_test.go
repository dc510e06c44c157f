package design

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guhjy/BFDA/domain/trajectory"
	"github.com/guhjy/BFDA/internal/testkit"
)

func row(id, n int, logBF float64) trajectory.Row {
	return trajectory.Row{ID: id, N: n, LogBF: logBF, Boundary: 6, PValue: 0.5}
}

func symmetric(t *testing.T, b float64) *trajectory.Boundary {
	t.Helper()
	boundary, err := trajectory.NewSymmetricBoundary(b)
	require.NoError(t, err)
	return &boundary
}

func TestAnalyze_FirstCrossingWins(t *testing.T) {
	table := trajectory.Table{
		row(1, 10, 0.5),
		row(1, 20, 1.3),
		row(1, 30, 2.0),
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.UpperHitIDs)
	require.Len(t, res.UpperStopN, 1)
	assert.Equal(t, 20.0, res.UpperStopN[0], "endpoint must be the first crossing, not a later row")
	assert.Empty(t, res.LowerHitIDs)
	assert.Empty(t, res.CeilingIDs)
}

func TestAnalyze_SymmetricBoundaryExpansion(t *testing.T) {
	gen := testkit.NewGenerator(7)
	table := gen.Table(testkit.TableConfig{
		Trajectories: 40,
		NMin:         10,
		NMax:         100,
		Step:         10,
		Drift:        0.05,
		Noise:        0.4,
		Boundary:     3,
	})

	explicit, err := trajectory.NewBoundary(1.0/3.0, 3)
	require.NoError(t, err)

	resSym, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)
	resPair, err := NewAnalyzer().Analyze(table, Params{Boundary: &explicit})
	require.NoError(t, err)

	assert.Equal(t, resSym.UpperHitIDs, resPair.UpperHitIDs)
	assert.Equal(t, resSym.LowerHitIDs, resPair.LowerHitIDs)
	assert.Equal(t, resSym.CeilingIDs, resPair.CeilingIDs)
}

func TestAnalyze_PartitionProperty(t *testing.T) {
	gen := testkit.NewGenerator(42)
	table := gen.Table(testkit.TableConfig{
		Trajectories: 200,
		NMin:         10,
		NMax:         150,
		Step:         10,
		Drift:        0.02,
		Noise:        0.5,
		Boundary:     6,
	})

	res, err := NewAnalyzer().Analyze(table, Params{})
	require.NoError(t, err)

	assert.Equal(t, 200, res.AllN)
	assert.Equal(t, res.AllN, res.UpperHitN+res.LowerHitN+res.CeilingN)
	assert.Equal(t, res.AllN, res.BoundaryHitN+res.CeilingN)
	assert.NotContains(t, res.Warnings, trajectory.WarningPartition)

	assert.InDelta(t, 1.0, res.UpperHitFrac+res.LowerHitFrac+res.CeilingFrac, 1e-12)
}

func TestAnalyze_CeilingRequiresFullContainment(t *testing.T) {
	table := trajectory.Table{
		// Crosses at n=20, then returns inside by n.max: still a boundary hit.
		row(1, 10, 0.2),
		row(1, 20, 1.3),
		row(1, 30, 0.1),
		// Never crosses, present at n.max: ceiling survival.
		row(2, 10, 0.4),
		row(2, 20, -0.5),
		row(2, 30, 0.8),
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.UpperHitIDs)
	require.Len(t, res.UpperStopN, 1)
	assert.Equal(t, 20.0, res.UpperStopN[0])
	assert.Equal(t, []int{2}, res.CeilingIDs)
	assert.NotContains(t, res.Warnings, trajectory.WarningPartition)
}

func TestAnalyze_DensitySupportSpansWorkingTable(t *testing.T) {
	table := trajectory.Table{
		row(1, 5, 0.1),
		row(1, 15, 2.0), // upper hit at 15
		row(2, 5, 0.1),
		row(2, 15, 0.2),
		row(2, 25, 2.0), // upper hit at 25
		row(3, 5, 0.0),
		row(3, 15, 0.0),
		row(3, 25, 0.0), // ceiling
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)

	require.NotNil(t, res.UpperStopDensity)
	assert.Equal(t, 5.0, res.UpperStopDensity.From, "support starts at min(n) of the working table")
	assert.Equal(t, 25.0, res.UpperStopDensity.To)
}

func TestAnalyze_DensityAbsentUnderTwoSamples(t *testing.T) {
	table := trajectory.Table{
		row(1, 10, 2.0), // lone upper hit
		row(2, 10, 0.0),
		row(2, 20, 0.1), // ceiling
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)

	assert.Nil(t, res.UpperStopDensity)
	assert.Nil(t, res.LowerStopDensity)
	assert.Nil(t, res.CeilingLogBFDensity)
}

func TestAnalyze_FixedDesignPower(t *testing.T) {
	gen := testkit.NewGenerator(3)
	table := gen.FixedTable(100, 40, 6, 0.05, 0.12)

	res, err := NewAnalyzer().Analyze(table, Params{Alpha: 0.05})
	require.NoError(t, err)

	require.NotNil(t, res.Power)
	assert.InDelta(t, 0.12, *res.Power, 1e-12)
}

func TestAnalyze_PowerAbsentForVariableN(t *testing.T) {
	table := trajectory.Table{
		row(1, 10, 0.1),
		row(1, 20, 0.2),
		row(2, 10, 0.0),
		row(2, 20, -0.1),
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)

	assert.Nil(t, res.Power, "power must be absent, not zero, for variable-n designs")
}

func TestAnalyze_ASNRoundsUp(t *testing.T) {
	cases := []struct {
		name  string
		stops []int
		want  int
	}{
		{"exact mean", []int{10, 20, 30}, 20},
		{"fractional mean", []int{10, 21, 30}, 21},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := trajectory.Table{}
			for id, stop := range tc.stops {
				table = append(table, row(id+1, stop, 2.0))
			}
			// Extra ceiling row so n.max is shared by a surviving trajectory.
			table = append(table, row(99, 30, 0.0))

			res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
			require.NoError(t, err)

			wantMean := 0.0
			for _, s := range tc.stops {
				wantMean += float64(s)
			}
			wantMean = (wantMean + 30) / float64(len(tc.stops)+1)
			assert.Equal(t, int(math.Ceil(wantMean)), res.ASN)
		})
	}
}

func TestAnalyze_ASNSimplePool(t *testing.T) {
	// Pure boundary-hit pool {10, 20, 30} without a ceiling contribution.
	table := trajectory.Table{
		row(1, 10, 2.0),
		row(2, 20, 2.0),
		row(3, 30, 2.0),
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3), NMax: 30})
	require.NoError(t, err)
	assert.Equal(t, 20, res.ASN)
}

func TestAnalyze_CeilingEvidenceBreakdown(t *testing.T) {
	table := trajectory.Table{
		row(1, 50, 1.2),  // > log(3): favors H1
		row(2, 50, 0.0),  // inconclusive
		row(3, 50, -1.2), // < log(1/3): favors H0
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 6)})
	require.NoError(t, err)

	require.Equal(t, 3, res.CeilingN)
	assert.InDelta(t, 1.0/3.0, res.CeilingFavorsH1Frac, 1e-12)
	assert.InDelta(t, 1.0/3.0, res.CeilingInconclusiveFrac, 1e-12)
	assert.InDelta(t, 1.0/3.0, res.CeilingFavorsH0Frac, 1e-12)
}

func TestAnalyze_CoverageWarnings(t *testing.T) {
	table := trajectory.Table{
		row(1, 10, 0.1),
		row(1, 20, 0.2),
		row(2, 10, 0.0),
		row(2, 20, 0.3),
	}

	t.Run("boundary beyond simulated region", func(t *testing.T) {
		res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 10)})
		require.NoError(t, err)
		assert.Contains(t, res.Warnings, trajectory.WarningBoundaryCoverage)
	})

	t.Run("n.max beyond simulated region", func(t *testing.T) {
		res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3), NMax: 500})
		require.NoError(t, err)
		assert.Contains(t, res.Warnings, trajectory.WarningNMaxCoverage)
		// Nothing can reach n=500, so survivors go unclassified.
		assert.Contains(t, res.Warnings, trajectory.WarningPartition)
	})
}

func TestAnalyze_DefaultBoundaryFromTable(t *testing.T) {
	table := trajectory.Table{
		row(1, 10, 0.1),
		row(1, 20, 0.2),
	}

	res, err := NewAnalyzer().Analyze(table, Params{})
	require.NoError(t, err)

	assert.Equal(t, 6.0, res.Params.Boundary.Upper)
	assert.InDelta(t, 1.0/6.0, res.Params.Boundary.Lower, 1e-12)
	assert.Equal(t, DefaultAlpha, res.Params.Alpha)
	assert.Equal(t, 10, res.Params.NMin)
	assert.Equal(t, 20, res.Params.NMax)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		_, err := NewAnalyzer().Analyze(nil, Params{})
		assert.Error(t, err)
	})

	t.Run("inverted n bounds", func(t *testing.T) {
		table := trajectory.Table{row(1, 10, 0.1)}
		_, err := NewAnalyzer().Analyze(table, Params{NMin: 50, NMax: 10})
		assert.Error(t, err)
	})

	t.Run("alpha out of range", func(t *testing.T) {
		table := trajectory.Table{row(1, 10, 0.1)}
		_, err := NewAnalyzer().Analyze(table, Params{Alpha: 1.5})
		assert.Error(t, err)
	})
}

func TestAnalyze_ResultIsSelfDescribing(t *testing.T) {
	table := trajectory.Table{
		row(1, 10, 2.0),
		row(2, 10, 0.0),
	}

	res, err := NewAnalyzer().Analyze(table, Params{Boundary: symmetric(t, 3)})
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", res.RunID.String())
	assert.False(t, res.CreatedAt.IsZero())
}
