package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_ShapeAndDeterminism(t *testing.T) {
	cfg := TableConfig{
		Trajectories: 10,
		NMin:         10,
		NMax:         50,
		Step:         10,
		Drift:        0.1,
		Noise:        0.3,
		Boundary:     6,
	}

	table := NewGenerator(99).Table(cfg)
	require.Len(t, table, 10*5)
	assert.Len(t, table.IDs(), 10)
	assert.Equal(t, 10, table.MinN())
	assert.Equal(t, 50, table.MaxN())
	assert.Equal(t, 6.0, table.MaxBoundary())

	again := NewGenerator(99).Table(cfg)
	assert.Equal(t, table, again, "same seed must reproduce the same table")
}

func TestTable_PValuesInRange(t *testing.T) {
	table := NewGenerator(5).Table(TableConfig{
		Trajectories: 20,
		NMin:         10,
		NMax:         100,
		Step:         10,
		Drift:        0.2,
		Noise:        1.0,
		Boundary:     6,
	})

	for _, r := range table {
		assert.GreaterOrEqual(t, r.PValue, 0.0)
		assert.LessOrEqual(t, r.PValue, 1.0)
	}
}

func TestFixedTable_ExactSignificantFraction(t *testing.T) {
	table := NewGenerator(1).FixedTable(100, 40, 6, 0.05, 0.12)
	require.Len(t, table, 100)

	significant := 0
	for _, r := range table {
		assert.Equal(t, 40, r.N)
		if r.PValue < 0.05 {
			significant++
		}
	}
	assert.Equal(t, 12, significant)
}
