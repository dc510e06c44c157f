package trajectory

import (
	"fmt"
	"math"
)

// Row is one observation along one simulated sequential trial.
// Rows sharing an ID form a trajectory and are expected in increasing N order.
type Row struct {
	ID       int     `json:"id"`       // trajectory identifier, unique within one analysis
	N        int     `json:"n"`        // sample size at this observation
	LogBF    float64 `json:"log_bf"`   // natural-log evidence value at this sample size
	Boundary float64 `json:"boundary"` // boundary value used when this trajectory was generated
	PValue   float64 `json:"p_value"`  // frequentist p-value at this observation
}

// Table is a long-format collection of trajectory observations.
type Table []Row

// IDs returns the distinct trajectory identifiers in first-seen order.
func (t Table) IDs() []int {
	seen := make(map[int]bool, len(t))
	ids := make([]int, 0)
	for _, r := range t {
		if !seen[r.ID] {
			seen[r.ID] = true
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// MinN returns the smallest sample size present in the table.
func (t Table) MinN() int {
	min := 0
	for i, r := range t {
		if i == 0 || r.N < min {
			min = r.N
		}
	}
	return min
}

// MaxN returns the largest sample size present in the table.
func (t Table) MaxN() int {
	max := 0
	for i, r := range t {
		if i == 0 || r.N > max {
			max = r.N
		}
	}
	return max
}

// MinBoundary returns the smallest generating boundary present in the table.
func (t Table) MinBoundary() float64 {
	min := 0.0
	for i, r := range t {
		if i == 0 || r.Boundary < min {
			min = r.Boundary
		}
	}
	return min
}

// MaxBoundary returns the largest generating boundary present in the table.
func (t Table) MaxBoundary() float64 {
	max := 0.0
	for i, r := range t {
		if i == 0 || r.Boundary > max {
			max = r.Boundary
		}
	}
	return max
}

// Subset returns the rows with nMin <= N <= nMax, preserving order.
func (t Table) Subset(nMin, nMax int) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.N >= nMin && r.N <= nMax {
			out = append(out, r)
		}
	}
	return out
}

// Boundary is a pair of stopping thresholds on the evidence (Bayes factor) scale.
// Crossing either threshold ends a sequential trial.
type Boundary struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// NewBoundary creates an explicit boundary pair. Requires 0 < lower < upper.
func NewBoundary(lower, upper float64) (Boundary, error) {
	if lower <= 0 {
		return Boundary{}, fmt.Errorf("lower boundary must be > 0, got %g", lower)
	}
	if lower >= upper {
		return Boundary{}, fmt.Errorf("lower boundary must be < upper boundary, got {%g, %g}", lower, upper)
	}
	return Boundary{Lower: lower, Upper: upper}, nil
}

// NewSymmetricBoundary expands a single threshold b into the pair {1/b, b}.
// Requires b > 1.
func NewSymmetricBoundary(b float64) (Boundary, error) {
	if b <= 1 {
		return Boundary{}, fmt.Errorf("symmetric boundary must be > 1, got %g", b)
	}
	return Boundary{Lower: 1 / b, Upper: b}, nil
}

// Log returns the boundary pair on the natural-log scale.
func (b Boundary) Log() (lower, upper float64) {
	return math.Log(b.Lower), math.Log(b.Upper)
}

// WarningCode represents structured warning types surfaced by the analyzer.
// All warnings are non-fatal: the analysis proceeds and returns a result.
type WarningCode string

const (
	WarningBoundaryCoverage WarningCode = "BOUNDARY_COVERAGE"  // requested boundary exceeds what the simulation used
	WarningNMaxCoverage     WarningCode = "NMAX_COVERAGE"      // requested n.max exceeds the largest simulated n
	WarningPartition        WarningCode = "PARTITION_VIOLATED" // outcome counts do not partition the trajectory set
)
