// Package testkit generates synthetic trajectory tables for tests and
// demos. The tables mimic the output of an upstream simulation stage:
// per-trajectory log Bayes factor paths observed at increasing sample
// sizes, with a matching p-value column.
package testkit

import (
	"math"
	"math/rand"

	"github.com/guhjy/BFDA/domain/trajectory"
)

// Generator produces deterministic synthetic trajectory tables.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded for reproducible tables.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// TableConfig describes the synthetic simulation to produce.
type TableConfig struct {
	Trajectories int     // number of simulated trials
	NMin         int     // first observed sample size
	NMax         int     // last observed sample size
	Step         int     // sample-size increment between observations
	Drift        float64 // per-observation drift of logBF (effect direction)
	Noise        float64 // standard deviation of logBF increments
	Boundary     float64 // generating boundary recorded on every row
}

// Table generates a long-format trajectory table: each trajectory is a
// random walk on the log Bayes factor scale. The p-value column is a
// monotone transform of the evidence so that strong pro-H1 evidence maps
// to small p-values.
func (g *Generator) Table(cfg TableConfig) trajectory.Table {
	if cfg.Step <= 0 {
		cfg.Step = 1
	}

	var table trajectory.Table
	for id := 1; id <= cfg.Trajectories; id++ {
		logBF := 0.0
		for n := cfg.NMin; n <= cfg.NMax; n += cfg.Step {
			logBF += cfg.Drift + cfg.Noise*g.rng.NormFloat64()
			table = append(table, trajectory.Row{
				ID:       id,
				N:        n,
				LogBF:    logBF,
				Boundary: cfg.Boundary,
				PValue:   pValueFor(logBF),
			})
		}
	}
	return table
}

// FixedTable generates a fixed-size design: every trajectory observed at
// exactly one sample size n, with the given fraction of trajectories
// significant at the supplied alpha.
func (g *Generator) FixedTable(trajectories, n int, boundary, alpha float64, significantFrac float64) trajectory.Table {
	significant := int(math.Round(significantFrac * float64(trajectories)))

	table := make(trajectory.Table, 0, trajectories)
	for id := 1; id <= trajectories; id++ {
		var p float64
		if id <= significant {
			p = alpha * g.rng.Float64()
		} else {
			p = alpha + (1-alpha)*g.rng.Float64()
		}
		table = append(table, trajectory.Row{
			ID:       id,
			N:        n,
			LogBF:    g.rng.NormFloat64() * 0.5,
			Boundary: boundary,
			PValue:   p,
		})
	}
	return table
}

// pValueFor maps evidence to a pseudo p-value via a logistic transform.
// It is not a calibrated frequentist p-value, just a plausible column.
func pValueFor(logBF float64) float64 {
	return 1 / (1 + math.Exp(logBF))
}
