package design

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// densityGridSize is the number of evaluation points per density estimate.
const densityGridSize = 512

// Density is a Gaussian kernel density estimate evaluated on a uniform grid.
type Density struct {
	X         []float64 `json:"x"`         // evaluation grid, ascending
	Y         []float64 `json:"y"`         // estimated density at each grid point
	Bandwidth float64   `json:"bandwidth"` // kernel bandwidth (Silverman's rule)
	From      float64   `json:"from"`      // support lower bound
	To        float64   `json:"to"`        // support upper bound
}

// estimateDensity smooths the samples onto a uniform grid over [from, to]
// with a Gaussian kernel. Bandwidth follows Silverman's rule of thumb:
// 0.9 * min(sd, IQR/1.34) * n^(-1/5). Returns nil for fewer than two samples.
func estimateDensity(samples []float64, from, to float64) *Density {
	if len(samples) < 2 {
		return nil
	}

	h := silvermanBandwidth(samples)

	// Degenerate support happens when every sample coincides; widen by
	// three bandwidths so the estimate is still a proper curve.
	if to <= from {
		from -= 3 * h
		to += 3 * h
	}

	kernel := distuv.Normal{Mu: 0, Sigma: h}
	step := (to - from) / float64(densityGridSize-1)

	d := &Density{
		X:         make([]float64, densityGridSize),
		Y:         make([]float64, densityGridSize),
		Bandwidth: h,
		From:      from,
		To:        to,
	}

	for i := 0; i < densityGridSize; i++ {
		x := from + step*float64(i)
		sum := 0.0
		for _, s := range samples {
			sum += kernel.Prob(x - s)
		}
		d.X[i] = x
		d.Y[i] = sum / float64(len(samples))
	}

	return d
}

// silvermanBandwidth computes the rule-of-thumb bandwidth. When both the
// standard deviation and the IQR collapse to zero (identical samples), it
// falls back to a magnitude-based spread so the kernel stays proper.
func silvermanBandwidth(samples []float64) float64 {
	sd, _ := stats.StandardDeviationSample(samples)
	q25, _ := stats.Percentile(samples, 25)
	q75, _ := stats.Percentile(samples, 75)
	iqr := (q75 - q25) / 1.34

	spread := math.Min(sd, iqr)
	if spread <= 0 {
		spread = math.Max(sd, iqr)
	}
	if spread <= 0 {
		spread = math.Max(math.Abs(samples[0]), 1)
	}

	return 0.9 * spread * math.Pow(float64(len(samples)), -0.2)
}
