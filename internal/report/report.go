// Package report renders an analysis result as a human-readable text
// summary. Rendering is a pure function of the result; it never mutates
// its input.
package report

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/guhjy/BFDA/internal/design"
)

// DefaultDigits is the decimal precision used for percentages.
const DefaultDigits = 1

// quantileProbs are the stopping-sample-size quantiles rendered in the
// summary. Quantiles are estimated with montanaflynn/stats.Percentile,
// which averages the two adjacent order statistics when the rank index
// lands on an integer.
var quantileProbs = []float64{50, 80, 90, 95}

// Render formats the result into a summary table and narrative text.
// Optional sections (ceiling breakdown, ASN/quantiles, power) are skipped
// when the corresponding outcome or estimate is absent.
func Render(r *design.Result, digits int) string {
	if digits < 0 {
		digits = DefaultDigits
	}

	pct := func(frac float64) string {
		return fmt.Sprintf("%.*f%%", digits, frac*100)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Design analysis: boundary = {%.6g, %.6g}, n = [%d, %d]\n\n",
		r.Params.Boundary.Lower, r.Params.Boundary.Upper, r.Params.NMin, r.Params.NMax)

	b.WriteString("Outcome percentages:\n")
	writeRow(&b, fmt.Sprintf("Studies terminating at n.max (n=%d)", r.Params.NMax), pct(r.CeilingFrac))
	writeRow(&b, "Studies terminating at a boundary", pct(r.BoundaryHitFrac))
	writeRow(&b, "--> terminating at the H1 (upper) boundary", pct(r.UpperHitFrac))
	writeRow(&b, "--> terminating at the H0 (lower) boundary", pct(r.LowerHitFrac))

	if r.CeilingN > 0 {
		fmt.Fprintf(&b, "\nOf the %s of studies terminating at n.max (n=%d):\n", pct(r.CeilingFrac), r.Params.NMax)
		writeRow(&b, "showed evidence for H1 (logBF > log(3))", pct(r.CeilingFavorsH1Frac))
		writeRow(&b, "were inconclusive (log(1/3) < logBF < log(3))", pct(r.CeilingInconclusiveFrac))
		writeRow(&b, "showed evidence for H0 (logBF < log(1/3))", pct(r.CeilingFavorsH0Frac))
	}

	if r.BoundaryHitN > 0 {
		fmt.Fprintf(&b, "\nAverage sample number (ASN) at stopping point (boundary hits and n.max): n = %d\n", r.ASN)

		b.WriteString("\nSample number quantiles (50/80/90/95%) at stopping point:\n")
		parts := make([]string, 0, len(quantileProbs))
		for _, q := range quantileProbs {
			v, err := stats.Percentile(r.EndpointN, q)
			if err != nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%.0f%%: %.0f", q, v))
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(parts, "   "))
	}

	if r.Power != nil {
		fmt.Fprintf(&b, "\nFixed-n design: power at alpha = %g is %s\n", r.Params.Alpha, pct(*r.Power))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %-52s %8s\n", label, value)
}
