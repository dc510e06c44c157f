package design

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/guhjy/BFDA/domain/trajectory"
)

// Sweep runs one analysis per candidate boundary, concurrently. Each
// invocation is a pure function of its inputs, so the runs need no
// coordination; results come back in the order of the boundaries given.
func (a *Analyzer) Sweep(ctx context.Context, table trajectory.Table, base Params, boundaries []trajectory.Boundary) ([]*Result, error) {
	results := make([]*Result, len(boundaries))

	g, ctx := errgroup.WithContext(ctx)
	for i, b := range boundaries {
		i, b := i, b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := base
			p.Boundary = &b
			r, err := a.Analyze(table, p)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
