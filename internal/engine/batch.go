package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cartpilot/internal/ir"
)

// ResolveBatch resolves goals concurrently, at most limit at a time
// (limit <= 0 means unbounded).
//
// Results are returned in input order. The first failure cancels the
// remaining resolutions and is returned, wrapped with the goal's index;
// no partial results are returned.
func ResolveBatch(ctx context.Context, p *Pipeline, goals []string, limit int) ([]*ir.Result, error) {
	results := make([]*ir.Result, len(goals))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, goal := range goals {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.Run(gctx, goal)
			if err != nil {
				return fmt.Errorf("goal %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
