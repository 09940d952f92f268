// Package fanout runs bounded fork-join batches over independent blocking calls.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map calls fn for every item with at most limit calls in flight and returns
// one result per item. Results are positional: results[i] belongs to
// items[i] no matter in which order the calls complete. Map waits for all
// calls to finish and never short-circuits on an individual outcome; fn is
// expected to fold its own failure into R. A limit <= 0 means no bound.
func Map[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		g.Go(func() error {
			results[i] = fn(ctx, item)
			return nil
		})
	}

	// No task returns an error; Wait is just the join point.
	_ = g.Wait()

	return results
}
