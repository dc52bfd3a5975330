// Package runner fans work out over a bounded pool of goroutines.
package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when a non-positive worker count is given.
const DefaultWorkers = 4

type Result[T any] struct {
	Value T
	Err   error
}

// Run calls fn for every item with at most workers calls in flight. An error
// from one call is stored in its result and does not stop the others.
// Results are in input order. Items not yet started when ctx is done get
// ctx.Err() as their error.
func Run[I, O any](ctx context.Context, items []I, workers int, fn func(context.Context, I) (O, error)) []Result[O] {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]Result[O], len(items))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(ctx, item)
			results[i] = Result[O]{Value: v, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
