// Package enrich turns search candidates into a ranked, display-ready result.
// Detail lookups run concurrently and fail soft: a candidate that cannot be
// enriched is dropped, it never aborts the search.
package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Settled is the outcome of one task run by SettleAll.
type Settled[T any] struct {
	Value T
	Err   error
}

// SettleAll runs fn for every item concurrently and waits until all of them
// have returned. Each result lands in the slot matching its input index, so
// the output order never depends on completion order. An error from one task
// does not cancel the others. limit caps the number of tasks in flight; a
// non-positive limit runs all of them at once.
func SettleAll[In, Out any](
	ctx context.Context,
	items []In,
	limit int,
	fn func(ctx context.Context, item In) (Out, error),
) []Settled[Out] {
	results := make([]Settled[Out], len(items))
	if len(items) == 0 {
		return results
	}

	var group errgroup.Group
	if limit > 0 {
		group.SetLimit(limit)
	}

	for idx, item := range items {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[idx] = Settled[Out]{Err: err}
				return nil
			}

			val, err := fn(ctx, item)
			results[idx] = Settled[Out]{Value: val, Err: err}

			return nil
		})
	}

	// Tasks never return an error, so Wait only acts as the barrier.
	_ = group.Wait()

	return results
}
