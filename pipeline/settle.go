package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one item of a settleAll call.
type Outcome[T any] struct {
	Index int
	Value T
	Err   error
}

// settleAll runs fn for every item concurrently and waits for all of them.
// Item failures are recorded in their Outcome and never stop the others. The
// returned error is for the fan-out itself: ctx already done, or a worker panic.
func settleAll[I, T any](ctx context.Context, items []I, fn func(context.Context, I) (T, error)) ([]Outcome[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outcomes := make([]Outcome[T], len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("item %d: panic: %v", i, r)
				}
			}()
			value, itemErr := fn(ctx, item)
			outcomes[i] = Outcome[T]{Index: i, Value: value, Err: itemErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// inBatches runs fn over items in batches of p.cfg.BatchSize, one batch after
// the other in order. A batch is retried as a whole only when settleAll itself
// fails. On error the outcomes of the completed batches are returned.
func inBatches[I, T any](ctx context.Context, p *Pipeline, op string, items []I, fn func(context.Context, I) (T, error)) ([]Outcome[T], error) {
	outcomes := make([]Outcome[T], 0, len(items))
	for start := 0; start < len(items); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(items))
		var batch []Outcome[T]
		err := p.retry(ctx, op, func(int) error {
			var err error
			batch, err = settleAll(ctx, items[start:end], fn)
			return err
		})
		if err != nil {
			return outcomes, fmt.Errorf("batch %d-%d: %w", start, end-1, err)
		}
		for _, o := range batch {
			o.Index += start
			outcomes = append(outcomes, o)
		}
	}
	return outcomes, nil
}
