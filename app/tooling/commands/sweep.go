package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrazmi/taskdeck/infrastructure/workers"
)

// DrainResult counts what a Drain run settled.
type DrainResult struct {
	Completed int
	Failed    int
}

// Drain runs p's checkout loop on a single worker until it reports
// ErrNoWorkAvailable or hands back a task it already tried, so released
// failures are not retried forever.
func Drain[T workers.Task](ctx context.Context, p workers.Processor[T]) (DrainResult, error) {
	const workerID = "tooling"

	var res DrainResult
	seen := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		task, err := p.Checkout(ctx, workerID)
		if err != nil {
			if errors.Is(err, workers.ErrNoWorkAvailable) {
				return res, nil
			}
			return res, fmt.Errorf("checkout: %w", err)
		}
		if seen[task.GetID()] {
			return res, nil
		}
		seen[task.GetID()] = true

		start := time.Now()
		task, err = p.Process(ctx, task)
		if err != nil {
			res.Failed++
			if ferr := p.Fail(ctx, task, err); ferr != nil {
				return res, fmt.Errorf("fail %s: %w", task.GetID(), ferr)
			}
			continue
		}

		res.Completed++
		if err := p.Complete(ctx, task, time.Since(start)); err != nil {
			return res, fmt.Errorf("complete %s: %w", task.GetID(), err)
		}
	}
}
