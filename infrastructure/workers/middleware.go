package workers

import (
	"context"
	"errors"
	"sync"
	"time"
)

func (wp *WorkerPool[T]) buildMiddlewareChain() {
	wp.workFunc = wp.work

	// First added is outermost.
	for i := len(wp.middlewares) - 1; i >= 0; i-- {
		wp.workFunc = wp.middlewares[i](wp.workFunc)
	}
}

// ConsecutiveErrorShutdown stops a worker once it has failed more than count
// rounds in a row. An idle round does not reset or add to the count.
func ConsecutiveErrorShutdown(count int) Middleware {
	errorCounts := make(map[string]int)
	var mu sync.Mutex

	return func(next WorkFunc) WorkFunc {
		return func(ctx context.Context, workerID string) error {
			err := next(ctx, workerID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				errorCounts[workerID] = 0
			case !errors.Is(err, ErrNoWorkAvailable):
				errorCounts[workerID]++
				if errorCounts[workerID] > count {
					return ErrWorkerShutdown
				}
			}
			return err
		}
	}
}

// Timeout bounds each round with its own deadline.
func Timeout(d time.Duration) Middleware {
	return func(next WorkFunc) WorkFunc {
		return func(ctx context.Context, workerID string) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, workerID)
		}
	}
}
