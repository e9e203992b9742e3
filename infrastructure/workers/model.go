package workers

import (
	"context"
	"time"
)

// Task is a unit of work checked out by a pool.
type Task interface {
	GetID() string
}

// Processor supplies and settles the work a pool runs.
type Processor[T Task] interface {
	// Checkout claims the next task. It must be safe for concurrent workers
	// and return ErrNoWorkAvailable when there is nothing to do.
	Checkout(ctx context.Context, workerID string) (T, error)

	// Process runs the task and returns its updated form.
	Process(ctx context.Context, task T) (T, error)

	// Complete settles a task that processed successfully.
	Complete(ctx context.Context, task T, took time.Duration) error

	// Fail settles a task whose processing failed after retries.
	Fail(ctx context.Context, task T, err error) error
}

// WorkFunc is one Checkout -> Process -> Complete/Fail round.
type WorkFunc func(ctx context.Context, workerID string) error

// Middleware wraps a WorkFunc.
type Middleware func(WorkFunc) WorkFunc

// PreProcessHook runs after Checkout and before Process.
type PreProcessHook[T Task] func(ctx context.Context, task T) error

// PostProcessHook runs after Process and before Complete or Fail.
type PostProcessHook[T Task] func(ctx context.Context, task T, err error) error
