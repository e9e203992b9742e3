// Package workers runs background work through a pool of polling workers.
// Each round a worker checks out one task from a Processor, processes it with
// retries and settles it as complete or failed.
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jrazmi/taskdeck/sdk/environment"
)

var (
	ErrWorkerShutdown  = errors.New("worker should shutdown")
	ErrPoolShutdown    = errors.New("pool should shutdown")
	ErrNoWorkAvailable = errors.New("no work available")
	ErrAlreadyRunning  = errors.New("pool already running")
)

// Options represents the exportable worker configuration
type Options struct {
	Name         string        `env:"WORKER_NAME" default:"worker"`
	WorkerCount  int           `env:"WORKER_COUNT" default:"1"`
	PollInterval time.Duration `env:"WORKER_POLL_INTERVAL" default:"5s"`
	IdleInterval time.Duration `env:"WORKER_IDLE_INTERVAL" default:"1m"`
	MaxRetries   int           `env:"WORKER_MAX_RETRIES" default:"3"`
	RetryDelay   time.Duration `env:"WORKER_RETRY_DELAY" default:"1s"`
}

type options struct {
	name         string
	workerCount  int
	pollInterval time.Duration
	idleInterval time.Duration
	maxRetries   int
	retryDelay   time.Duration
	middlewares  []Middleware
	metrics      WorkerPoolMetrics
	logger       *slog.Logger
}

// Option is a function that configures the worker pool options
type Option func(*options)

func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithWorkerCount(count int) Option {
	return func(o *options) {
		o.workerCount = count
	}
}

// WithPollInterval sets the delay between rounds while there is work.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

// WithIdleInterval sets the delay between rounds once Checkout reports
// ErrNoWorkAvailable.
func WithIdleInterval(interval time.Duration) Option {
	return func(o *options) {
		o.idleInterval = interval
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxRetries sets how many times Process is attempted per task.
func WithMaxRetries(maxRetries int) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
	}
}

// WithRetryDelay sets the first backoff delay between Process attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *options) {
		o.retryDelay = delay
	}
}

func WithMiddleware(middlewares ...Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, middlewares...)
	}
}

func WithMetrics(metrics WorkerPoolMetrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WorkerPool runs tasks from a Processor on a fixed number of workers.
type WorkerPool[T Task] struct {
	processor Processor[T]
	opts      options
	log       *slog.Logger
	metrics   WorkerPoolMetrics

	workFunc         WorkFunc
	middlewares      []Middleware
	preProcessHooks  []PreProcessHook[T]
	postProcessHooks []PostProcessHook[T]

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	fatal   chan error
}

// NewFromEnv creates a new worker pool using environment variables
func NewFromEnv[T Task](prefix string, processor Processor[T], opts ...Option) (*WorkerPool[T], error) {
	var cfg Options
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing worker config: %w", err)
	}

	return newWorkerPool(processor, cfg, opts...)
}

// NewWorkerPool creates a pool with default intervals.
func NewWorkerPool[T Task](name string, workerCount int, processor Processor[T], opts ...Option) (*WorkerPool[T], error) {
	cfg := Options{
		Name:         name,
		WorkerCount:  workerCount,
		PollInterval: time.Second,
		IdleInterval: 30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}

	return newWorkerPool(processor, cfg, opts...)
}

func newWorkerPool[T Task](processor Processor[T], cfg Options, opts ...Option) (*WorkerPool[T], error) {
	if processor == nil {
		return nil, errors.New("worker pool needs a processor")
	}

	o := options{
		name:         cfg.Name,
		workerCount:  cfg.WorkerCount,
		pollInterval: cfg.PollInterval,
		idleInterval: cfg.IdleInterval,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		metrics:      NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.workerCount <= 0 {
		o.workerCount = 1
	}
	if o.pollInterval <= 0 {
		o.pollInterval = 5 * time.Second
	}
	if o.idleInterval <= 0 {
		o.idleInterval = 30 * time.Second
	}
	if o.maxRetries <= 0 {
		o.maxRetries = 1
	}
	if o.retryDelay <= 0 {
		o.retryDelay = time.Second
	}

	pool := &WorkerPool[T]{
		processor:   processor,
		opts:        o,
		log:         o.logger.With("pool", o.name),
		metrics:     o.metrics,
		middlewares: o.middlewares,
	}
	pool.buildMiddlewareChain()

	return pool, nil
}

// Start runs the workers and blocks until ctx is cancelled, Stop is called or
// a worker asks for the pool to shut down. In the last case the worker's
// error is returned.
func (wp *WorkerPool[T]) Start(ctx context.Context) error {
	wp.mu.Lock()
	if wp.running {
		wp.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	wp.cancel = cancel
	wp.running = true
	wp.fatal = make(chan error, wp.opts.workerCount)
	wp.mu.Unlock()

	started := time.Now()
	wp.log.InfoContext(ctx, "starting worker pool",
		"worker_count", wp.opts.workerCount,
		"poll_interval", wp.opts.pollInterval,
		"idle_interval", wp.opts.idleInterval)

	var wg sync.WaitGroup
	for i := range wp.opts.workerCount {
		workerID := fmt.Sprintf("%s-worker-%d", wp.opts.name, i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			wp.worker(ctx, cancel, workerID)
		}()
	}
	wg.Wait()
	cancel()

	wp.mu.Lock()
	wp.running = false
	wp.mu.Unlock()

	wp.log.InfoContext(context.WithoutCancel(ctx), "worker pool stopped", "runtime", time.Since(started))

	select {
	case err := <-wp.fatal:
		return err
	default:
		return nil
	}
}

// Stop cancels the workers. Start returns once they have all exited.
func (wp *WorkerPool[T]) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running || wp.cancel == nil {
		return
	}
	wp.cancel()
}

// Running reports whether Start is active.
func (wp *WorkerPool[T]) Running() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.running
}

func (wp *WorkerPool[T]) GetMetrics() MetricsSnapshot {
	return wp.metrics.GetSnapshot()
}

func (wp *WorkerPool[T]) worker(ctx context.Context, stopPool context.CancelFunc, workerID string) {
	wp.metrics.RecordWorkerStarted()
	defer wp.metrics.RecordWorkerStopped()

	log := wp.log.With("worker_id", workerID)
	log.DebugContext(ctx, "worker started")
	defer log.DebugContext(context.WithoutCancel(ctx), "worker stopped")

	// The first round runs at once.
	timer := time.NewTimer(0)
	defer timer.Stop()
	idle := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		err := wp.round(ctx, workerID)
		switch {
		case err == nil:
			if idle {
				log.DebugContext(ctx, "work found, switching to active polling")
			}
			idle = false
		case errors.Is(err, ErrWorkerShutdown):
			log.InfoContext(ctx, "worker shutting down as requested")
			return
		case errors.Is(err, ErrPoolShutdown):
			log.ErrorContext(ctx, "worker requested pool shutdown", "error", err)
			select {
			case wp.fatal <- fmt.Errorf("worker %s: %w", workerID, err):
			default:
			}
			stopPool()
			return
		case errors.Is(err, ErrNoWorkAvailable):
			idle = true
		default:
			idle = false
			log.ErrorContext(ctx, "task round failed", "error", err)
		}

		if idle {
			timer.Reset(wp.opts.idleInterval)
		} else {
			timer.Reset(wp.opts.pollInterval)
		}
	}
}

// round runs the work function, converting a panic outside of Process into an
// error.
func (wp *WorkerPool[T]) round(ctx context.Context, workerID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.metrics.RecordWorkerPanic()
			wp.log.ErrorContext(ctx, "panic recovered in worker",
				"worker_id", workerID,
				"panic", r,
				"stack_trace", string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	return wp.workFunc(ctx, workerID)
}

// work runs Checkout -> Process -> Complete/Fail for one task.
func (wp *WorkerPool[T]) work(ctx context.Context, workerID string) error {
	task, err := wp.processor.Checkout(ctx, workerID)
	if err != nil {
		wp.metrics.RecordCheckoutError()
		if errors.Is(err, ErrNoWorkAvailable) {
			return err
		}
		return fmt.Errorf("checkout failed: %w", err)
	}
	wp.metrics.RecordTaskCheckedOut()

	for _, hook := range wp.preProcessHooks {
		if err := hook(ctx, task); err != nil {
			wp.log.ErrorContext(ctx, "pre-process hook failed", "task_id", task.GetID(), "error", err)
		}
	}

	started := time.Now()
	processed, processErr := wp.processSafely(ctx, task)
	took := time.Since(started)

	hookTask := processed
	if processErr != nil {
		hookTask = task
	}
	for _, hook := range wp.postProcessHooks {
		if err := hook(ctx, hookTask, processErr); err != nil {
			wp.log.ErrorContext(ctx, "post-process hook failed", "task_id", task.GetID(), "error", err)
		}
	}

	if processErr != nil {
		wp.metrics.RecordTaskFailed(took)
		if err := wp.processor.Fail(ctx, task, processErr); err != nil {
			wp.log.ErrorContext(ctx, "failed to mark task as failed", "task_id", task.GetID(), "error", err)
		}
		return fmt.Errorf("task %s: %w", task.GetID(), processErr)
	}

	wp.metrics.RecordTaskCompleted(took)
	if err := wp.processor.Complete(ctx, processed, took); err != nil {
		wp.log.ErrorContext(ctx, "failed to mark task as complete", "task_id", task.GetID(), "error", err)
	}

	wp.log.DebugContext(ctx, "task completed", "worker_id", workerID, "task_id", task.GetID(), "took", took)
	return nil
}

// processSafely runs Process with retries, turning a panic into a failure of
// this task.
func (wp *WorkerPool[T]) processSafely(ctx context.Context, task T) (processed T, err error) {
	defer func() {
		if r := recover(); r != nil {
			wp.metrics.RecordWorkerPanic()
			wp.log.ErrorContext(ctx, "panic recovered in task",
				"task_id", task.GetID(),
				"panic", r,
				"stack_trace", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return wp.processWithRetry(ctx, task)
}

// processWithRetry attempts Process up to maxRetries times with exponential
// backoff between attempts.
func (wp *WorkerPool[T]) processWithRetry(ctx context.Context, task T) (T, error) {
	var processed T

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = wp.opts.retryDelay
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(wp.opts.maxRetries-1)), ctx)

	attempts := 0
	op := func() error {
		attempts++
		var err error
		processed, err = wp.processor.Process(ctx, task)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		wp.metrics.RecordRetryAttempt()
		wp.log.WarnContext(ctx, "task processing attempt failed",
			"task_id", task.GetID(),
			"attempt", attempts,
			"max_attempts", wp.opts.maxRetries,
			"retry_in", next,
			"error", err)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if wp.opts.maxRetries > 1 && ctx.Err() == nil {
			wp.metrics.RecordRetryExhausted()
		}
		return processed, fmt.Errorf("failed after %d attempts: %w", attempts, err)
	}
	return processed, nil
}
