package workers

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerPoolMetrics collects pool orchestration metrics.
type WorkerPoolMetrics interface {
	RecordWorkerStarted()
	RecordWorkerStopped()
	RecordWorkerPanic()

	RecordTaskCheckedOut()
	RecordTaskCompleted(took time.Duration)
	RecordTaskFailed(took time.Duration)
	RecordCheckoutError()

	RecordRetryAttempt()
	RecordRetryExhausted()

	GetSnapshot() MetricsSnapshot
}

// MetricsSnapshot is a point-in-time view of pool metrics.
type MetricsSnapshot struct {
	WorkersActive   int64         `json:"workers_active"`
	WorkerPanics    int64         `json:"worker_panics"`
	TasksCheckedOut int64         `json:"tasks_checked_out"`
	TasksCompleted  int64         `json:"tasks_completed"`
	TasksFailed     int64         `json:"tasks_failed"`
	CheckoutErrors  int64         `json:"checkout_errors"`
	RetryAttempts   int64         `json:"retry_attempts"`
	RetriesExhaust  int64         `json:"retries_exhausted"`
	TotalDuration   time.Duration `json:"total_duration"`
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func NewNoOpMetrics() WorkerPoolMetrics { return NoOpMetrics{} }

func (NoOpMetrics) RecordWorkerStarted()              {}
func (NoOpMetrics) RecordWorkerStopped()              {}
func (NoOpMetrics) RecordWorkerPanic()                {}
func (NoOpMetrics) RecordTaskCheckedOut()             {}
func (NoOpMetrics) RecordTaskCompleted(time.Duration) {}
func (NoOpMetrics) RecordTaskFailed(time.Duration)    {}
func (NoOpMetrics) RecordCheckoutError()              {}
func (NoOpMetrics) RecordRetryAttempt()               {}
func (NoOpMetrics) RecordRetryExhausted()             {}
func (NoOpMetrics) GetSnapshot() MetricsSnapshot      { return MetricsSnapshot{} }

// InMemoryMetrics counts in process memory.
type InMemoryMetrics struct {
	workersActive   atomic.Int64
	workerPanics    atomic.Int64
	tasksCheckedOut atomic.Int64
	tasksCompleted  atomic.Int64
	tasksFailed     atomic.Int64
	checkoutErrors  atomic.Int64
	retryAttempts   atomic.Int64
	retriesExhaust  atomic.Int64
	totalDuration   atomic.Int64
}

func NewInMemoryMetrics() *InMemoryMetrics { return &InMemoryMetrics{} }

func (m *InMemoryMetrics) RecordWorkerStarted()  { m.workersActive.Add(1) }
func (m *InMemoryMetrics) RecordWorkerStopped()  { m.workersActive.Add(-1) }
func (m *InMemoryMetrics) RecordWorkerPanic()    { m.workerPanics.Add(1) }
func (m *InMemoryMetrics) RecordTaskCheckedOut() { m.tasksCheckedOut.Add(1) }
func (m *InMemoryMetrics) RecordCheckoutError()  { m.checkoutErrors.Add(1) }
func (m *InMemoryMetrics) RecordRetryAttempt()   { m.retryAttempts.Add(1) }
func (m *InMemoryMetrics) RecordRetryExhausted() { m.retriesExhaust.Add(1) }

func (m *InMemoryMetrics) RecordTaskCompleted(took time.Duration) {
	m.tasksCompleted.Add(1)
	m.totalDuration.Add(int64(took))
}

func (m *InMemoryMetrics) RecordTaskFailed(took time.Duration) {
	m.tasksFailed.Add(1)
	m.totalDuration.Add(int64(took))
}

func (m *InMemoryMetrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		WorkersActive:   m.workersActive.Load(),
		WorkerPanics:    m.workerPanics.Load(),
		TasksCheckedOut: m.tasksCheckedOut.Load(),
		TasksCompleted:  m.tasksCompleted.Load(),
		TasksFailed:     m.tasksFailed.Load(),
		CheckoutErrors:  m.checkoutErrors.Load(),
		RetryAttempts:   m.retryAttempts.Load(),
		RetriesExhaust:  m.retriesExhaust.Load(),
		TotalDuration:   time.Duration(m.totalDuration.Load()),
	}
}

// PrometheusMetrics exports pool metrics to a registry and keeps an
// in-memory copy for snapshots.
type PrometheusMetrics struct {
	*InMemoryMetrics
	workers  prometheus.Gauge
	panics   prometheus.Counter
	tasks    *prometheus.CounterVec
	duration prometheus.Histogram
	checkout prometheus.Counter
	retries  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the pool collectors on reg, labelled with
// the pool name.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace, pool string) *PrometheusMetrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"pool": pool}

	return &PrometheusMetrics{
		InMemoryMetrics: NewInMemoryMetrics(),
		workers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "workers", Name: "active",
			Help: "Workers currently running.", ConstLabels: labels,
		}),
		panics: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "workers", Name: "panics_total",
			Help: "Panics recovered in workers.", ConstLabels: labels,
		}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "workers", Name: "tasks_total",
			Help: "Tasks by outcome.", ConstLabels: labels,
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "workers", Name: "task_duration_seconds",
			Help: "Task processing time.", ConstLabels: labels,
			Buckets: prometheus.DefBuckets,
		}),
		checkout: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "workers", Name: "checkout_errors_total",
			Help: "Checkouts that returned no task.", ConstLabels: labels,
		}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "workers", Name: "retries_total",
			Help: "Retry attempts and exhausted retries.", ConstLabels: labels,
		}, []string{"kind"}),
	}
}

func (p *PrometheusMetrics) RecordWorkerStarted() {
	p.InMemoryMetrics.RecordWorkerStarted()
	p.workers.Inc()
}

func (p *PrometheusMetrics) RecordWorkerStopped() {
	p.InMemoryMetrics.RecordWorkerStopped()
	p.workers.Dec()
}

func (p *PrometheusMetrics) RecordWorkerPanic() {
	p.InMemoryMetrics.RecordWorkerPanic()
	p.panics.Inc()
}

func (p *PrometheusMetrics) RecordTaskCheckedOut() {
	p.InMemoryMetrics.RecordTaskCheckedOut()
	p.tasks.WithLabelValues("checked_out").Inc()
}

func (p *PrometheusMetrics) RecordTaskCompleted(took time.Duration) {
	p.InMemoryMetrics.RecordTaskCompleted(took)
	p.tasks.WithLabelValues("completed").Inc()
	p.duration.Observe(took.Seconds())
}

func (p *PrometheusMetrics) RecordTaskFailed(took time.Duration) {
	p.InMemoryMetrics.RecordTaskFailed(took)
	p.tasks.WithLabelValues("failed").Inc()
	p.duration.Observe(took.Seconds())
}

func (p *PrometheusMetrics) RecordCheckoutError() {
	p.InMemoryMetrics.RecordCheckoutError()
	p.checkout.Inc()
}

func (p *PrometheusMetrics) RecordRetryAttempt() {
	p.InMemoryMetrics.RecordRetryAttempt()
	p.retries.WithLabelValues("attempt").Inc()
}

func (p *PrometheusMetrics) RecordRetryExhausted() {
	p.InMemoryMetrics.RecordRetryExhausted()
	p.retries.WithLabelValues("exhausted").Inc()
}
