// Package metrics holds the Prometheus collectors updated by the request
// middleware, and the context plumbing the middleware uses to reach them.
package metrics

import (
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the set of request collectors for one binary.
type Metrics struct {
	requests   *prometheus.CounterVec
	errors     *prometheus.CounterVec
	panics     prometheus.Counter
	goroutines prometheus.Gauge
	duration   *prometheus.HistogramVec
	rateLimits prometheus.Counter

	total atomic.Int64
}

// New registers the collectors on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Handled request errors by code.",
		}, []string{"code"}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_total",
			Help:      "Recovered handler panics.",
		}),
		goroutines: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Goroutines, sampled every 1000 requests.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}

type ctxKey int

const key ctxKey = 1

// Set stores m in ctx for the Add functions.
func (m *Metrics) Set(ctx context.Context) context.Context {
	return context.WithValue(ctx, key, m)
}

func get(ctx context.Context) *Metrics {
	m, _ := ctx.Value(key).(*Metrics)
	return m
}

// AddRequests counts a finished request and returns the running total.
func AddRequests(ctx context.Context, method, route string, status int, took time.Duration) int64 {
	m := get(ctx)
	if m == nil {
		return 0
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(took.Seconds())
	return m.total.Add(1)
}

// AddGoroutines samples the goroutine count.
func AddGoroutines(ctx context.Context) int {
	n := runtime.NumGoroutine()
	if m := get(ctx); m != nil {
		m.goroutines.Set(float64(n))
	}
	return n
}

// AddErrors counts a handled error.
func AddErrors(ctx context.Context, code string) {
	if m := get(ctx); m != nil {
		m.errors.WithLabelValues(code).Inc()
	}
}

// AddPanics counts a recovered panic.
func AddPanics(ctx context.Context) {
	if m := get(ctx); m != nil {
		m.panics.Inc()
	}
}

// AddRateLimited counts a rejected request.
func AddRateLimited(ctx context.Context) {
	if m := get(ctx); m != nil {
		m.rateLimits.Inc()
	}
}
