package postgresdb

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MultiQueryTracer fans trace calls out to several tracers.
// https://github.com/jackc/pgx/discussions/1677#discussioncomment-8815982
type MultiQueryTracer struct {
	Tracers []pgx.QueryTracer
}

func NewMultiQueryTracer(tracers ...pgx.QueryTracer) *MultiQueryTracer {
	return &MultiQueryTracer{Tracers: tracers}
}

func (m *MultiQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range m.Tracers {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (m *MultiQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range m.Tracers {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

// LoggingQueryTracer logs each query at debug level with its duration.
// Failed queries are logged at error level.
type LoggingQueryTracer struct {
	logger *slog.Logger
}

func NewLoggingQueryTracer(logger *slog.Logger) *LoggingQueryTracer {
	return &LoggingQueryTracer{logger: logger}
}

type queryStartKey struct{}

type queryStart struct {
	sql string
	at  time.Time
}

var collapseSpace = regexp.MustCompile(`\s+`)

// compactSQL puts a query on one line.
func compactSQL(sql string) string {
	sql = collapseSpace.ReplaceAllString(sql, " ")
	sql = strings.ReplaceAll(sql, "( ", "(")
	sql = strings.ReplaceAll(sql, " )", ")")
	return strings.TrimSpace(sql)
}

func (l *LoggingQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: compactSQL(data.SQL), at: time.Now()})
}

func (l *LoggingQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	start, _ := ctx.Value(queryStartKey{}).(queryStart)
	attrs := []any{
		slog.String("sql", start.sql),
		slog.String("command_tag", data.CommandTag.String()),
		slog.Duration("took", time.Since(start.at)),
	}

	if data.Err != nil {
		l.logger.ErrorContext(ctx, "query failed", append(attrs, slog.String("error", data.Err.Error()))...)
		return
	}

	l.logger.DebugContext(ctx, "query", attrs...)
}

// MetricsQueryTracer records query latency by statement kind and outcome.
type MetricsQueryTracer struct {
	duration *prometheus.HistogramVec
}

func NewMetricsQueryTracer(reg prometheus.Registerer, namespace string) *MetricsQueryTracer {
	return &MetricsQueryTracer{
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "PostgreSQL query latency by statement and outcome.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"statement", "outcome"}),
	}
}

type metricsStartKey struct{}

type metricsStart struct {
	statement string
	at        time.Time
}

// statementKind is the leading keyword of sql, or OTHER.
func statementKind(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "OTHER"
	}
	switch kw := strings.ToUpper(fields[0]); kw {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "WITH":
		return kw
	default:
		return "OTHER"
	}
}

func (m *MetricsQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, metricsStartKey{}, metricsStart{statement: statementKind(data.SQL), at: time.Now()})
}

func (m *MetricsQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(metricsStartKey{}).(metricsStart)
	if !ok {
		return
	}
	outcome := "ok"
	if data.Err != nil {
		outcome = "error"
	}
	m.duration.WithLabelValues(start.statement, outcome).Observe(time.Since(start.at).Seconds())
}
