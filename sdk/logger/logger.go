// Package logger wraps log/slog with the configuration and trace id
// plumbing shared by every taskdeck binary.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/jrazmi/taskdeck/sdk/environment"
)

// Logger is a wrapper around the standard slog.Logger.
type Logger struct {
	*slog.Logger
}

// TraceIDFn returns the trace id for the request carried by ctx.
type TraceIDFn func(ctx context.Context) string

// Record is the view of a log record handed to event functions.
type Record struct {
	Time       time.Time
	Message    string
	Level      slog.Level
	Attributes map[string]any
}

// EventFn is called for log records at a given level.
type EventFn func(ctx context.Context, r Record)

// Events lets callers hook records by level, e.g. to raise alerts on errors.
type Events struct {
	Debug EventFn
	Info  EventFn
	Warn  EventFn
	Error EventFn
}

// Options is the exportable logger configuration.
type Options struct {
	Level      string `env:"LOG_LEVEL" default:"INFO"`
	Output     string `env:"LOG_OUTPUT" default:"STDOUT"`
	Format     string `env:"LOG_FORMAT" default:"json"`
	TimeFormat string `env:"LOG_TIME_FORMAT" default:"RFC3339"`
	AddSource  bool   `env:"LOG_ADD_SOURCE" default:"false"`
}

func (e Events) set() bool {
	return e.Debug != nil || e.Info != nil || e.Warn != nil || e.Error != nil
}

type options struct {
	level      slog.Level
	output     io.Writer
	addSource  bool
	format     string
	timeFormat string
	service    string
	traceIDFn  TraceIDFn
	events     Events
}

// Option overrides a configured value.
type Option func(*options)

// WithLevel overrides the minimum level.
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = parseLevel(level)
	}
}

// WithOutput overrides the destination writer.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithService adds a service attribute to every record.
func WithService(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

// WithTraceIDFn adds a trace_id attribute taken from the record's context.
func WithTraceIDFn(fn TraceIDFn) Option {
	return func(o *options) {
		o.traceIDFn = fn
	}
}

// WithEvents registers level event hooks.
func WithEvents(events Events) Option {
	return func(o *options) {
		o.events = events
	}
}

// NewDefault builds an INFO json logger on stdout.
func NewDefault(opts ...Option) *Logger {
	return newLogger(Options{
		Level:      "INFO",
		Output:     "STDOUT",
		Format:     "json",
		TimeFormat: "RFC3339",
	}, opts...)
}

// NewDiscard builds a logger that writes nothing, for tests.
func NewDiscard() *Logger {
	return NewDefault(WithOutput(io.Discard))
}

// NewFromEnv reads Options from prefix_LOG_* variables.
func NewFromEnv(prefix string, opts ...Option) (*Logger, error) {
	var cfg Options
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing logger config: %w", err)
	}
	return newLogger(cfg, append([]Option{WithService(prefix)}, opts...)...), nil
}

// NewWithEvents builds a json logger that tags records with service and trace
// id and forwards records to events.
func NewWithEvents(w io.Writer, level slog.Level, service string, traceIDFn TraceIDFn, events Events) *Logger {
	return newLogger(Options{Format: "json", TimeFormat: "RFC3339"},
		WithOutput(w),
		func(o *options) { o.level = level },
		WithService(service),
		WithTraceIDFn(traceIDFn),
		WithEvents(events),
	)
}

// NewStdLogger adapts l for APIs that want a *log.Logger, like http.Server.
func NewStdLogger(l *Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(l.Logger.Handler(), level)
}

func newLogger(cfg Options, opts ...Option) *Logger {
	o := &options{
		level:      parseLevel(cfg.Level),
		output:     parseOutput(cfg.Output),
		addSource:  cfg.AddSource,
		format:     cfg.Format,
		timeFormat: cfg.TimeFormat,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     o.level,
		AddSource: o.addSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 && o.timeFormat != "" {
				return formatTime(a, o.timeFormat)
			}
			return a
		},
	}

	var handler slog.Handler
	switch o.format {
	case "text":
		handler = slog.NewTextHandler(o.output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	}

	if o.traceIDFn != nil || o.events.set() {
		handler = &contextHandler{Handler: handler, traceIDFn: o.traceIDFn, events: o.events}
	}

	l := slog.New(handler)
	if o.service != "" {
		l = l.With("service", o.service)
	}

	return &Logger{Logger: l}
}

func formatTime(a slog.Attr, layout string) slog.Attr {
	t := a.Value.Time()
	switch layout {
	case "Unix":
		return slog.Int64(slog.TimeKey, t.Unix())
	case "UnixMilli":
		return slog.Int64(slog.TimeKey, t.UnixMilli())
	case "RFC3339":
		return slog.String(slog.TimeKey, t.Format(time.RFC3339))
	case "RFC3339Nano":
		return slog.String(slog.TimeKey, t.Format(time.RFC3339Nano))
	default:
		return slog.String(slog.TimeKey, t.Format(layout))
	}
}

// contextHandler adds the trace id and fires events.
type contextHandler struct {
	slog.Handler
	traceIDFn TraceIDFn
	events    Events
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.traceIDFn != nil {
		r.AddAttrs(slog.String("trace_id", h.traceIDFn(ctx)))
	}

	if fn := h.eventFn(r.Level); fn != nil {
		rec := Record{
			Time:       r.Time,
			Message:    r.Message,
			Level:      r.Level,
			Attributes: make(map[string]any, r.NumAttrs()),
		}
		r.Attrs(func(a slog.Attr) bool {
			rec.Attributes[a.Key] = a.Value.Any()
			return true
		})
		fn(ctx, rec)
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) eventFn(level slog.Level) EventFn {
	switch {
	case level >= slog.LevelError:
		return h.events.Error
	case level >= slog.LevelWarn:
		return h.events.Warn
	case level >= slog.LevelInfo:
		return h.events.Info
	default:
		return h.events.Debug
	}
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), traceIDFn: h.traceIDFn, events: h.events}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), traceIDFn: h.traceIDFn, events: h.events}
}

// InfoContextf logs a formatted info message.
func (l *Logger) InfoContextf(ctx context.Context, format string, args ...any) {
	l.InfoContext(ctx, fmt.Sprintf(format, args...))
}

// ErrorContextf logs a formatted error message.
func (l *Logger) ErrorContextf(ctx context.Context, format string, args ...any) {
	l.ErrorContext(ctx, fmt.Sprintf(format, args...))
}
