package querycache

import (
	"fmt"
	"io"
	"time"

	"github.com/jrazmi/taskdeck/sdk/environment"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

// Config is the exportable cache configuration.
type Config struct {
	StaleTime     time.Duration `env:"QUERY_STALE_TIME" default:"5s"`
	ReadRetries   int           `env:"QUERY_READ_RETRIES" default:"1"`
	RetryInterval time.Duration `env:"QUERY_RETRY_INTERVAL" default:"200ms"`
}

type options struct {
	staleTime     time.Duration
	readRetries   int
	retryInterval time.Duration
	retryable     func(error) bool
	log           *logger.Logger
	now           func() time.Time
}

// Option overrides a configured value.
type Option func(*options)

// WithStaleTime sets how long fetched data is served without refetching.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		o.staleTime = d
	}
}

// WithReadRetries sets how many times a failed fetch is retried.
func WithReadRetries(n int) Option {
	return func(o *options) {
		o.readRetries = n
	}
}

// WithRetryInterval sets the pause between fetch attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(o *options) {
		o.retryInterval = d
	}
}

// WithRetryable limits read retries to errors for which retryable returns
// true. Without it every failed fetch is retried.
func WithRetryable(retryable func(error) bool) Option {
	return func(o *options) {
		o.retryable = retryable
	}
}

// WithLogger sets the logger used for retries and discarded fetches.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// LoadConfig reads prefix_QUERY_* variables. One parsed Config serves every
// cache a process builds.
func LoadConfig(prefix string) (Config, error) {
	var cfg Config
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing query cache config: %w", err)
	}
	return cfg, nil
}

// Options turns the config into options for New.
func (cfg Config) Options() []Option {
	return []Option{
		WithStaleTime(cfg.StaleTime),
		WithReadRetries(cfg.ReadRetries),
		WithRetryInterval(cfg.RetryInterval),
	}
}

func defaultOptions() *options {
	return &options{
		staleTime:     5 * time.Second,
		readRetries:   1,
		retryInterval: 200 * time.Millisecond,
		log:           logger.NewDefault(logger.WithOutput(io.Discard)),
		now:           time.Now,
	}
}
