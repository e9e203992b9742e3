// Package taskclient is the HTTP client for the taskdeck API: the auth
// endpoints and the per-user task endpoints.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrazmi/taskdeck/sdk/environment"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/sony/gobreaker"
)

// Config is the exportable client configuration.
type Config struct {
	BaseURL         string        `env:"API_URL" default:"http://localhost:8080/api/v1"`
	Timeout         time.Duration `env:"API_TIMEOUT" default:"10s"`
	BreakerFailures int           `env:"API_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `env:"API_BREAKER_TIMEOUT" default:"30s"`
}

type options struct {
	httpClient      *http.Client
	timeout         time.Duration
	breakerFailures int
	breakerTimeout  time.Duration
	log             *logger.Logger
}

// Option overrides a configured value.
type Option func(*options)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithBreaker sets how many consecutive server failures open the breaker and
// how long it stays open.
func WithBreaker(failures int, openFor time.Duration) Option {
	return func(o *options) {
		o.breakerFailures = failures
		o.breakerTimeout = openFor
	}
}

// WithLogger sets the logger used for breaker state changes.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Client talks to the taskdeck API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// New constructs a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := &options{
		timeout:         10 * time.Second,
		breakerFailures: 5,
		breakerTimeout:  30 * time.Second,
		log:             logger.NewDefault(logger.WithOutput(io.Discard)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    o.httpClient,
		log:     o.log,
	}

	failures := uint32(max(o.breakerFailures, 1))
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "taskapi",
		MaxRequests: 1,
		Timeout:     o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Rejections from the API are answers, not outages.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

// NewFromEnv builds a client from prefix_API_* variables.
func NewFromEnv(prefix string, opts ...Option) (*Client, error) {
	var cfg Config
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing task client config: %w", err)
	}

	base := []Option{
		WithTimeout(cfg.Timeout),
		WithBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
	}
	return New(cfg.BaseURL, append(base, opts...)...), nil
}

// do sends one request and decodes a JSON response into out. token, body and
// out are optional.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, method, path, token, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("task api unavailable: %w", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(data) > 0 {
			if jerr := json.Unmarshal(data, apiErr); jerr != nil {
				apiErr.Message = strings.TrimSpace(string(data))
			}
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
