package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jrazmi/taskdeck/sdk/environment"
)

// WebServer is an http.Server plus the settings it was built from.
type WebServer struct {
	*http.Server
	Config ServerConfig
}

// ServerConfig is read from PREFIX_* environment variables.
type ServerConfig struct {
	Port              string        `env:"PORT" default:":8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" default:"30s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" default:"20s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" default:"65536"`
}

type serveroptions struct {
	handler  http.Handler
	errorLog *log.Logger
}

// ServerOption configures what NewServerFromEnv builds.
type ServerOption func(*serveroptions)

func WithHandler(handler http.Handler) ServerOption {
	return func(o *serveroptions) {
		o.handler = handler
	}
}

// WithErrorLog routes net/http's own error output, e.g. TLS handshake
// failures, to errorLog.
func WithErrorLog(errorLog *log.Logger) ServerOption {
	return func(o *serveroptions) {
		o.errorLog = errorLog
	}
}

// NewServerFromEnv builds a WebServer from prefixed environment variables.
func NewServerFromEnv(prefix string, opts ...ServerOption) (*WebServer, error) {
	var cfg ServerConfig
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing webserver config: %w", err)
	}
	return NewServer(cfg, opts...), nil
}

func NewServer(cfg ServerConfig, opts ...ServerOption) *WebServer {
	var o serveroptions
	for _, opt := range opts {
		opt(&o)
	}

	return &WebServer{
		Server: &http.Server{
			Addr:              cfg.Port,
			Handler:           o.handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
			ErrorLog:          o.errorLog,
		},
		Config: cfg,
	}
}

// Serve runs ListenAndServe, treating a shutdown as a clean exit.
func (s *WebServer) Serve() error {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains open connections for at most ShutdownTimeout and then
// closes whatever is left.
func (s *WebServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.Config.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		s.Close()
		return fmt.Errorf("could not stop server gracefully: %w", err)
	}
	return nil
}
