// Package site wires the taskweb routes.
package site

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jrazmi/taskdeck/app/taskweb/config"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/fopbridge"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// NewHandler builds the full taskweb handler.
func NewHandler(cfg config.TaskWeb) (http.Handler, error) {
	wh := web.NewWebHandler(
		web.WithLogging(cfg.Logger.Logger),
		web.WithTelemetry(cfg.Telemetry),
		web.WithDefaultHeaders(map[string]string{
			"X-Frame-Options":        "DENY",
			"X-Content-Type-Options": "nosniff",
			"Referrer-Policy":        "same-origin",
		}),
		web.WithGlobalMiddleware(
			mid.Logger(cfg.Logger),
			mid.Metrics(cfg.Metrics),
			mid.Errors(cfg.Logger),
			mid.Panics(),
		),
	)

	if err := AddHandlers(wh, cfg); err != nil {
		return nil, err
	}
	return wh, nil
}

// AddHandlers registers the health and metrics routes and every page.
func AddHandlers(wh *web.WebHandler, cfg config.TaskWeb) error {
	wh.GET("/healthz", func(ctx context.Context, r *http.Request) web.Encoder {
		return fopbridge.NewCodeResponse("ok", cfg.Build)
	})
	wh.HandleRaw("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	limit, err := mid.RateLimit(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	if err := cfg.Pages.AddHandlers(wh, limit); err != nil {
		return fmt.Errorf("pages: %w", err)
	}
	return nil
}
