// Package api wires the taskapi routes.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jrazmi/taskdeck/app/taskapi/config"
	"github.com/jrazmi/taskdeck/bridge/repositories/tasksrepobridge"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/fopbridge"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/bridge/usecases/authcasebridge"
	"github.com/jrazmi/taskdeck/infrastructure/web"
)

// NewHandler builds the full taskapi handler.
func NewHandler(cfg config.TaskAPI) (http.Handler, error) {
	wh := web.NewWebHandler(
		web.WithLogging(cfg.Logger.Logger),
		web.WithTelemetry(cfg.Telemetry),
		web.WithCORS(cfg.CORSOrigins),
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

// AddHandlers registers the health, metrics, auth and task routes.
func AddHandlers(wh *web.WebHandler, cfg config.TaskAPI) error {
	wh.GET("/healthz", healthz(cfg.StatusCheck))
	wh.HandleRaw("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	limit, err := mid.RateLimit(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	v1 := wh.Group(config.ApiRoute)

	authcasebridge.AddHttpRoutes(v1, authcasebridge.Config{
		Usecase:              cfg.UseCases.Auth,
		CredentialMiddleware: []web.Middleware{limit},
	})

	tasksrepobridge.AddHttpRoutes(v1, tasksrepobridge.Config{
		Repository: cfg.Repositories.Tasks,
		Middleware: []web.Middleware{mid.Bearer(cfg.UseCases.Auth), mid.MatchUser("user_id")},
	})

	return nil
}

func healthz(check func(ctx context.Context) error) web.HandlerFunc {
	return func(ctx context.Context, r *http.Request) web.Encoder {
		if err := check(ctx); err != nil {
			return errs.Newf(errs.Internal, "database unavailable")
		}
		return fopbridge.NewCodeResponse("ok", "database reachable")
	}
}
