// Package config holds what the taskapi handlers are built from.
package config

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/telemetry"
)

// site wide globals.
const (
	ApiRoute = "/api/v1"
)

type UseCases struct {
	Auth *authcase.Usecase
}

type Repositories struct {
	Tasks *tasksrepo.Repository
}

// TaskAPI is the overall configuration for the taskapi binary.
type TaskAPI struct {
	Build     string
	Logger    *logger.Logger
	Telemetry telemetry.Telemetry

	Repositories Repositories
	UseCases     UseCases

	// Metrics are registered on Registry, which /metrics serves.
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	RateLimit   mid.RateLimitConfig
	CORSOrigins []string

	// StatusCheck reports whether the database is reachable.
	StatusCheck func(ctx context.Context) error
}
