// Package config holds what the taskweb handlers are built from.
package config

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jrazmi/taskdeck/app/taskweb/pages"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/mid"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/telemetry"
)

// TaskWeb is the overall configuration for the taskweb binary.
type TaskWeb struct {
	Build     string
	Logger    *logger.Logger
	Telemetry telemetry.Telemetry

	Pages *pages.App

	// Metrics are registered on Registry, which /metrics serves.
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	RateLimit mid.RateLimitConfig
}
