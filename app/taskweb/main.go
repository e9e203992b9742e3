package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jrazmi/taskdeck/app/taskweb/config"
	"github.com/jrazmi/taskdeck/app/taskweb/pages"
	"github.com/jrazmi/taskdeck/app/taskweb/site"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/sdk/environment"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/querycache"
	"github.com/jrazmi/taskdeck/sdk/taskclient"
	"github.com/jrazmi/taskdeck/sdk/telemetry"
)

var build = "develop"
var appName = "TASKWEB"

func main() {
	environment.LoadEnv()
	ctx := context.Background()

	var log *logger.Logger
	var tel telemetry.Telemetry

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.InfoContext(ctx, "******* SEND ALERT *******", "message", r.Message)
		},
	}

	log, err := logger.NewFromEnv(appName,
		logger.WithTraceIDFn(tel.GetTraceID),
		logger.WithEvents(events),
	)
	if err != nil {
		fmt.Println("unable to configure logging:", err)
		os.Exit(1)
	}

	if err := run(ctx, log, tel); err != nil {
		log.ErrorContext(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, tel telemetry.Telemetry) error {
	log.InfoContext(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build)

	// :*: TASK API CLIENT :*:
	client, err := taskclient.NewFromEnv(appName, taskclient.WithLogger(log))
	if err != nil {
		return fmt.Errorf("task api client: %w", err)
	}
	// END TASK API CLIENT //

	// SESSION CACHES //
	cacheCfg, err := querycache.LoadConfig(appName)
	if err != nil {
		return err
	}
	var settings pages.Settings
	if err := environment.ParseEnvTags(appName, &settings); err != nil {
		return fmt.Errorf("pages config: %w", err)
	}

	caches, err := pages.NewCacheRegistry(settings.CacheSize, append(cacheCfg.Options(), querycache.WithLogger(log))...)
	if err != nil {
		return err
	}
	defer func() {
		log.InfoContext(ctx, "shutdown", "status", "closing session caches")
		caches.Close()
	}()
	// END SESSION CACHES //

	app, err := pages.New(pages.Config{
		Log:      log,
		API:      client,
		Caches:   caches,
		Settings: settings,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cfg := config.TaskWeb{
		Build:     build,
		Logger:    log,
		Telemetry: tel,
		Pages:     app,
		Metrics:   metrics.New(reg, "taskweb"),
		Registry:  reg,
	}
	if err := environment.ParseEnvTags(appName, &cfg.RateLimit); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}

	handler, err := site.NewHandler(cfg)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	server, err := web.NewServerFromEnv(appName,
		web.WithHandler(handler),
		web.WithErrorLog(logger.NewStdLogger(log, slog.LevelError)),
	)
	if err != nil {
		return fmt.Errorf("webserver: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "startup", "status", "web router started", "host", server.Addr)
		serverErrors <- server.Serve()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.InfoContext(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.InfoContext(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		if err := server.Stop(ctx); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, server.Config.ShutdownTimeout)
		defer cancel()

		if err := app.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for task mutations: %w", err)
		}
	}

	return nil
}
