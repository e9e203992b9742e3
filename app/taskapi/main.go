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

	"github.com/jrazmi/taskdeck/app/taskapi/api"
	"github.com/jrazmi/taskdeck/app/taskapi/config"
	"github.com/jrazmi/taskdeck/bridge/scaffolding/metrics"
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo/stores/taskspgxstore"
	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo"
	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo/stores/usersessionspgxstore"
	"github.com/jrazmi/taskdeck/core/repositories/usersrepo"
	"github.com/jrazmi/taskdeck/core/repositories/usersrepo/stores/userspgxstore"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/postgresdb"
	"github.com/jrazmi/taskdeck/infrastructure/web"
	"github.com/jrazmi/taskdeck/infrastructure/workers"
	"github.com/jrazmi/taskdeck/schema"
	"github.com/jrazmi/taskdeck/sdk/environment"
	"github.com/jrazmi/taskdeck/sdk/logger"
	"github.com/jrazmi/taskdeck/sdk/telemetry"
)

var build = "develop"
var appName = "TASKAPI"

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// :*: START DATABASES :*:
	pg, err := postgresdb.NewFromEnv(appName,
		postgresdb.WithLogger(log.Logger),
		postgresdb.WithTracer(postgresdb.NewMetricsQueryTracer(reg, "taskdeck")),
	)
	if err != nil {
		return fmt.Errorf("configuring postgres support: %w", err)
	}
	defer func() {
		log.InfoContext(ctx, "shutdown", "status", "closing database connection")
		pg.Close()
	}()

	if err := postgresdb.Migrate(ctx, pg, log, schema.MigrationsFS, schema.MigrationsDir); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	// END DATABASES //

	// REPOSITORIES //
	log.InfoContext(ctx, "startup", "status", "initializing repository support")
	users := usersrepo.NewRepository(log, userspgxstore.NewStore(log, pg))
	sessions := usersessionsrepo.NewRepository(log, usersessionspgxstore.NewStore(log, pg))
	tasks := tasksrepo.NewRepository(log, taskspgxstore.NewStore(log, pg))
	// END REPOSITORIES //

	auth, err := authcase.NewFromEnv(appName, log, users, sessions)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	cfg := config.TaskAPI{
		Build:        build,
		Logger:       log,
		Telemetry:    tel,
		Repositories: config.Repositories{Tasks: tasks},
		UseCases:     config.UseCases{Auth: auth},
		Metrics:      metrics.New(reg, "taskdeck"),
		Registry:     reg,
		StatusCheck: func(ctx context.Context) error {
			return postgresdb.StatusCheck(ctx, pg)
		},
	}
	if err := environment.ParseEnvTags(appName, &cfg.RateLimit); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}
	var handlerCfg web.HandlerConfig
	if err := environment.ParseEnvTags(appName, &handlerCfg); err != nil {
		return fmt.Errorf("handler config: %w", err)
	}
	cfg.CORSOrigins = handlerCfg.CORSOrigins

	handler, err := api.NewHandler(cfg)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	// SESSION SWEEPER //
	sweeper, err := workers.NewFromEnv[usersessionsrepo.UserSession](appName+"_SWEEPER",
		authcase.NewSessionSweeper(log, sessions),
		workers.WithName("session-sweeper"),
		workers.WithLogger(log.Logger),
		workers.WithMetrics(workers.NewPrometheusMetrics(reg, "taskdeck", "session_sweeper")),
	)
	if err != nil {
		return fmt.Errorf("session sweeper: %w", err)
	}
	sweeper.AddPostProcessHooks(workers.LogOutcomeHook[usersessionsrepo.UserSession](log.Logger))

	sweeperErrors := make(chan error, 1)
	go func() {
		sweeperErrors <- sweeper.Start(ctx)
	}()
	defer sweeper.Stop()
	// END SESSION SWEEPER //

	server, err := web.NewServerFromEnv(appName,
		web.WithHandler(handler),
		web.WithErrorLog(logger.NewStdLogger(log, slog.LevelError)),
	)
	if err != nil {
		return fmt.Errorf("webserver: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "startup", "status", "api router started", "host", server.Addr)
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

	case err := <-sweeperErrors:
		return fmt.Errorf("session sweeper stopped: %w", err)

	case sig := <-shutdown:
		log.InfoContext(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.InfoContext(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		if err := server.Stop(ctx); err != nil {
			return err
		}
	}

	return nil
}
