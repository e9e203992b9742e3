package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jrazmi/taskdeck/app/tooling/commands"
	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo"
	"github.com/jrazmi/taskdeck/core/repositories/usersessionsrepo/stores/usersessionspgxstore"
	"github.com/jrazmi/taskdeck/core/usecases/authcase"
	"github.com/jrazmi/taskdeck/infrastructure/postgresdb"
	"github.com/jrazmi/taskdeck/schema"
	"github.com/jrazmi/taskdeck/sdk/environment"
	"github.com/jrazmi/taskdeck/sdk/logger"
)

var build = "develop"
var appName = "TOOLING"

const usage = `usage: tooling <command>

commands:
  migrate   apply pending migrations
  status    list migrations that have not been applied
  sweep     delete revoked and expired sessions once`

func main() {
	environment.LoadEnv()

	log, err := logger.NewFromEnv(appName)
	if err != nil {
		fmt.Println("unable to configure logging:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, os.Args[1:]); err != nil {
		log.ErrorContext(ctx, "tooling", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, args []string) error {
	if len(args) == 0 {
		fmt.Println(usage)
		return nil
	}
	command := args[0]
	switch command {
	case "migrate", "status", "sweep":
	default:
		fmt.Println(usage)
		return nil
	}

	log.InfoContext(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0), "build", build, "command", command)

	pg, err := postgresdb.NewFromEnv(appName,
		postgresdb.WithLogger(log.Logger),
		postgresdb.WithTracer(postgresdb.NewLoggingQueryTracer(log.Logger)),
	)
	if err != nil {
		return fmt.Errorf("configuring postgres support: %w", err)
	}
	defer pg.Close()

	return dispatch(ctx, log, command, pg)
}

func dispatch(ctx context.Context, log *logger.Logger, command string, pg *pgxpool.Pool) error {
	switch command {
	case "migrate":
		return commands.Migrate(ctx, pg, log, schema.MigrationsFS, schema.MigrationsDir)

	case "status":
		pending, err := commands.Pending(ctx, pg, schema.MigrationsFS, schema.MigrationsDir)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		if len(pending) == 0 {
			fmt.Println("database is up to date")
			return nil
		}
		fmt.Println("pending migrations:")
		for _, p := range pending {
			fmt.Println("  " + p)
		}
		return nil

	case "sweep":
		sessions := usersessionsrepo.NewRepository(log, usersessionspgxstore.NewStore(log, pg))
		res, err := commands.Drain[usersessionsrepo.UserSession](ctx, authcase.NewSessionSweeper(log, sessions))
		if err != nil {
			return fmt.Errorf("sweep sessions: %w", err)
		}
		fmt.Printf("swept %d sessions, %d failed\n", res.Completed, res.Failed)
		return nil
	}
	return nil
}
