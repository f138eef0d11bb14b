// Package main runs the task manager API server and its due-task sweep.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskmgr-api/internal/config"
	"github.com/phrazzld/taskmgr-api/internal/platform/logger"
	"github.com/phrazzld/taskmgr-api/internal/platform/postgres"
)

type flags struct {
	migrate        string
	migrateOnStart bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&f.migrate, "migrate", "",
		"run a migration command (up, down, reset, status, version) and exit")
	fs.BoolVar(&f.migrateOnStart, "migrate-on-start", false,
		"apply pending migrations before serving")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"email_enabled", cfg.Email.Enabled(),
		"redis_configured", cfg.Redis.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if f.migrate != "" {
		defer closeDatabase(db, log)
		return postgres.Migrate(ctx, db, f.migrate, log)
	}
	if f.migrateOnStart {
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, log); err != nil {
			closeDatabase(db, log)
			return err
		}
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		closeDatabase(db, log)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
