package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/taskmgr-api/internal/config"
	"github.com/phrazzld/taskmgr-api/internal/platform/email"
	"github.com/phrazzld/taskmgr-api/internal/platform/postgres"
	"github.com/phrazzld/taskmgr-api/internal/platform/redis"
	"github.com/phrazzld/taskmgr-api/internal/service"
	"github.com/phrazzld/taskmgr-api/internal/service/auth"
	"github.com/phrazzld/taskmgr-api/internal/store"
	"github.com/phrazzld/taskmgr-api/internal/sweep"
)

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	db      *sql.DB
	started time.Time

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	// closers run in reverse order on shutdown.
	closers []io.Closer

	sweeper   *sweep.Sweeper
	scheduler *sweep.Scheduler
}

// newApplication wires stores, services and the sweep. The scheduler is
// created but not started.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		started: time.Now(),
	}

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	denylist, err := app.newDenylist(ctx)
	if err != nil {
		return nil, err
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth, denylist)
	if err != nil {
		app.closeExternal()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes,
		"refresh_token_lifetime_minutes", cfg.Auth.RefreshTokenLifetimeMinutes)

	app.userService = service.NewUserService(app.userStore, auth.NewBcryptVerifier(), logger)
	app.taskService = service.NewTaskService(app.taskStore, db, logger)

	if err := app.setupSweep(); err != nil {
		app.closeExternal()
		return nil, err
	}

	logger.Info("application initialized")
	return app, nil
}

// newDenylist connects to Redis when configured and falls back to the
// in-process denylist otherwise.
func (app *application) newDenylist(ctx context.Context) (auth.TokenDenylist, error) {
	if app.config.Redis.URL == "" {
		app.logger.Info("using in-memory refresh token denylist")
		return auth.NewMemoryDenylist(), nil
	}

	dl, err := redis.NewDenylist(ctx, app.config.Redis.URL, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.closers = append(app.closers, dl)
	app.logger.Info("using redis refresh token denylist")
	return dl, nil
}

// setupSweep builds the notification pipeline. Without email credentials
// the sweep stays disabled.
func (app *application) setupSweep() error {
	cfg := app.config
	if !cfg.Email.Enabled() {
		app.logger.Warn("email is not configured; due-task sweep disabled")
		return nil
	}

	transport, err := email.NewSMTPTransport(cfg.Email, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email transport: %w", err)
	}

	retrier := sweep.NewRetrier(sweep.NewSender(transport), cfg.Sweep.MaxRetries, cfg.Sweep.BaseDelay(), app.logger)
	app.sweeper = sweep.NewSweeper(app.db, app.taskStore, retrier, sweep.Options{
		DeleteAfterNotify: cfg.Sweep.DeleteAfterNotify,
		Lookback:          cfg.Sweep.Lookback(),
	}, app.logger)

	app.scheduler, err = sweep.NewScheduler(app.sweeper, cfg.Sweep.Schedule, cfg.Sweep.RunOnStartup, app.logger)
	if err != nil {
		return err
	}

	app.logger.Info("due-task sweep configured",
		"schedule", cfg.Sweep.Schedule,
		"delete_after_notify", cfg.Sweep.DeleteAfterNotify,
		"max_retries", cfg.Sweep.MaxRetries,
		"run_on_startup", cfg.Sweep.RunOnStartup)
	return nil
}

// Run starts the scheduler and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if app.scheduler != nil {
		app.scheduler.Start()
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the scheduler, waiting for an in-flight sweep, then closes
// external connections.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	app.closeExternal()

	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}

// closeExternal closes every connection opened by newApplication. The
// database belongs to the caller.
func (app *application) closeExternal() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error("error closing resource", "error", err)
		}
	}
	app.closers = nil
}
