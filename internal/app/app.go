// Package app assembles the demo bot from the core building blocks.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/demobot/core/bootstrap"
	corecmd "github.com/m3rciful/demobot/core/cmd"
	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/metrics"
	"github.com/m3rciful/demobot/core/scheduler"
	tg "github.com/m3rciful/demobot/core/telegram"
	"github.com/m3rciful/demobot/core/telegram/router"
	"github.com/m3rciful/demobot/core/telegram/state"
	"github.com/m3rciful/demobot/internal/bot"
	"github.com/m3rciful/demobot/internal/jobs"
	"github.com/m3rciful/demobot/internal/users"
	"github.com/m3rciful/demobot/migrations"
)

// App owns the bot's long-lived components.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	store    users.Store
	states   state.Manager
	metrics  *metrics.Collectors
	registry *tg.Registry
	handlers *bot.Handlers

	scheduler     *scheduler.Scheduler
	metricsServer *metrics.Server
}

// Bootstrap brings up logging, tracing and storage and builds the App.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Storage,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, infra.DB)
	if err != nil {
		_ = infra.Close(ctx)
		return nil, err
	}
	a.infra = infra
	logger.Info(ctx, logger.CompApp, "storage.ready",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Storage.Driver),
	)
	return a, nil
}

// New wires handlers and routes on top of db, or on the memory store when
// db is nil.
func New(cfg *Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{
		cfg:       cfg,
		store:     users.Open(db),
		states:    state.NewMemoryManager(),
		metrics:   metrics.New(),
		registry:  tg.NewRegistry(),
		scheduler: scheduler.New(),
	}
	a.handlers = bot.New(bot.Options{
		Store:   a.store,
		States:  a.states,
		Metrics: a.metrics,
		Started: time.Now(),
	})
	if err := a.handlers.Register(a.registry); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	job := jobs.NewStatsSnapshot(cfg.Stats.Schedule, a.store, a.states, a.metrics)
	if err := a.scheduler.Register(job); err != nil {
		return nil, fmt.Errorf("app: register jobs: %w", err)
	}
	return a, nil
}

// TelegramRunOptions describes the routes, middlewares and hooks of the bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes,
		router.CallbackRoute(a.registry),
		router.TextRoute(a.states, a.registry),
	)
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Metrics:     a.metrics,
		Middlewares: tg.DefaultMiddlewares(a.metrics),
		Routes:      routes,
		OnError:     a.handlers.OnError,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	if listen := a.cfg.Metrics.Listen; listen != "" {
		srv := metrics.NewServer(listen, a.metrics)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		a.metricsServer = srv
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("app: start scheduler: %w", err)
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	a.scheduler.Stop()
	if a.metricsServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.metricsServer.Shutdown(shutdownCtx)
}

// Close releases storage and tracing.
func (a *App) Close(ctx context.Context) error {
	return a.infra.Close(ctx)
}
