// Package bootstrap brings up the infrastructure a bot needs before it can
// take updates: logging, tracing and the database.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/demobot/core/config"
	coredatabase "github.com/m3rciful/demobot/core/database"
	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/tracing"
)

const readyTimeout = 30 * time.Second

// Options control the generic bootstrap pipeline.
type Options struct {
	Config     *coreconfig.Config
	Database   coredatabase.Config
	Migrations fs.FS

	LoggerInit  func(*coreconfig.Config) error
	TracingInit func(context.Context, coreconfig.TracingConfig) (func(context.Context) error, error)
	Connect     func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate     func(context.Context, coredatabase.Config, fs.FS) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil for the memory driver.
type Result struct {
	DB *sqlx.DB

	shutdownTracing func(context.Context) error
}

// Close releases the database and flushes pending spans.
func (r *Result) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.shutdownTracing != nil {
		errs = append(errs, r.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}

// Run initializes the logger and tracing, connects to the database and
// applies migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	tracingInit := opts.TracingInit
	if tracingInit == nil {
		tracingInit = tracing.Setup
	}
	shutdownTracing, err := tracingInit(ctx, opts.Config.Tracing)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: tracing init failed: %w", err)
	}
	res := &Result{shutdownTracing: shutdownTracing}

	dbCfg := opts.Database
	if err := dbCfg.Normalize(); err != nil {
		_ = res.Close(ctx)
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if dbCfg.Driver == coredatabase.DriverMemory {
		return res, nil
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, dbCfg)
	if err != nil {
		_ = res.Close(ctx)
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res.DB = db

	if dbCfg.Driver == coredatabase.DriverPostgres {
		if err := coredatabase.WaitForReady(ctx, db, readyTimeout); err != nil {
			_ = res.Close(ctx)
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, dbCfg, opts.Migrations); err != nil {
		_ = res.Close(ctx)
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return res, nil
}
