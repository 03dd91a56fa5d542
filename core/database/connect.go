package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/demobot/core/logger"
)

const sqliteBusyTimeoutMS = 5000

// Connect opens the configured SQL database, configures the pool and verifies
// connectivity. It must not be called for the memory driver.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	log := logger.Component(logger.CompDB)

	var (
		driverName, dsn string
		attrs           []slog.Attr
	)
	switch cfg.Driver {
	case DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
			}
		}
		driverName, dsn = "sqlite", cfg.Path
		attrs = []slog.Attr{slog.String("db", cfg.Path)}
	case DriverPostgres:
		driverName, dsn = "postgres", cfg.postgresDSN()
		attrs = []slog.Attr{
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
		}
	default:
		return nil, fmt.Errorf("db connect: driver %q has no SQL backend", cfg.Driver)
	}
	attrs = append(attrs, slog.String("driver", cfg.Driver))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	took := logger.Took(start)
	if err != nil {
		logger.LogEvent(ctx, log, slog.LevelError, "db.connect",
			append(attrs, slog.String("status", "fail"), slog.Duration("duration", took), slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			fmt.Sprintf("PRAGMA busy_timeout=%d", sqliteBusyTimeoutMS),
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
			}
		}
	} else {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}

	logger.LogEvent(ctx, log, slog.LevelInfo, "db.connect",
		append(attrs, slog.String("status", "ok"), slog.Duration("duration", took))...)
	return db, nil
}

// WaitForReady pings the database until it answers or timeout elapses.
func WaitForReady(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-ticker.C:
		}
	}
}
