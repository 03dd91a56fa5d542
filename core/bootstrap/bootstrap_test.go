package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/demobot/core/config"
	coredatabase "github.com/m3rciful/demobot/core/database"
	"github.com/m3rciful/demobot/migrations"
)

func noLogger(*coreconfig.Config) error { return nil }

func noTracing(context.Context, coreconfig.TracingConfig) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

func TestRunMemorySkipsDatabase(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Config:      &coreconfig.Config{},
		Database:    coredatabase.Config{Driver: coredatabase.DriverMemory},
		LoggerInit:  noLogger,
		TracingInit: noTracing,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not be called")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.DB != nil {
		t.Fatal("memory driver must not open a DB")
	}
	if err := res.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestRunSQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.db")
	res, err := Run(context.Background(), Options{
		Config:      &coreconfig.Config{},
		Database:    coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: path},
		Migrations:  migrations.FS,
		LoggerInit:  noLogger,
		TracingInit: noTracing,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close(context.Background())

	var n int
	if err := res.DB.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		t.Fatalf("users table missing: %v", err)
	}
}

func TestRunMigrationFailureClosesDB(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), Options{
		Config:      &coreconfig.Config{},
		Database:    coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "b.db")},
		LoggerInit:  noLogger,
		TracingInit: noTracing,
		Migrate:     func(context.Context, coredatabase.Config, fs.FS) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
