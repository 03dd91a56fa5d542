package users

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	coredatabase "github.com/m3rciful/demobot/core/database"
	"github.com/m3rciful/demobot/migrations"
)

func sqliteStore(t *testing.T) Store {
	t.Helper()
	ctx := context.Background()
	cfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "users.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatal(err)
	}
	db, err := coredatabase.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := coredatabase.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Open(db)
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, Open(nil)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, sqliteStore(t)) })
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		registered := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		p := Profile{ID: 1, Username: OptionalString("ann"), FirstName: "Ann", RegisteredAt: registered}

		stored, created, err := s.EnsureUser(ctx, p)
		if err != nil || !created {
			t.Fatalf("first EnsureUser: created=%v err=%v", created, err)
		}
		if stored.FirstName != "Ann" || stored.Username == nil || *stored.Username != "ann" {
			t.Fatalf("stored = %+v", stored)
		}
		if !stored.RegisteredAt.Equal(registered) {
			t.Fatalf("registered_at = %v", stored.RegisteredAt)
		}

		_, created, err = s.EnsureUser(ctx, Profile{ID: 1, FirstName: "Other"})
		if err != nil || created {
			t.Fatalf("second EnsureUser: created=%v err=%v", created, err)
		}
		got, _ := s.Get(ctx, 1)
		if got.FirstName != "Ann" {
			t.Fatal("existing profile must not be overwritten")
		}
		if n, _ := s.Count(ctx); n != 1 {
			t.Fatalf("Count = %d", n)
		}
	})
}

func TestGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		if _, err := s.Get(context.Background(), 404); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSaveRegistration(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.SaveRegistration(ctx, 2, "Alex", 30); !errors.Is(err, ErrNotFound) {
			t.Fatalf("missing profile: err = %v", err)
		}
		_, _, _ = s.EnsureUser(ctx, Profile{ID: 2, FirstName: "Alex"})

		for _, age := range []int{0, 121} {
			if err := s.SaveRegistration(ctx, 2, "Alex", age); !errors.Is(err, ErrInvalidAge) {
				t.Fatalf("age %d: err = %v", age, err)
			}
		}
		if err := s.SaveRegistration(ctx, 2, "Alex", 30); err != nil {
			t.Fatal(err)
		}
		p, _ := s.Get(ctx, 2)
		if p.FullName == nil || *p.FullName != "Alex" || p.Age == nil || *p.Age != 30 {
			t.Fatalf("profile = %+v", p)
		}
		if p.Username != nil {
			t.Fatal("username should stay unset")
		}
	})
}

func TestSavePoll(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		err := s.SavePoll(context.Background(), PollRecord{
			PollID:    "p1",
			Question:  "q",
			Options:   []string{"a", "b"},
			MessageID: 3,
			ChatID:    4,
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _, _ = s.EnsureUser(ctx, Profile{ID: 5, FirstName: "Bo"})
	_ = s.SaveRegistration(ctx, 5, "Bo B", 40)

	p, _ := s.Get(ctx, 5)
	*p.Age = 99
	again, _ := s.Get(ctx, 5)
	if *again.Age != 40 {
		t.Fatal("stored profile mutated through returned copy")
	}
}

func TestMemoryStoreConcurrentEnsure(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, _ := s.EnsureUser(context.Background(), Profile{ID: 9, FirstName: "X"})
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("created %d times", created)
	}
}
