package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"
)

type funcJob struct {
	name     string
	schedule string
	run      func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Schedule() string              { return j.schedule }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := New()
	job := funcJob{name: "stats", schedule: "@every 1m", run: func(context.Context) error { return nil }}
	if err := s.Register(job); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(job); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := New()
	_ = s.Register(funcJob{name: "bad", schedule: "every now and then", run: func(context.Context) error { return nil }})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestJobRuns(t *testing.T) {
	ran := make(chan struct{}, 4)
	s := New()
	_ = s.Register(funcJob{name: "tick", schedule: "@every 1s", run: func(context.Context) error {
		ran <- struct{}{}
		return nil
	}})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
