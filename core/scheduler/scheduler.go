// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/demobot/core/logger"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	// Schedule is a five-field cron expression or a descriptor like "@every 15m".
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler executes registered jobs. A job never overlaps with itself: a
// tick that fires while the previous run is still busy is skipped.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	locks  map[string]*sync.Mutex
	cancel context.CancelFunc
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{locks: make(map[string]*sync.Mutex)}
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := j.Name()
	if _, exists := s.locks[name]; exists {
		return fmt.Errorf("scheduler: duplicate job name %q", name)
	}
	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start validates every schedule and begins executing jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))

	for _, job := range s.jobs {
		lock := s.locks[job.Name()]
		if _, err := c.AddFunc(job.Schedule(), func() { s.tick(runCtx, job, lock) }); err != nil {
			cancel()
			return fmt.Errorf("scheduler: invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron, s.cancel = c, cancel
	c.Start()
	logger.Info(ctx, logger.CompJobs, "scheduler.start",
		slog.String("status", "ok"),
		slog.Int("count", len(s.jobs)),
	)
	return nil
}

func (s *Scheduler) tick(ctx context.Context, job Job, lock *sync.Mutex) {
	attrs := []slog.Attr{slog.String("job", job.Name())}
	if !lock.TryLock() {
		logger.Warn(ctx, logger.CompJobs, "job.tick", append(attrs, slog.String("status", "skip"))...)
		return
	}
	defer lock.Unlock()

	start := time.Now()
	err := job.Run(ctx)
	attrs = append(attrs, slog.String("status", logger.Status(err)), slog.Duration("duration", logger.Took(start)))
	if err != nil {
		logger.Error(ctx, logger.CompJobs, "job.run", append(attrs, slog.String("err", err.Error()))...)
		return
	}
	logger.Debug(ctx, logger.CompJobs, "job.run", attrs...)
}

// Stop halts scheduling and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
		logger.Info(context.Background(), logger.CompJobs, "scheduler.stop", slog.String("status", "ok"))
	}
}
