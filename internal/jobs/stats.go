// Package jobs holds the bot's scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/metrics"
)

// UserCounter reports the number of known users.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// ConversationCounter reports the number of active conversations.
type ConversationCounter interface {
	Active() int
}

// StatsSnapshot logs the user and conversation totals and publishes them as gauges.
type StatsSnapshot struct {
	schedule string
	users    UserCounter
	convs    ConversationCounter
	metrics  *metrics.Collectors
}

// NewStatsSnapshot builds the job. col may be nil.
func NewStatsSnapshot(schedule string, users UserCounter, convs ConversationCounter, col *metrics.Collectors) *StatsSnapshot {
	return &StatsSnapshot{schedule: schedule, users: users, convs: convs, metrics: col}
}

func (j *StatsSnapshot) Name() string     { return "stats_snapshot" }
func (j *StatsSnapshot) Schedule() string { return j.schedule }

func (j *StatsSnapshot) Run(ctx context.Context) error {
	total, err := j.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("stats snapshot: count users: %w", err)
	}
	active := 0
	if j.convs != nil {
		active = j.convs.Active()
	}
	j.metrics.SetSnapshot(total, active)
	logger.Info(ctx, logger.CompJobs, "stats.snapshot",
		slog.String("status", "ok"),
		slog.Int("users", total),
		slog.Int("conversations", active),
	)
	return nil
}
