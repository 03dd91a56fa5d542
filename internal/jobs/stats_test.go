package jobs

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m3rciful/demobot/core/metrics"
	"github.com/m3rciful/demobot/core/scheduler"
)

type fixedUsers struct {
	n   int
	err error
}

func (f fixedUsers) Count(context.Context) (int, error) { return f.n, f.err }

type fixedConvs int

func (f fixedConvs) Active() int { return int(f) }

var _ scheduler.Job = (*StatsSnapshot)(nil)

func TestStatsSnapshotPublishesGauges(t *testing.T) {
	col := metrics.New()
	job := NewStatsSnapshot("@every 1m", fixedUsers{n: 12}, fixedConvs(3), col)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	rec := httptest.NewRecorder()
	metrics.Router(col).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"demobot_users 12", "demobot_active_conversations 3"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestStatsSnapshotCountError(t *testing.T) {
	boom := errors.New("db down")
	job := NewStatsSnapshot("@every 1m", fixedUsers{err: boom}, nil, nil)
	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
