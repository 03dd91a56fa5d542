package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRouterExposesCollectors(t *testing.T) {
	c := New()
	c.IncUpdate("message")
	c.IncMessage("sendMessage")
	c.IncEvent("registration.completed")
	c.ObserveHandler("start", "ok", 15*time.Millisecond)
	c.SetSnapshot(3, 1)

	srv := httptest.NewServer(Router(c))
	defer srv.Close()

	body := get(t, srv.URL+"/metrics")
	for _, want := range []string{
		`demobot_updates_total{kind="message"} 1`,
		`demobot_messages_total{action="sendMessage"} 1`,
		`demobot_events_total{event="registration.completed"} 1`,
		`demobot_handler_duration_seconds_count{handler="start",status="ok"} 1`,
		`demobot_users 3`,
		`demobot_active_conversations 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}

	if got := get(t, srv.URL+"/healthz"); got != "ok" {
		t.Fatalf("healthz = %q", got)
	}
}

func TestNilCollectorsAreNoop(t *testing.T) {
	var c *Collectors
	c.IncUpdate("message")
	c.ObserveHandler("x", "ok", time.Second)
	c.SetSnapshot(1, 1)
	if c.Registry() != nil {
		t.Fatal("nil collectors should have no registry")
	}
}

func TestServerStartShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:0", New())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := get(t, "http://"+s.Addr()+"/healthz"); got != "ok" {
		t.Fatalf("healthz = %q", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	return string(data)
}
