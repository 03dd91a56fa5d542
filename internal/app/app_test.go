package app

import (
	"context"
	"io"
	"net/http"
	"testing"

	coreconfig "github.com/m3rciful/demobot/core/config"
	"github.com/m3rciful/demobot/core/database"
	tg "github.com/m3rciful/demobot/core/telegram"
	"github.com/m3rciful/demobot/internal/users"

	tele "gopkg.in/telebot.v4"
)

func memoryConfig() *Config {
	cfg := &Config{Storage: database.Config{Driver: database.DriverMemory}}
	cfg.Telegram.Token = "123:test"
	cfg.Stats.Schedule = "@every 1h"
	return cfg
}

func TestNewBuildsRunOptions(t *testing.T) {
	a, err := New(memoryConfig(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.store.(*users.MemoryStore); !ok {
		t.Fatalf("store = %T, want memory", a.store)
	}

	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.Routes) != 11 {
		t.Fatalf("routes = %d", len(opts.Routes))
	}
	if opts.Routes[0].Endpoint != "/start" {
		t.Errorf("first route = %v", opts.Routes[0].Endpoint)
	}
	if opts.Routes[9].Endpoint != tele.OnCallback || opts.Routes[10].Endpoint != tele.OnText {
		t.Errorf("catch-all routes out of order: %v %v", opts.Routes[9].Endpoint, opts.Routes[10].Endpoint)
	}
	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	if len(names) != 3 || names[0] != "logger" || names[2] != "recover" {
		t.Errorf("middlewares = %v", names)
	}
	if opts.OnError == nil || opts.OnStart == nil || opts.OnStop == nil {
		t.Error("hooks not set")
	}
}

func TestLifecycleStartsMetricsServer(t *testing.T) {
	cfg := memoryConfig()
	cfg.Metrics.Listen = "127.0.0.1:0"
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := a.onStart(ctx, tg.Runtime{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + a.metricsServer.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("healthz = %q", body)
	}

	if err := a.onStop(ctx, tg.Runtime{}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := a.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type otherCarrier struct{}

func (otherCarrier) CoreConfig() *coreconfig.Config { return &coreconfig.Config{} }

func TestBootstrapRejectsForeignConfig(t *testing.T) {
	if _, err := Bootstrap(context.Background(), otherCarrier{}); err == nil {
		t.Fatal("expected type error")
	}
}
