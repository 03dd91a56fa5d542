package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/metrics"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/core/telegram/teletest"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tele "gopkg.in/telebot.v4"
)

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(teletest.NewMessage(&tele.User{ID: 1}, "hi"))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestRecoverMiddlewarePassesThrough(t *testing.T) {
	want := errors.New("plain")
	h := RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(teletest.NewMessage(&tele.User{ID: 1}, "hi")); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	prev := otel.GetTracerProvider()
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	c := teletest.NewMessage(&tele.User{ID: 77}, "/start")
	var seen bool
	h := LoggerMiddleware(func(c tele.Context) error {
		ctx, ok := tghelpers.ContextFrom(c)
		if !ok {
			t.Fatal("context not stored")
		}
		seen = true
		if logger.RIDFrom(ctx) == "" || logger.UserIDFrom(ctx) != 77 {
			t.Fatalf("missing rid/user in context")
		}
		if logger.TraceIDFrom(ctx) == "" {
			t.Fatal("missing trace id")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Fatal("next not called")
	}
	if rid, _ := c.Get(tghelpers.RIDKey).(string); rid == "" {
		t.Fatal("rid not set on tele context")
	}
}

func TestMetricsMiddlewareCountsMessages(t *testing.T) {
	col := metrics.New()
	c := teletest.NewMessage(&tele.User{ID: 5}, "/help")

	h := Metrics(col)(func(c tele.Context) error {
		if CollectorsFrom(c) != col {
			t.Fatal("collectors not exposed")
		}
		if err := c.Send("one"); err != nil {
			return err
		}
		return c.Send("two", &tele.ReplyMarkup{})
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}

	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d, %v", msgs, kb)
	}
	rec := httptest.NewRecorder()
	metrics.Router(col).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`demobot_updates_total{kind="command"} 1`,
		`demobot_messages_total{action="send"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %s", want)
		}
	}
}

func TestUpdateKind(t *testing.T) {
	cases := map[string]tele.Update{
		"command":  {Message: &tele.Message{Text: "/start"}},
		"text":     {Message: &tele.Message{Text: "hello"}},
		"message":  {Message: &tele.Message{}},
		"callback": {Callback: &tele.Callback{}},
		"other":    {},
	}
	for want, upd := range cases {
		if got := UpdateKind(upd); got != want {
			t.Errorf("UpdateKind = %q, want %q", got, want)
		}
	}
}
