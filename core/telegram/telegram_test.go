package telegram

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/demobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryKeepsCommandOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"/start", "/help", "/profile"} {
		if err := reg.RegisterCommand(name, commands.Command{Handler: noop, Description: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	if err := reg.RegisterCommand("/secret", commands.Command{Handler: noop, Description: "x", Hidden: true}); err != nil {
		t.Fatal(err)
	}

	list := reg.ListCommands(true)
	got := make([]string, 0, len(list))
	for _, c := range list {
		got = append(got, c.Text)
	}
	if strings.Join(got, ",") != "start,help,profile" {
		t.Fatalf("ListCommands = %v", got)
	}
	if len(reg.Commands()) != 4 {
		t.Fatalf("Commands = %d", len(reg.Commands()))
	}
	if _, ok := reg.LookupCommand("help"); !ok {
		t.Fatal("LookupCommand without slash failed")
	}
}

func TestRegistryRejectsInvalidAndDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "d"}); err == nil {
		t.Fatal("expected error for missing slash")
	}
	if err := reg.RegisterCommand("/start", commands.Command{Description: "d"}); err == nil {
		t.Fatal("expected error for nil handler")
	}
	_ = reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "d"})
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "d"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := reg.RegisterCallback("menu", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("menu", noop); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, ok := reg.GetCallback("menu"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "menu" {
		t.Fatalf("ListCallbacks = %v", got)
	}
}

type fakeSetter struct {
	got []any
	err error
}

func (f *fakeSetter) SetCommands(opts ...any) error {
	f.got = opts
	return f.err
}

func TestSetupCommands(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	_ = reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel", Hidden: true})

	setter := &fakeSetter{}
	if err := SetupCommands(context.Background(), setter, reg); err != nil {
		t.Fatal(err)
	}
	list, ok := setter.got[0].([]tele.Command)
	if !ok || len(list) != 1 || list[0].Text != "start" {
		t.Fatalf("SetCommands got %#v", setter.got)
	}

	setter.err = errors.New("boom")
	if err := SetupCommands(context.Background(), setter, reg); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildPollerDefaults(t *testing.T) {
	p := BuildPoller(PollerOptions{})
	if p.Timeout != 10*time.Second {
		t.Fatalf("timeout = %v", p.Timeout)
	}
	if len(p.AllowedUpdates) != len(AllUpdateTypes) {
		t.Fatalf("allowed updates = %v", p.AllowedUpdates)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

type flakyTransport struct{ failures, calls int }

func (f *flakyTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, timeoutErr{}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

func TestRetryTransportRetriesTimeouts(t *testing.T) {
	base := &flakyTransport{failures: 2}
	rt := &retryTransport{base: base, maxRetries: 3}
	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 3 {
		t.Fatalf("calls = %d", base.calls)
	}

	base = &flakyTransport{failures: 10}
	rt = &retryTransport{base: base, maxRetries: 1}
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error after retries")
	}
	if base.calls != 2 {
		t.Fatalf("calls = %d", base.calls)
	}
}

func TestRetryTransportDoesNotRepostBody(t *testing.T) {
	base := &flakyTransport{failures: 10}
	rt := &retryTransport{base: base, maxRetries: 2}
	req, _ := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage",
		strings.NewReader(`{"chat_id":1,"text":"hi"}`))
	if req.GetBody == nil {
		t.Fatal("expected GetBody on buffered request")
	}

	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected timeout error")
	}
	if base.calls != 1 {
		t.Fatalf("sendMessage posted %d times", base.calls)
	}
}
