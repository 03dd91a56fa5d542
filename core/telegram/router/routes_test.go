package router

import (
	"errors"
	"testing"

	tg "github.com/m3rciful/demobot/core/telegram"
	"github.com/m3rciful/demobot/core/telegram/callbacks"
	"github.com/m3rciful/demobot/core/telegram/commands"
	"github.com/m3rciful/demobot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

var user = &tele.User{ID: 21, FirstName: "Ann"}

func TestCommandRoutesKeepOrderAndErrors(t *testing.T) {
	reg := tg.NewRegistry()
	boom := errors.New("boom")
	_ = reg.RegisterCommand("/start", commands.Command{Handler: func(tele.Context) error { return nil }, Description: "s"})
	_ = reg.RegisterCommand("/fail", commands.Command{Handler: func(tele.Context) error { return boom }, Description: "f"})

	routes := CommandRoutes(reg)
	if len(routes) != 2 || routes[0].Endpoint != "/start" || routes[1].Endpoint != "/fail" {
		t.Fatalf("routes = %+v", routes)
	}
	if err := routes[1].Handler(teletest.NewMessage(user, "/fail")); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestCallbackRouteDispatchesByAction(t *testing.T) {
	reg := tg.NewRegistry()
	var got string
	_ = reg.RegisterCallback("game", func(c tele.Context) error {
		got = callbacks.FromContext(c).Arg
		return nil
	})
	route := CallbackRoute(reg)

	raw := callbacks.Payload{Action: "game", Arg: "rock"}.Encode()
	c := teletest.NewCallback(user, "", raw)
	if err := route.Handler(c); err != nil {
		t.Fatal(err)
	}
	if got != "rock" {
		t.Fatalf("arg = %q", got)
	}
	if len(c.Responses()) != 1 {
		t.Fatalf("callback not answered")
	}
}

func TestCallbackRouteIgnoresUnknownAction(t *testing.T) {
	route := CallbackRoute(tg.NewRegistry())
	c := teletest.NewCallback(user, "", "\frate")
	if err := route.Handler(c); err != nil {
		t.Fatal(err)
	}
	if len(c.Responses()) != 1 || len(c.Sent()) != 0 {
		t.Fatalf("responses=%d sent=%d", len(c.Responses()), len(c.Sent()))
	}
}

type fakeFSM struct {
	active  bool
	handled int
}

func (f *fakeFSM) InProgress(int64) bool { return f.active }
func (f *fakeFSM) Handle(tele.Context) error {
	f.handled++
	return nil
}

func TestTextRoute(t *testing.T) {
	reg := tg.NewRegistry()
	fallbacks := 0
	reg.SetTextFallback(func(tele.Context) error { fallbacks++; return nil })
	fsm := &fakeFSM{}
	route := TextRoute(fsm, reg)

	_ = route.Handler(teletest.NewMessage(user, "hello"))
	if fallbacks != 1 || fsm.handled != 0 {
		t.Fatalf("idle text: fallbacks=%d handled=%d", fallbacks, fsm.handled)
	}

	fsm.active = true
	_ = route.Handler(teletest.NewMessage(user, "Ann Smith"))
	if fsm.handled != 1 || fallbacks != 1 {
		t.Fatalf("active text: fallbacks=%d handled=%d", fallbacks, fsm.handled)
	}

	_ = route.Handler(teletest.NewMessage(user, "/unknown"))
	if fsm.handled != 1 || fallbacks != 1 {
		t.Fatal("unknown command must be dropped")
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	for in, want := range map[string]string{"/Start": "start", "": "unknown", "two words": "two_words"} {
		if got := normalizeHandlerName(in); got != want {
			t.Errorf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
