package helpers

import (
	"errors"
	"testing"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/sender"
	"github.com/m3rciful/demobot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func TestSendSynchronousWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	c := teletest.NewMessage(&tele.User{ID: 5}, "hi")
	kb := &tele.ReplyMarkup{ResizeKeyboard: true}

	if err := SendMD(c, "*bold*", kb); err != nil {
		t.Fatalf("SendMD: %v", err)
	}
	out, ok := c.Last()
	if !ok {
		t.Fatal("nothing sent")
	}
	if out.Text() != "*bold*" || out.ParseMode() != tele.ModeMarkdown || out.Markup() != kb {
		t.Fatalf("unexpected outbound %+v", out)
	}
}

func TestSendThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	c := teletest.NewMessage(&tele.User{ID: 9}, "hi")
	for _, text := range []string{"one", "two", "three"} {
		if err := SendText(c, text); err != nil {
			t.Fatalf("SendText: %v", err)
		}
	}
	d.Close()

	sent := c.Sent()
	if len(sent) != 3 {
		t.Fatalf("sent %d messages", len(sent))
	}
	for i, want := range []string{"one", "two", "three"} {
		if sent[i].Text() != want {
			t.Fatalf("message %d = %q, want %q", i, sent[i].Text(), want)
		}
	}
}

func TestDispatcherFailureReachesErrorHandler(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	type failure struct {
		err error
		c   tele.Context
	}
	failures := make(chan failure, 4)
	SetErrorHandler(func(err error, c tele.Context) { failures <- failure{err, c} })
	defer SetErrorHandler(nil)

	blocked := errors.New("telegram: bot was blocked by the user (403)")
	c := teletest.NewMessage(&tele.User{ID: 11}, "/help")
	c.SendErr = blocked
	if err := SendText(c, "help text"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	d.Close()

	select {
	case f := <-failures:
		if !errors.Is(f.err, blocked) {
			t.Fatalf("err = %v", f.err)
		}
		if f.c != c {
			t.Fatal("handler got a different context")
		}
	default:
		t.Fatal("error handler not called")
	}
	if len(failures) != 0 {
		t.Fatalf("handler called %d extra times", len(failures))
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("failed jobs = %d", d.ErrorCount())
	}
}

func TestBuildContextCarriesUpdateMeta(t *testing.T) {
	c := teletest.NewMessage(&tele.User{ID: 42}, "/start")
	ctx := WithHandler(c, "/start")

	if logger.UserIDFrom(ctx) != 42 || logger.ChatIDFrom(ctx) != 42 {
		t.Fatalf("user/chat ids not propagated")
	}
	if logger.HandlerFrom(ctx) != "/start" {
		t.Fatalf("handler = %q", logger.HandlerFrom(ctx))
	}
	if logger.RIDFrom(ctx) == "" {
		t.Fatal("rid missing")
	}
	if again := BuildContext(c); logger.HandlerFrom(again) != "/start" {
		t.Fatal("stored context not reused")
	}
}
