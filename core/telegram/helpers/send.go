package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var (
	globalDispatcher   atomic.Pointer[sender.Dispatcher]
	globalErrorHandler atomic.Pointer[ErrorHandler]
)

// ErrorHandler receives asynchronous send failures together with the update
// that produced them.
type ErrorHandler func(err error, c tele.Context)

// SetDispatcher wires the asynchronous sender used by helper functions.
// A nil dispatcher makes every helper send synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// SetErrorHandler installs the handler for failed asynchronous sends. Pass nil
// to only log them.
func SetErrorHandler(fn ErrorHandler) {
	if fn == nil {
		globalErrorHandler.Store(nil)
		return
	}
	globalErrorHandler.Store(&fn)
}

func reportFailure(c tele.Context) func(error) {
	return func(err error) {
		if err == nil {
			return
		}
		if fn := globalErrorHandler.Load(); fn != nil {
			(*fn)(err, c)
		}
	}
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.EnqueueWithResult(ctx, action, endpoint, run, reportFailure(c)); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, logger.CompSender, "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

func firstMarkup(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: firstMarkup(markup)}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: firstMarkup(markup)}
	return sendAsync(c, "send.md", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditMD edits the message behind a callback with Markdown parse mode.
func EditMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: firstMarkup(markup)}
	return sendAsync(c, "edit.md", "editMessageText", func() error {
		return c.Edit(text, opts)
	})
}

// EditOrSendMD edits the callback message, or sends a new one for plain messages.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: firstMarkup(markup)}
	return sendAsync(c, "edit_or_send.md", "editMessageText", func() error {
		return c.EditOrSend(text, opts)
	})
}
