package bot

import (
	"context"
	"log/slog"

	"github.com/m3rciful/demobot/core/logger"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/core/telegram/middleware"
	"github.com/m3rciful/demobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// MsgApology is sent when a handler fails.
const MsgApology = "❌ Something went wrong while processing your request. Please try again later."

// OnError logs a failed update and apologises to the user. c is nil for
// errors raised outside an update.
func (h *Handlers) OnError(err error, c tele.Context) {
	if err == nil {
		return
	}
	h.metrics.IncEvent("handler.error")
	if c == nil {
		logger.Error(context.Background(), logger.CompTG, "update.error",
			slog.String("status", "fail"),
			slog.String("err", sender.SanitizeError(err)),
		)
		return
	}

	ctx := tghelpers.BuildContext(c)
	logger.Error(ctx, logger.CompTG, "update.error",
		slog.String("status", "fail"),
		slog.String("kind", middleware.UpdateKind(c.Update())),
		slog.String("err", sender.SanitizeError(err)),
		slog.String("err_code", sender.ClassifyError(err)),
	)
	if c.Chat() == nil {
		return
	}
	// Sent directly: a queued apology that fails would come back here.
	if sendErr := c.Send(MsgApology); sendErr != nil {
		logger.Warn(ctx, logger.CompTG, "update.error.reply",
			slog.String("status", "fail"),
			slog.String("err", sender.SanitizeError(sendErr)),
		)
	}
}
