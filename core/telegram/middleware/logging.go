package middleware

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/core/tracing"

	tele "gopkg.in/telebot.v4"
)

// UpdateStartKey stores the time the update entered the middleware chain.
const UpdateStartKey = "update_start"

// UpdateKind names the update type for logs and metric labels.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Text != "" && upd.Message.Text[0] == '/':
		return "command"
	case upd.Message != nil && upd.Message.Text != "":
		return "text"
	case upd.Message != nil:
		return "message"
	case upd.PollAnswer != nil:
		return "poll_answer"
	case upd.Poll != nil:
		return "poll"
	default:
		return "other"
	}
}

// LoggerMiddleware assigns the request id, opens the update span and logs a
// sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		var chatID, userID int64
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		kind := UpdateKind(upd)
		c.Set(tghelpers.RIDKey, rid)
		c.Set(UpdateStartKey, time.Now())

		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx, span := tracing.Start(ctx, "telegram.update",
			attribute.Int("telegram.update_id", upd.ID),
			attribute.String("telegram.update_kind", kind),
		)
		ctx = logger.WithLogger(ctx, logger.Component(logger.CompTG))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", kind),
			}
			if chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil && user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			switch {
			case upd.Callback != nil:
				p := callbacks.FromCallback(upd.Callback)
				attrs = append(attrs,
					slog.String("cb_action", logger.SanitizeLimit(p.Action, 128)),
					slog.String("payload", logger.SanitizeLimit(p.Arg, 256)),
				)
			case upd.Message != nil:
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(upd.Message.Text, 256)))
			}
			logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", attrs...)
		}

		err := next(c)
		tracing.End(span, err)
		return err
	}
}
