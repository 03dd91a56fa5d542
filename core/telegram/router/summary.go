package router

import (
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/m3rciful/demobot/core/logger"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/core/telegram/middleware"
	tgsender "github.com/m3rciful/demobot/core/telegram/sender"
	"github.com/m3rciful/demobot/core/tracing"

	tele "gopkg.in/telebot.v4"
)

// handleWithSummary runs fn inside a handler span and logs one summary line.
func handleWithSummary(c tele.Context, handlerName string, fn func() error, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, handlerName)
	ctx, span := tracing.Start(ctx, "handler "+handlerName, attribute.String("telegram.handler", handlerName))
	tghelpers.StoreContext(c, ctx)

	err := fn()
	tracing.End(span, err)
	logHandlerSummary(c, handlerName, start, "", err, extras...)
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := statusOverride
	if status == "" {
		status = logger.Status(err)
	}
	took := logger.Took(start)
	middleware.CollectorsFrom(c).ObserveHandler(handlerName, status, took)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", took),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(tgsender.SanitizeError(err), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, nil, slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode labels transport failures by kind and everything else as
// a handler error.
func deriveErrorCode(err error) string {
	if code := tgsender.ClassifyError(err); code != "unknown" {
		return code
	}
	return "handler"
}
