package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/demobot/core/config"
	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/metrics"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	tgsender "github.com/m3rciful/demobot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	Metrics  *metrics.Collectors

	Middlewares []Middleware
	Routes      []Route

	// OnError receives handler errors, including recovered panics.
	OnError func(err error, c tele.Context)

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	poller := BuildPoller(PollerOptions{LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds})
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		URL:    cfg.Telegram.APIURL,
		Poller: poller,
		Client: BuildHTTPClient(poller.Timeout),
	}
	if opts.OnError != nil {
		settings.OnError = opts.OnError
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.Info(ctx, logger.CompTG, "mode",
		slog.String("mode", "polling"),
		slog.String("bot", bot.Me.Username),
		slog.Int("timeout_seconds", int(poller.Timeout/time.Second)),
		slog.Int("allowed_updates", len(poller.AllowedUpdates)),
		slog.Duration("duration", logger.Took(buildStart)),
	)

	if err := bot.RemoveWebhook(cfg.Telegram.DropPendingUpdates); err != nil {
		logger.Warn(ctx, logger.CompTG, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", tgsender.SanitizeError(err)),
		)
	} else {
		logger.Info(ctx, logger.CompTG, "delete_webhook",
			slog.String("status", "ok"),
			slog.Bool("drop_pending", cfg.Telegram.DropPendingUpdates),
		)
	}

	var dispatcher *tgsender.Dispatcher
	if !cfg.Sender.Disabled {
		col := opts.Metrics
		dispatcher = tgsender.NewDispatcher(tgsender.Options{
			Workers:      cfg.Sender.Workers,
			QueueSize:    cfg.Sender.QueueSize,
			MaxRetries:   cfg.Sender.MaxRetries,
			RetryBackoff: time.Duration(cfg.Sender.RetryBackoffMS) * time.Millisecond,
			OnResult: func(_ string, err error) {
				if err != nil {
					col.IncSendFailure(tgsender.ClassifyError(err))
				}
			},
		})
		tghelpers.SetErrorHandler(opts.OnError)
		tghelpers.SetDispatcher(dispatcher)
	}
	closeDispatcher := func() {
		if dispatcher == nil {
			return
		}
		tghelpers.SetDispatcher(nil)
		dispatcher.Close()
		tghelpers.SetErrorHandler(nil)
		logger.Info(ctx, logger.CompSender, "sender.closed",
			slog.String("status", "ok"),
			slog.Uint64("failed_jobs", dispatcher.ErrorCount()),
		)
	}

	rt := Runtime{
		Bot:        bot,
		Dispatcher: dispatcher,
		Registry:   reg,
	}

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}
	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	_ = SetupCommands(ctx, bot, reg)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			closeDispatcher()
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()
	logger.Info(ctx, logger.CompTG, "bot.started", slog.String("status", "ok"))

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	closeDispatcher()
	logger.Info(ctx, logger.CompTG, "bot.stopped", slog.String("status", "ok"))

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
