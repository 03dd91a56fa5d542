package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/format"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const msgGame = "🎮 Let's play Rock, Paper, Scissors!\nChoose your move:"

// Text routes reply keyboard labels to their handlers and echoes anything else.
func (h *Handlers) Text(c tele.Context) error {
	if fn, ok := h.menu[normalizeLabel(c.Text())]; ok {
		return fn(c)
	}
	return tghelpers.SendText(c, fmt.Sprintf("You wrote: %s\n\nUse /help to see the command list.", c.Text()))
}

// Statistics reports the user count and uptime.
func (h *Handlers) Statistics(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	total, err := h.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("statistics: %w", err)
	}
	uptime := h.now().Sub(h.started).Truncate(time.Second)
	logger.Debug(ctx, logger.CompStore, "stats.read", slog.Int("users", total))

	text := fmt.Sprintf("📊 *Bot statistics:*\n\n👥 Total users: %d\n📅 Started: %s\n⏱ Uptime: %s",
		total, h.started.Format(timeLayout), uptime)
	return tghelpers.SendMD(c, text)
}

// About describes the bot.
func (h *Handlers) About(c tele.Context) error {
	text := "🤖 *About*\n\n" +
		"A demonstration Telegram bot written in Go.\n" +
		"Built with telebot.\n\n" +
		"📚 Version: " + format.MD(h.version) + "\n" +
		"📝 License: MIT"
	return tghelpers.SendMD(c, text)
}

// Game offers the rock-paper-scissors buttons.
func (h *Handlers) Game(c tele.Context) error {
	return tghelpers.SendText(c, msgGame, GameMenu())
}
