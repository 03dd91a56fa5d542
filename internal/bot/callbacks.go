package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/callbacks"
	"github.com/m3rciful/demobot/core/telegram/format"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/internal/game"

	tele "gopkg.in/telebot.v4"
)

const msgMainMenu = "📋 Main menu"

var outcomeText = map[game.Outcome]string{
	game.Draw: "🤝 Draw!",
	game.Win:  "🎉 You win!",
	game.Lose: "😔 You lose!",
}

// SettingTitle turns a settings item like "time_zone" into "Time Zone".
func SettingTitle(item string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(item, "_", " "))
}

// SettingsCallback acknowledges the chosen setting.
func (h *Handlers) SettingsCallback(c tele.Context) error {
	item := callbacks.FromContext(c).Arg
	if item == "" {
		return nil
	}
	text := fmt.Sprintf("⚙️ You selected: *%s*\n\nℹ️ A real bot would let you change this setting here.", format.MD(SettingTitle(item)))
	return tghelpers.EditMD(c, text)
}

// MenuCallback turns the message back into the inline main menu.
func (h *Handlers) MenuCallback(c tele.Context) error {
	if callbacks.FromContext(c).Arg != "back" {
		return nil
	}
	return tghelpers.EditMD(c, msgMainMenu, InlineMenu())
}

// GameCallback plays one rock-paper-scissors round.
func (h *Handlers) GameCallback(c tele.Context) error {
	arg := callbacks.FromContext(c).Arg
	player, err := game.ParseChoice(arg)
	if err != nil {
		logger.Debug(tghelpers.BuildContext(c), logger.CompTG, "game.skip", slog.String("choice", arg))
		return nil
	}
	botChoice := h.pick()
	outcome := game.Resolve(player, botChoice)
	h.metrics.IncEvent("game.played")

	text := fmt.Sprintf("🎮 *Game result:*\n\nYour choice: %s\nMy choice: %s\n\n%s",
		player.Emoji(), botChoice.Emoji(), outcomeText[outcome])
	return tghelpers.EditMD(c, text)
}
