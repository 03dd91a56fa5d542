package bot

import (
	"strings"

	"github.com/m3rciful/demobot/core/telegram/keyboard"
	"github.com/m3rciful/demobot/internal/game"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels.
const (
	LabelStats    = "📊 Statistics"
	LabelAbout    = "ℹ️ About"
	LabelGame     = "🎮 Game"
	LabelSettings = "⚙️ Settings"
)

// Callback actions.
const (
	ActionSettings = "settings"
	ActionMenu     = "menu"
	ActionGame     = "game"
	ActionRate     = "rate"
)

// Settings items in keyboard order.
const (
	SettingNotifications = "notifications"
	SettingLanguage      = "language"
	SettingTheme         = "theme"
	SettingTimezone      = "timezone"
	SettingPrivacy       = "privacy"
)

var choiceLabels = map[game.Choice]string{
	game.Rock:     "Rock",
	game.Paper:    "Paper",
	game.Scissors: "Scissors",
}

// MainMenu is the persistent reply keyboard shown after /start.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{LabelStats, LabelAbout},
		[]string{LabelGame, LabelSettings},
	)
}

// InlineMenu is the main menu reached through the settings back button.
func InlineMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "📱 Channel", URL: "https://t.me/channel"},
			{Text: "💬 Group", URL: "https://t.me/group"},
		},
		[]keyboard.InlineBtn{{Text: "📝 Contact the developer", URL: "https://t.me/username"}},
		[]keyboard.InlineBtn{{Text: "⭐ Rate the bot", Unique: ActionRate, Data: "bot"}},
	)
}

// SettingsMenu lists the placeholder settings.
func SettingsMenu() *tele.ReplyMarkup {
	item := func(text, name string) keyboard.InlineBtn {
		return keyboard.InlineBtn{Text: text, Unique: ActionSettings, Data: name}
	}
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{item("🔔 Notifications", SettingNotifications), item("🌐 Language", SettingLanguage)},
		[]keyboard.InlineBtn{item("🎨 Theme", SettingTheme), item("⏰ Timezone", SettingTimezone)},
		[]keyboard.InlineBtn{item("🔐 Privacy", SettingPrivacy)},
		[]keyboard.InlineBtn{{Text: "◀️ Back", Unique: ActionMenu, Data: "back"}},
	)
}

// GameMenu offers one button per move.
func GameMenu() *tele.ReplyMarkup {
	row := make([]keyboard.InlineBtn, 0, len(game.Choices))
	for _, ch := range game.Choices {
		row = append(row, keyboard.InlineBtn{
			Text:   ch.Emoji() + " " + choiceLabels[ch],
			Unique: ActionGame,
			Data:   string(ch),
		})
	}
	return keyboard.InlineButtonsRows(row)
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
