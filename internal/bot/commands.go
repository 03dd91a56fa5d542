package bot

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/format"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/internal/users"

	tele "gopkg.in/telebot.v4"
)

const (
	notSet         = "not set"
	timeLayout     = "2006-01-02 15:04:05"
	defaultRandMin = 1
	defaultRandMax = 100
)

const helpText = `📚 *Available commands:*

🔹 /start - Start working with the bot
🔹 /help - Show this message
🔹 /profile - Your profile
🔹 /settings - Bot settings
🔹 /random \[min] \[max] - Random number
🔹 /poll - Create a poll
🔹 /register - Register your profile
🔹 /echo \[text] - Repeat your text
🔹 /cancel - Cancel the current operation

*💡 Also:*
• Send any text and I will answer
• Use the keyboard for quick access
• Press inline buttons for actions`

const (
	msgProfileNotFound = "❌ Profile not found. Use /start to begin."
	msgRandomUsage     = "❌ Invalid command format.\nUse: /random [min] [max]\nExample: /random 1 10"
	msgEchoUsage       = "📝 Send some text after /echo\nExample: /echo Hello, world!"
	msgSettings        = "⚙️ *Bot settings*\n\nChoose a setting to change:"
)

// Poll contents sent by /poll.
var (
	PollQuestion = "📊 How do you like this bot?"
	PollOptions  = []string{"Excellent! 🎉", "Good 👍", "Okay 😐", "Bad 👎"}
)

// ErrRandomArgs is returned by ParseRange for non-integer arguments.
var ErrRandomArgs = errors.New("bot: invalid /random arguments")

// Start records the user on first contact and shows the main keyboard.
func (h *Handlers) Start(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	_, created, err := h.store.EnsureUser(ctx, users.Profile{
		ID:           u.ID,
		Username:     users.OptionalString(u.Username),
		FirstName:    u.FirstName,
		RegisteredAt: h.now(),
	})
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if created {
		h.metrics.IncEvent("user.created")
		logger.Info(ctx, logger.CompStore, "user.created", slog.String("status", "ok"))
	}

	welcome := fmt.Sprintf("👋 Hi, %s!\n\n"+
		"I am a multi-purpose bot. Here is what I can do:\n\n"+
		"📝 /help - All commands\n"+
		"⚙️ /settings - Settings\n"+
		"👤 /profile - Your profile\n"+
		"🎲 /random - Random number\n"+
		"📊 /poll - Create a poll\n"+
		"💬 /register - Registration dialogue\n"+
		"🔄 /echo - Echo mode\n\n"+
		"Pick an action from the menu below:", u.FirstName)
	return tghelpers.SendText(c, welcome, MainMenu())
}

// Help lists the commands.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendMD(c, helpText)
}

// Profile shows what the store knows about the sender.
func (h *Handlers) Profile(c tele.Context) error {
	userID := tghelpers.SenderID(c)
	p, err := h.store.Get(tghelpers.BuildContext(c), userID)
	if errors.Is(err, users.ErrNotFound) {
		return tghelpers.SendText(c, msgProfileNotFound)
	}
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return tghelpers.SendMD(c, RenderProfile(p))
}

// RenderProfile formats p as legacy Markdown with user data escaped.
func RenderProfile(p users.Profile) string {
	username := notSet
	if u := format.Deref(p.Username, ""); u != "" {
		username = "@" + u
	}
	var b strings.Builder
	b.WriteString("👤 *Your profile:*\n\n")
	fmt.Fprintf(&b, "🆔 ID: `%d`\n", p.ID)
	fmt.Fprintf(&b, "👤 Username: %s\n", format.MD(username))
	fmt.Fprintf(&b, "📝 Name: %s\n", format.MD(cmp.Or(p.FirstName, notSet)))
	fmt.Fprintf(&b, "📅 Registered: %s\n", p.RegisteredAt.Format(timeLayout))
	fmt.Fprintf(&b, "📋 Full name: %s\n", format.MD(format.OrPlaceholder(p.FullName, notSet)))
	fmt.Fprintf(&b, "🎂 Age: %s", format.OrPlaceholder(p.Age, notSet))
	return b.String()
}

// Settings shows the settings keyboard.
func (h *Handlers) Settings(c tele.Context) error {
	return tghelpers.SendMD(c, msgSettings, SettingsMenu())
}

// ParseRange reads the optional /random bounds. No argument or more than
// two yields [1, 100], one argument n yields [1, n], and two arguments are
// swapped when given in descending order.
func ParseRange(args []string) (lo, hi int, err error) {
	lo, hi = defaultRandMin, defaultRandMax
	switch len(args) {
	case 1:
		if hi, err = strconv.Atoi(args[0]); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrRandomArgs, args[0])
		}
	case 2:
		if lo, err = strconv.Atoi(args[0]); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrRandomArgs, args[0])
		}
		if hi, err = strconv.Atoi(args[1]); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrRandomArgs, args[1])
		}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, nil
}

// Random replies with a random integer in the requested range.
func (h *Handlers) Random(c tele.Context) error {
	lo, hi, err := ParseRange(c.Args())
	if err != nil {
		return tghelpers.SendText(c, msgRandomUsage)
	}
	n := h.random(lo, hi)
	return tghelpers.SendMD(c, fmt.Sprintf("🎲 Random number from %d to %d:\n\n*%d*", lo, hi, n))
}

// Echo repeats the command arguments.
func (h *Handlers) Echo(c tele.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return tghelpers.SendText(c, msgEchoUsage)
	}
	return tghelpers.SendText(c, "🔄 "+strings.Join(args, " "))
}

// Poll sends the feedback poll and records it.
func (h *Handlers) Poll(c tele.Context) error {
	poll := &tele.Poll{
		Type:            tele.PollRegular,
		Question:        PollQuestion,
		Anonymous:       false,
		MultipleAnswers: false,
	}
	for _, opt := range PollOptions {
		poll.Options = append(poll.Options, tele.PollOption{Text: opt})
	}

	ctx := tghelpers.BuildContext(c)
	msg, err := h.sendPoll(c, poll)
	if err != nil {
		return fmt.Errorf("poll: send: %w", err)
	}
	h.metrics.IncMessage("send_poll")
	if msg == nil || msg.Poll == nil {
		logger.Warn(ctx, logger.CompTG, "poll.sent", slog.String("status", "skip"), slog.String("reason", "no_poll_in_reply"))
		return nil
	}

	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	rec := users.PollRecord{
		PollID:    msg.Poll.ID,
		Question:  PollQuestion,
		Options:   append([]string(nil), PollOptions...),
		MessageID: msg.ID,
		ChatID:    chatID,
		CreatedAt: h.now(),
	}
	if err := h.store.SavePoll(ctx, rec); err != nil {
		return fmt.Errorf("poll: record: %w", err)
	}
	logger.Info(ctx, logger.CompTG, "poll.sent",
		slog.String("status", "ok"),
		slog.String("poll_id", rec.PollID),
		slog.Int("message_id", rec.MessageID),
	)
	return nil
}
