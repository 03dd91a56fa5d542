// Package bot holds the demo bot's command, callback and text handlers.
package bot

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/m3rciful/demobot/core/buildinfo"
	"github.com/m3rciful/demobot/core/metrics"
	tg "github.com/m3rciful/demobot/core/telegram"
	"github.com/m3rciful/demobot/core/telegram/commands"
	"github.com/m3rciful/demobot/core/telegram/state"
	"github.com/m3rciful/demobot/internal/game"
	"github.com/m3rciful/demobot/internal/registration"
	"github.com/m3rciful/demobot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// PollSender delivers a poll and returns the sent message.
type PollSender func(c tele.Context, poll *tele.Poll) (*tele.Message, error)

// Options configures Handlers. Only Store and States are required.
type Options struct {
	Store   users.Store
	States  state.Manager
	Metrics *metrics.Collectors

	Version string
	Started time.Time

	SendPoll PollSender
	// Random returns an integer in [lo, hi].
	Random func(lo, hi int) int
	// Pick chooses the bot's move.
	Pick func() game.Choice
	Now  func() time.Time
}

// Handlers implements the bot's behaviour on top of the user store and the
// registration flow.
type Handlers struct {
	store   users.Store
	states  state.Manager
	flow    *registration.Flow
	metrics *metrics.Collectors

	version string
	started time.Time

	sendPoll PollSender
	random   func(lo, hi int) int
	pick     func() game.Choice
	now      func() time.Time

	menu map[string]tele.HandlerFunc
}

// New builds Handlers and registers the registration flow on opts.States.
func New(opts Options) *Handlers {
	h := &Handlers{
		store:    opts.Store,
		states:   opts.States,
		metrics:  opts.Metrics,
		version:  opts.Version,
		started:  opts.Started,
		sendPoll: opts.SendPoll,
		random:   opts.Random,
		pick:     opts.Pick,
		now:      opts.Now,
	}
	if h.version == "" {
		h.version = buildinfo.Version
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.started.IsZero() {
		h.started = h.now()
	}
	if h.sendPoll == nil {
		h.sendPoll = botPollSender
	}
	if h.random == nil {
		h.random = randomInt
	}
	if h.pick == nil {
		h.pick = game.RandomChoice
	}
	h.flow = registration.New(opts.States, opts.Store, MainMenu(), opts.Metrics)
	h.menu = map[string]tele.HandlerFunc{
		normalizeLabel(LabelStats):    h.Statistics,
		normalizeLabel(LabelAbout):    h.About,
		normalizeLabel(LabelGame):     h.Game,
		normalizeLabel(LabelSettings): h.Settings,
	}
	return h
}

// Flow returns the registration flow.
func (h *Handlers) Flow() *registration.Flow { return h.flow }

// Register adds commands, callback actions and the text fallback to reg.
// Command order is the order of the bot's command menu.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.Start, Description: "Start working with the bot"}},
		{"/help", commands.Command{Handler: h.Help, Description: "Show the command list"}},
		{"/profile", commands.Command{Handler: h.Profile, Description: "Show your profile"}},
		{"/settings", commands.Command{Handler: h.Settings, Description: "Bot settings"}},
		{"/random", commands.Command{Handler: h.Random, Description: "Random number: /random [min] [max]"}},
		{"/poll", commands.Command{Handler: h.Poll, Description: "Create a poll"}},
		{"/echo", commands.Command{Handler: h.Echo, Description: "Repeat your text"}},
		{"/register", commands.Command{Handler: h.flow.Start, Description: "Register your profile"}},
		{"/cancel", commands.Command{Handler: h.flow.Cancel, Description: "Cancel the current operation"}},
	}

	var errs []error
	for _, c := range cmds {
		errs = append(errs, reg.RegisterCommand(c.name, c.cmd))
	}
	errs = append(errs,
		reg.RegisterCallback(registration.CallbackAction, h.flow.CancelCallback),
		reg.RegisterCallback(ActionSettings, h.SettingsCallback),
		reg.RegisterCallback(ActionMenu, h.MenuCallback),
		reg.RegisterCallback(ActionGame, h.GameCallback),
	)
	reg.SetTextFallback(h.Text)
	return errors.Join(errs...)
}

func botPollSender(c tele.Context, poll *tele.Poll) (*tele.Message, error) {
	return c.Bot().Send(c.Recipient(), poll)
}

// randomInt returns a uniform integer in [lo, hi]; lo must not exceed hi.
func randomInt(lo, hi int) int {
	n := uint64(hi-lo) + 1
	if n == 0 {
		return int(rand.Uint64())
	}
	return lo + int(rand.Uint64N(n))
}
