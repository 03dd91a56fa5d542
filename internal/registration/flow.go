// Package registration runs the two-step name and age dialogue that fills in
// a user's profile.
package registration

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/metrics"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"
	"github.com/m3rciful/demobot/core/telegram/keyboard"
	"github.com/m3rciful/demobot/core/telegram/state"
	"github.com/m3rciful/demobot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// Conversation steps.
const (
	StateAwaitingName state.State = "registration.awaiting_name"
	StateAwaitingAge  state.State = "registration.awaiting_age"
)

// CallbackAction is the callback action handled by Flow.CancelCallback.
const CallbackAction = "registration"

const (
	keyFullName = "full_name"
	keyFlowID   = "flow_id"
)

// ErrNotNumber is returned by ParseAge for input that is not an integer.
var ErrNotNumber = errors.New("registration: age is not a number")

// User-facing texts.
const (
	MsgAskName       = "📝 Let's get you registered!\n\nWhat is your full name?"
	MsgAskAge        = "How old are you?"
	MsgNotNumber     = "❌ Please enter a number."
	MsgUnrealistic   = "❌ Please enter a realistic age (from 1 to 120)."
	MsgCancelled     = "❌ Registration cancelled."
	MsgNothingCancel = "ℹ️ There is nothing to cancel."
)

// Flow wires the registration steps into a state manager.
type Flow struct {
	states   state.Manager
	store    users.Store
	mainMenu *tele.ReplyMarkup
	metrics  *metrics.Collectors
}

// New builds the flow and registers its step handlers on states. mainMenu is
// attached to the completion and cancellation messages.
func New(states state.Manager, store users.Store, mainMenu *tele.ReplyMarkup, col *metrics.Collectors) *Flow {
	f := &Flow{states: states, store: store, mainMenu: mainMenu, metrics: col}
	states.Register(StateAwaitingName, f.HandleName)
	states.Register(StateAwaitingAge, f.HandleAge)
	return f
}

func cancelMarkup() *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(CallbackAction)
}

// ParseAge parses text as an age in [users.MinAge, users.MaxAge].
func ParseAge(text string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, ErrNotNumber
	}
	if err := users.ValidateAge(age); err != nil {
		return 0, err
	}
	return age, nil
}

// Start enters the flow. Calling it mid-flow discards the draft and restarts.
func (f *Flow) Start(c tele.Context) error {
	userID := tghelpers.SenderID(c)
	restarted := f.states.Clear(userID)
	flowID := uuid.NewString()
	f.states.SetState(userID, StateAwaitingName)
	f.states.SetTemp(userID, keyFlowID, flowID)

	f.log(c, "registration.start", slog.Bool("restarted", restarted))
	f.metrics.IncEvent("registration.started")
	return tghelpers.SendText(c, MsgAskName, cancelMarkup())
}

// HandleName stores the raw text as the draft full name and asks for the age.
func (f *Flow) HandleName(c tele.Context) error {
	userID := tghelpers.SenderID(c)
	name := c.Text()
	f.states.SetTemp(userID, keyFullName, name)
	f.states.SetState(userID, StateAwaitingAge)

	f.log(c, "registration.step", slog.String("state", string(StateAwaitingAge)))
	return tghelpers.SendText(c, fmt.Sprintf("Nice to meet you, %s!\n\n%s", name, MsgAskAge), cancelMarkup())
}

// HandleAge validates the age and commits the profile. Invalid input keeps
// the user on this step.
func (f *Flow) HandleAge(c tele.Context) error {
	userID := tghelpers.SenderID(c)
	age, err := ParseAge(c.Text())
	if err != nil {
		msg := MsgNotNumber
		if errors.Is(err, users.ErrInvalidAge) {
			msg = MsgUnrealistic
		}
		f.log(c, "registration.step",
			slog.String("state", string(StateAwaitingAge)),
			slog.String("outcome", "rejected"),
			slog.String("reason", err.Error()),
		)
		return tghelpers.SendText(c, msg+"\n\n"+MsgAskAge, cancelMarkup())
	}

	name, _ := f.states.GetTempString(userID, keyFullName)
	ctx := tghelpers.BuildContext(c)
	if _, _, err := f.store.EnsureUser(ctx, profileFrom(c.Sender())); err != nil {
		return fmt.Errorf("registration: ensure user: %w", err)
	}
	if err := f.store.SaveRegistration(ctx, userID, name, age); err != nil {
		return fmt.Errorf("registration: commit: %w", err)
	}

	f.log(c, "registration.complete", slog.String("status", "ok"))
	f.states.Clear(userID)
	f.metrics.IncEvent("registration.completed")

	summary := fmt.Sprintf("✅ Registration complete!\n\n📋 Name: %s\n🎂 Age: %d\n\nUse /profile to view your profile.", name, age)
	return tghelpers.SendText(c, summary, f.mainMenu)
}

// Cancel leaves the flow, discarding the draft.
func (f *Flow) Cancel(c tele.Context) error {
	userID := tghelpers.SenderID(c)
	f.log(c, "registration.cancel")
	if !f.states.Clear(userID) {
		return tghelpers.SendText(c, MsgNothingCancel, f.mainMenu)
	}
	f.metrics.IncEvent("registration.cancelled")
	return tghelpers.SendText(c, MsgCancelled, f.mainMenu)
}

// CancelCallback handles the inline cancel button.
func (f *Flow) CancelCallback(c tele.Context) error {
	return f.Cancel(c)
}

// Active reports whether userID is mid-registration.
func (f *Flow) Active(userID int64) bool {
	st := f.states.GetState(userID)
	return st == StateAwaitingName || st == StateAwaitingAge
}

func (f *Flow) log(c tele.Context, event string, attrs ...slog.Attr) {
	if flowID, ok := f.states.GetTempString(tghelpers.SenderID(c), keyFlowID); ok {
		attrs = append(attrs, slog.String("flow_id", flowID))
	}
	logger.Info(tghelpers.BuildContext(c), logger.CompFlow, event, attrs...)
}

func profileFrom(u *tele.User) users.Profile {
	if u == nil {
		return users.Profile{}
	}
	return users.Profile{
		ID:        u.ID,
		Username:  users.OptionalString(u.Username),
		FirstName: u.FirstName,
	}
}
