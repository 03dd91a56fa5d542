package state

import tele "gopkg.in/telebot.v4"

// State identifies a conversation step.
type State string

// StateIdle means there is no active conversation with the user.
const StateIdle State = "idle"

// Session stores conversation state and temporary data for a user.
type Session struct {
	State    State
	TempData map[string]any
}

// Manager orchestrates user sessions and state transitions.
type Manager interface {
	// Get returns a snapshot of the user's session; idle when none exists.
	Get(userID int64) Session
	SetState(userID int64, st State)
	GetState(userID int64) State
	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	GetTempString(userID int64, key string) (string, bool)
	// Clear drops the whole session, returning whether one was active.
	Clear(userID int64) bool

	InProgress(userID int64) bool
	Active() int

	// Register binds a handler to a state.
	Register(st State, h tele.HandlerFunc)
	// Handle runs the handler registered for the sender's current state.
	Handle(c tele.Context) error
}
