package state

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/m3rciful/demobot/core/logger"
	tghelpers "github.com/m3rciful/demobot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	handlersMu sync.RWMutex
	handlers   map[State]tele.HandlerFunc

	stepsMu sync.Mutex
	steps   map[int64]*stepLock
}

// stepLock serialises step handlers of one user; refs drops the entry once
// no step for that user is running or waiting.
type stepLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryManager constructs an in-memory Manager. Sessions live for the
// lifetime of the process.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
		steps:    make(map[int64]*stepLock),
	}
}

// session returns the user's session, creating it. Callers hold m.mu.
func (m *memoryManager) session(userID int64) *Session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{State: StateIdle, TempData: make(map[string]any)}
		m.sessions[userID] = s
	}
	return s
}

func (m *memoryManager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return Session{State: s.State, TempData: maps.Clone(s.TempData)}
	}
	return Session{State: StateIdle, TempData: map[string]any{}}
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == StateIdle {
		delete(m.sessions, userID)
		return
	}
	m.session(userID).State = st
}

func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.State
	}
	return StateIdle
}

func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).TempData[key] = value
}

func (m *memoryManager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	v, ok := s.TempData[key]
	return v, ok
}

func (m *memoryManager) GetTempString(userID int64, key string) (string, bool) {
	v, ok := m.GetTemp(userID, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *memoryManager) Clear(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	return ok && s.State != StateIdle
}

func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// Active counts users with a non-idle conversation.
func (m *memoryManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.State != StateIdle {
			n++
		}
	}
	return n
}

func (m *memoryManager) Register(st State, h tele.HandlerFunc) {
	if h == nil || st == StateIdle {
		return
	}
	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()
	m.handlers[st] = h
}

func (m *memoryManager) lockUser(userID int64) func() {
	m.stepsMu.Lock()
	l, ok := m.steps[userID]
	if !ok {
		l = &stepLock{}
		m.steps[userID] = l
	}
	l.refs++
	m.stepsMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.stepsMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(m.steps, userID)
		}
		m.stepsMu.Unlock()
	}
}

// Handle runs the step registered for the sender's state. Steps of one user
// never overlap; the state is read under the same lock.
func (m *memoryManager) Handle(c tele.Context) error {
	userID := tghelpers.SenderID(c)
	unlock := m.lockUser(userID)
	defer unlock()
	current := m.GetState(userID)

	m.handlersMu.RLock()
	handler, ok := m.handlers[current]
	m.handlersMu.RUnlock()

	ctx := tghelpers.BuildContext(c)
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompFlow, "fsm.dispatch",
			slog.String("state", string(current)),
			slog.Bool("handled", ok),
		)
	}
	if !ok {
		return nil
	}
	return handler(c)
}
