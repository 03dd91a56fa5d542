package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/demobot/core/logger"
	"github.com/m3rciful/demobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// ErrDuplicate is returned when a command or callback action is registered twice.
var ErrDuplicate = errors.New("telegram: already registered")

// NamedCommand pairs a command with its "/name" key.
type NamedCommand struct {
	Name string
	commands.Command
}

// Registry holds bot commands in registration order and callback handlers
// keyed by action.
type Registry struct {
	order    []string
	commands map[string]commands.Command

	callbacksMu sync.RWMutex
	callbacks   map[string]tele.HandlerFunc

	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
	}
}

// RegisterCommand adds a command. Names must start with "/"; the first
// registration of a name wins.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.Warn(context.Background(), logger.CompTGWire, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return fmt.Errorf("telegram: invalid command %q", name)
	}
	if name[0] != '/' {
		logger.Warn(context.Background(), logger.CompTGWire, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return fmt.Errorf("telegram: command %q must start with /", name)
	}
	if _, exists := r.commands[name]; exists {
		logger.Warn(context.Background(), logger.CompTGWire, "register.command.duplicate",
			slog.String("name", name),
		)
		return fmt.Errorf("command %s: %w", name, ErrDuplicate)
	}
	r.commands[name] = cmd
	r.order = append(r.order, name)
	return nil
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []NamedCommand {
	out := make([]NamedCommand, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, NamedCommand{Name: name, Command: r.commands[name]})
	}
	return out
}

// ListCommands returns the menu entries in registration order, optionally
// leaving out hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.order))
	for _, nc := range r.Commands() {
		if visibleOnly && nc.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(nc.Name, "/"), Description: nc.Description})
	}
	return list
}

// LookupCommand finds a command by name, with or without the leading slash.
func (r *Registry) LookupCommand(name string) (commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// RegisterCallback maps a callback action to its handler.
func (r *Registry) RegisterCallback(action string, handler tele.HandlerFunc) error {
	if action == "" || handler == nil {
		logger.Warn(context.Background(), logger.CompTGWire, "register.callback.skip",
			slog.String("action", action),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("telegram: invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[action]; exists {
		logger.Warn(context.Background(), logger.CompTGWire, "register.callback.duplicate",
			slog.String("action", action),
		)
		return fmt.Errorf("callback %s: %w", action, ErrDuplicate)
	}
	r.callbacks[action] = handler
	return nil
}

// GetCallback returns the handler registered for action.
func (r *Registry) GetCallback(action string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[action]
	return h, ok
}

// ListCallbacks returns sorted actions (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetTextFallback sets the handler for text that no conversation consumed.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// CommandSetter is the part of tele.Bot that publishes the command menu.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// SetupCommands publishes the visible commands as the bot's command menu.
func SetupCommands(ctx context.Context, bot CommandSetter, reg *Registry) error {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, logger.CompTGWire, "register.commands",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("set commands: %w", err)
	}
	logger.Info(ctx, logger.CompTGWire, "register.commands",
		slog.String("status", "ok"),
		slog.Int("commands", len(list)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return nil
}
