// Package router turns the registry into telebot routes.
package router

import (
	"log/slog"
	"strings"
	"time"

	tg "github.com/m3rciful/demobot/core/telegram"
	"github.com/m3rciful/demobot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes returns one route per registered command, in registration order.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	entries := reg.Commands()
	routes := make([]tg.Route, 0, len(entries))
	for _, nc := range entries {
		name, h := nc.Name, nc.Handler
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, normalizeHandlerName(name), func() error { return h(c) })
			},
		})
	}
	return routes
}

// CallbackRoute answers every callback query and dispatches it by action.
// Unknown actions are acknowledged and otherwise ignored.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		p := callbacks.FromContext(c)
		name := "callback." + normalizeHandlerName(p.Action)
		extras := []slog.Attr{slog.String("cb_action", p.Action)}
		if p.Arg != "" {
			extras = append(extras, slog.String("cb_arg", p.Arg))
		}

		cbHandler, ok := reg.GetCallback(p.Action)
		if !ok {
			extras = append(extras, slog.String("reason", "not_found"))
			logHandlerSummary(c, name, time.Now(), "skip", nil, extras...)
			return nil
		}
		return handleWithSummary(c, name, func() error { return cbHandler(c) }, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}

// FSM is the part of the conversation manager the text route needs.
type FSM interface {
	InProgress(userID int64) bool
	Handle(c tele.Context) error
}

// TextRoute sends text to the active conversation step, or to the registry's
// text fallback. Unknown slash commands are dropped.
func TextRoute(fsm FSM, reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if strings.HasPrefix(c.Text(), "/") {
			logHandlerSummary(c, "unknown_command", time.Now(), "skip", nil)
			return nil
		}

		if fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", func() error { return fsm.Handle(c) })
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", func() error { return fb(c) })
			}
		}
		logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}
	return tg.Route{Endpoint: tele.OnText, Handler: handler}
}
