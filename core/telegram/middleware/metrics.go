package middleware

import (
	"github.com/m3rciful/demobot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const (
	collectorsKey = "metrics_collectors"
	messagesKey   = "messages"
	keyboardKey   = "kb"
)

// metricsContext wraps tele.Context to count sent messages and detect keyboard usage.
type metricsContext struct {
	tele.Context
	col *metrics.Collectors
}

func (m metricsContext) incMessages(action string, hasKB bool) {
	n, _ := m.Get(messagesKey).(int)
	m.Set(messagesKey, n+1)
	if hasKB {
		m.Set(keyboardKey, true)
	}
	m.col.IncMessage(action)
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.incMessages("send", hasKeyboard(opts))
	}
	return err
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.incMessages("send", hasKeyboard(opts))
	}
	return err
}

// Edit proxies tele.Context.Edit while updating message counters.
func (m metricsContext) Edit(what any, opts ...any) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		m.incMessages("edit", hasKeyboard(opts))
	}
	return err
}

// EditOrSend proxies tele.Context.EditOrSend while updating message counters.
func (m metricsContext) EditOrSend(what any, opts ...any) error {
	err := m.Context.EditOrSend(what, opts...)
	if err == nil {
		m.incMessages("edit_or_send", hasKeyboard(opts))
	}
	return err
}

// Metrics counts the update, exposes the collectors to routers and wraps the
// context so outbound messages are counted.
func Metrics(col *metrics.Collectors) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			col.IncUpdate(UpdateKind(c.Update()))
			c.Set(collectorsKey, col)
			c.Set(messagesKey, 0)
			c.Set(keyboardKey, false)
			return next(metricsContext{Context: c, col: col})
		}
	}
}

// CollectorsFrom returns the collectors stored by Metrics, or nil.
func CollectorsFrom(c tele.Context) *metrics.Collectors {
	col, _ := c.Get(collectorsKey).(*metrics.Collectors)
	return col
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return msgs, kb
}
