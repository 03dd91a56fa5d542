// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Outbound is one recorded call made through the context.
type Outbound struct {
	Kind string
	What any
	Opts []any
}

// Text returns the outbound payload as a string, or "" for non-text payloads.
func (o Outbound) Text() string {
	s, _ := o.What.(string)
	return s
}

// Markup returns the reply markup attached to the call, if any.
func (o Outbound) Markup() *tele.ReplyMarkup {
	for _, opt := range o.Opts {
		switch v := opt.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}

// ParseMode returns the parse mode attached to the call, if any.
func (o Outbound) ParseMode() tele.ParseMode {
	for _, opt := range o.Opts {
		switch v := opt.(type) {
		case tele.ParseMode:
			return v
		case *tele.SendOptions:
			if v != nil {
				return v.ParseMode
			}
		}
	}
	return tele.ModeDefault
}

// Context implements the subset of tele.Context used by the bot. Methods
// outside that subset panic through the nil embedded interface.
type Context struct {
	tele.Context

	Upd     tele.Update
	SendErr error

	mu        sync.Mutex
	store     map[string]any
	sent      []Outbound
	responses []*tele.CallbackResponse
}

// NewMessage builds a context for a private text message from user.
func NewMessage(user *tele.User, text string) *Context {
	msg := &tele.Message{
		ID:     1,
		Sender: user,
		Chat:   &tele.Chat{ID: user.ID, Type: tele.ChatPrivate},
		Text:   text,
	}
	if strings.HasPrefix(text, "/") {
		if _, payload, ok := strings.Cut(text, " "); ok {
			msg.Payload = strings.TrimSpace(payload)
		}
	}
	return &Context{Upd: tele.Update{ID: 100, Message: msg}}
}

// NewCallback builds a context for an inline button press carrying unique and data.
func NewCallback(user *tele.User, unique, data string) *Context {
	msg := &tele.Message{
		ID:     7,
		Sender: &tele.User{ID: 1, IsBot: true},
		Chat:   &tele.Chat{ID: user.ID, Type: tele.ChatPrivate},
	}
	cb := &tele.Callback{
		ID:      "cb-1",
		Sender:  user,
		Message: msg,
		Unique:  unique,
		Data:    data,
	}
	return &Context{Upd: tele.Update{ID: 101, Callback: cb}}
}

func (c *Context) Update() tele.Update { return c.Upd }

func (c *Context) Message() *tele.Message {
	switch {
	case c.Upd.Message != nil:
		return c.Upd.Message
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.Upd.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.Upd.Callback != nil:
		return c.Upd.Callback.Sender
	case c.Upd.Message != nil:
		return c.Upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Recipient() tele.Recipient { return c.Chat() }

func (c *Context) Text() string {
	if m := c.Message(); m != nil {
		return m.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Data
	}
	if m := c.Message(); m != nil {
		return m.Payload
	}
	return ""
}

func (c *Context) Args() []string {
	if c.Upd.Callback != nil {
		return strings.Split(c.Upd.Callback.Data, "|")
	}
	if m := c.Message(); m != nil {
		return strings.Fields(m.Payload)
	}
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

func (c *Context) record(kind string, what any, opts []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.sent = append(c.sent, Outbound{Kind: kind, What: what, Opts: opts})
	return nil
}

func (c *Context) Send(what any, opts ...any) error  { return c.record("send", what, opts) }
func (c *Context) Reply(what any, opts ...any) error { return c.record("reply", what, opts) }
func (c *Context) Edit(what any, opts ...any) error  { return c.record("edit", what, opts) }

func (c *Context) EditOrSend(what any, opts ...any) error {
	if c.Upd.Callback != nil {
		return c.record("edit", what, opts)
	}
	return c.record("send", what, opts)
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.responses = append(c.responses, resp...)
	return nil
}

// Sent returns a copy of the recorded outbound calls.
func (c *Context) Sent() []Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Outbound(nil), c.sent...)
}

// Last returns the most recent outbound call.
func (c *Context) Last() (Outbound, bool) {
	sent := c.Sent()
	if len(sent) == 0 {
		return Outbound{}, false
	}
	return sent[len(sent)-1], true
}

// Responses returns the recorded callback answers.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}
