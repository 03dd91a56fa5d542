// Package callbacks encodes and decodes structured inline-button payloads.
//
// A payload is an action naming the handler plus an optional argument. On the
// wire it uses telebot's button encoding: "\f<action>|<arg>".
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// prefix marks data produced by tele.ReplyMarkup.Data.
const prefix = "\f"

// Payload is the decoded form of callback data.
type Payload struct {
	Action string
	Arg    string
}

// Encode renders p the way telebot encodes Data buttons.
func (p Payload) Encode() string {
	if p.Arg == "" {
		return prefix + p.Action
	}
	return prefix + p.Action + "|" + p.Arg
}

// Parse decodes raw callback data. Data without the telebot prefix is
// accepted as well so plain "action|arg" strings round-trip.
func Parse(data string) Payload {
	raw := strings.TrimPrefix(data, prefix)
	action, arg, _ := strings.Cut(raw, "|")
	return Payload{Action: strings.TrimSpace(action), Arg: arg}
}

// FromCallback decodes a callback, preferring the fields telebot already
// split when a unique handler matched.
func FromCallback(cb *tele.Callback) Payload {
	if cb == nil {
		return Payload{}
	}
	if cb.Unique != "" {
		return Payload{Action: cb.Unique, Arg: cb.Data}
	}
	return Parse(cb.Data)
}

// FromContext decodes the callback carried by c, if any.
func FromContext(c tele.Context) Payload {
	return FromCallback(c.Callback())
}
