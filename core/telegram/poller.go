package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollSeconds = 10

// AllUpdateTypes lists every update type the poller asks Telegram for.
// Telegram omits chat_member and reaction updates unless they are named.
var AllUpdateTypes = []string{
	"message",
	"edited_message",
	"channel_post",
	"edited_channel_post",
	"inline_query",
	"chosen_inline_result",
	"callback_query",
	"shipping_query",
	"pre_checkout_query",
	"poll",
	"poll_answer",
	"my_chat_member",
	"chat_member",
	"chat_join_request",
	"message_reaction",
	"message_reaction_count",
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	LongPollTimeoutSeconds int
	AllowedUpdates         []string
}

// BuildPoller returns the long poller used to receive updates.
func BuildPoller(opts PollerOptions) *tele.LongPoller {
	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = defaultLongPollSeconds
	}
	allowed := opts.AllowedUpdates
	if len(allowed) == 0 {
		allowed = AllUpdateTypes
	}
	return &tele.LongPoller{
		Timeout:        time.Duration(timeoutSec) * time.Second,
		AllowedUpdates: allowed,
	}
}
