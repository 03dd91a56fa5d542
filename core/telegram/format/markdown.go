package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

var (
	mdV1Specials = regexp.MustCompile("[_*`\\[]")
	mdV2Specials = regexp.MustCompile("[" + regexp.QuoteMeta("_*[]()~`>#+=|{}.!\\") + "-]")
)

// EscapeMarkdown escapes user supplied text for the given Markdown version.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Specials.ReplaceAllString(text, `\${0}`), nil
	case MarkdownV2:
		return mdV2Specials.ReplaceAllString(text, `\${0}`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MD escapes text for legacy Markdown, the mode the bot's messages use.
func MD(text string) string {
	s, _ := EscapeMarkdown(text, MarkdownV1)
	return s
}
