// Package message turns a digest into Telegram-sized, MarkdownV2-escaped chunks.
package message

import (
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ReservedMarkdownV2 lists the characters Telegram requires to be escaped in
// MarkdownV2 text. A literal backslash must be escaped as well, or the API
// rejects the message.
const ReservedMarkdownV2 = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 prefixes every reserved character with a backslash.
// It must be applied exactly once, after all text has been concatenated.
func EscapeMarkdownV2(text string) string {
	// tgbotapi leaves backslashes alone, so they go first.
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, strings.ReplaceAll(text, `\`, `\\`))
}

func isReserved(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune(ReservedMarkdownV2, r)
}

// escapedWidth is the number of runes r occupies after escaping.
func escapedWidth(r rune) int {
	if isReserved(r) {
		return 2
	}
	return 1
}

func unitWidth(rune) int { return 1 }

// EscapedLen returns the rune length of EscapeMarkdownV2(text) without building it.
func EscapedLen(text string) int {
	n := 0
	for _, r := range text {
		n += escapedWidth(r)
	}
	return n
}
