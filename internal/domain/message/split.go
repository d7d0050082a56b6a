package message

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrInvalidLimit  = errors.New("split limit must be positive")
	ErrLimitTooSmall = errors.New("split limit is smaller than a single character")
)

// Split cuts text into pieces of at most limit runes, preferring the last
// newline inside each window. The newline at a soft cut is dropped and leading
// whitespace of the following piece is trimmed. Text that already fits,
// including the empty string, is returned unchanged as a single piece.
func Split(text string, limit int) ([]string, error) {
	return SplitFunc(text, limit, unitWidth)
}

// SplitFunc is Split with a caller supplied per-rune width, so the bound can
// be applied to a transformed form of the text (for example its escaped length).
func SplitFunc(text string, limit int, width func(rune) int) ([]string, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var chunks []string
	rest := text
	for {
		cut, lastNewline, used := -1, -1, 0
		for i, r := range rest {
			w := width(r)
			if used+w > limit {
				cut = i
				break
			}
			used += w
			if r == '\n' && i > 0 {
				lastNewline = i
			}
		}

		if cut < 0 {
			return append(chunks, rest), nil
		}
		if cut == 0 {
			return nil, ErrLimitTooSmall
		}

		if lastNewline > 0 {
			chunks = append(chunks, rest[:lastNewline])
			rest = rest[lastNewline+1:]
		} else {
			chunks = append(chunks, rest[:cut])
			rest = rest[cut:]
		}

		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			return chunks, nil
		}
	}
}
