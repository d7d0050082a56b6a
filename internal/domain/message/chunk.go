package message

import (
	"fmt"
	"strconv"

	"rssdigest/internal/domain/entity"
)

// DefaultLimit keeps a margin under Telegram's 4096 character cap.
const DefaultLimit = 4000

func annotation(index, total int) string {
	return fmt.Sprintf("\n\n(Part %d/%d)", index, total)
}

// Chunk splits text so that every escaped body, annotation included, is at
// most limit runes. Multi-part digests get a "(Part i/n)" trailer which is
// escaped together with the body.
func Chunk(text string, limit int) ([]entity.MessageChunk, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	if EscapedLen(text) <= limit {
		return []entity.MessageChunk{{Index: 1, Total: 1, Body: EscapeMarkdownV2(text)}}, nil
	}

	digits := 1
	for {
		widest := maxWithDigits(digits)
		budget := limit - EscapedLen(annotation(widest, widest))
		if budget <= 0 {
			return nil, ErrLimitTooSmall
		}

		parts, err := SplitFunc(text, budget, escapedWidth)
		if err != nil {
			return nil, err
		}

		// The reserve assumed fewer digits than the real part count; retry wider.
		if d := len(strconv.Itoa(len(parts))); d > digits {
			digits = d
			continue
		}

		chunks := make([]entity.MessageChunk, 0, len(parts))
		for i, part := range parts {
			chunks = append(chunks, entity.MessageChunk{
				Index: i + 1,
				Total: len(parts),
				Body:  EscapeMarkdownV2(part + annotation(i+1, len(parts))),
			})
		}
		return chunks, nil
	}
}

func maxWithDigits(digits int) int {
	n := 9
	for i := 1; i < digits; i++ {
		n = n*10 + 9
	}
	return n
}
