package repository

import "context"

// MessageRepository sends one already escaped MarkdownV2 message.
type MessageRepository interface {
	Send(ctx context.Context, chatTarget, text string) error
}
