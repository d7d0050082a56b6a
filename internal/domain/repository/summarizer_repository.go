package repository

import "context"

// SummarizerRepository turns article text into a summary.
type SummarizerRepository interface {
	// Summarize returns a summary of content. title gives the model context and
	// may be empty when several articles are summarized together.
	Summarize(ctx context.Context, content, title string) (string, error)

	IsEnabled() bool
}
