package llm

import (
	"context"

	"rssdigest/internal/domain/repository"
)

// noopSummarizer reports itself disabled; callers fall back to article excerpts.
type noopSummarizer struct{}

func newNoopSummarizer() repository.SummarizerRepository {
	return noopSummarizer{}
}

func (noopSummarizer) Summarize(context.Context, string, string) (string, error) {
	return "", nil
}

func (noopSummarizer) IsEnabled() bool { return false }
