package repository

import (
	"context"
	"errors"
)

// ErrContentTooShort is returned by a ContentFetcher when the page has too
// little text to be worth summarizing.
var ErrContentTooShort = errors.New("article content too short")

// ContentFetcher downloads a page and returns its readable text.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}
