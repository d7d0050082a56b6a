package repository

import (
	"context"

	"rssdigest/internal/domain/entity"
)

type FeedRepository interface {
	Fetch(ctx context.Context, source entity.Source) ([]*entity.FeedEntry, error)
}
