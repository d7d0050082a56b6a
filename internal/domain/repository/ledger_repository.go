package repository

import (
	"context"

	"rssdigest/internal/domain/entity"
)

// LedgerRepository persists the set of delivered links.
//
// Load never fails: a missing or unreadable ledger yields an empty set.
type LedgerRepository interface {
	Load(ctx context.Context) *entity.SeenLinkSet
	Save(ctx context.Context, set *entity.SeenLinkSet) error
}
