package storage

import (
	"context"
	"sync"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/domain/repository"
)

type memoryLedger struct {
	mu    sync.RWMutex
	links []string
}

// NewMemoryLedgerRepository keeps the ledger in process memory only.
func NewMemoryLedgerRepository(links ...string) repository.LedgerRepository {
	return &memoryLedger{links: entity.NewSeenLinkSet(links...).Links()}
}

func (l *memoryLedger) Load(ctx context.Context) *entity.SeenLinkSet {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return entity.NewSeenLinkSet(l.links...)
}

func (l *memoryLedger) Save(ctx context.Context, set *entity.SeenLinkSet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.links = set.Links()
	return nil
}

func (l *memoryLedger) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.links), nil
}
