package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rssdigest/internal/domain/repository"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Counter is implemented by every ledger backend.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Pruner is implemented by backends that record when a link was first seen.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// OpenLedger builds the ledger backend by name. Callers should Close the
// result when it implements io.Closer.
func OpenLedger(backend, path string, logger zerolog.Logger) (repository.LedgerRepository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendJSON, "":
		return NewJSONLedgerRepository(path, logger), nil
	case BackendSQLite:
		ledger, err := NewSQLiteLedgerRepository(path, logger)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	case BackendMemory:
		return NewMemoryLedgerRepository(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", backend)
	}
}

// CloseLedger closes ledger if the backend holds resources.
func CloseLedger(ledger repository.LedgerRepository) error {
	if c, ok := ledger.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
