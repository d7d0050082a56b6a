package storage

import (
	"context"
	"testing"

	"rssdigest/internal/domain/entity"
)

func TestMemoryLedger_RoundTrip(t *testing.T) {
	ledger := NewMemoryLedgerRepository("https://example.tld/seed")
	ctx := context.Background()

	set := ledger.Load(ctx)
	if !set.Contains("https://example.tld/seed") {
		t.Fatal("expected seeded link")
	}

	set.Add("https://example.tld/new")
	if err := ledger.Save(ctx, set); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded := ledger.Load(ctx)
	if loaded.Len() != 2 {
		t.Errorf("expected 2 links, got %d", loaded.Len())
	}
}

func TestMemoryLedger_LoadReturnsCopy(t *testing.T) {
	ledger := NewMemoryLedgerRepository()
	ctx := context.Background()

	set := ledger.Load(ctx)
	set.Add("https://example.tld/unsaved")

	if ledger.Load(ctx).Contains("https://example.tld/unsaved") {
		t.Error("expected unsaved mutation not to leak into the ledger")
	}
}

func TestMemoryLedger_SaveEmpty(t *testing.T) {
	ledger := NewMemoryLedgerRepository("https://example.tld/a")
	ctx := context.Background()

	if err := ledger.Save(ctx, entity.NewSeenLinkSet()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ledger.Load(ctx).Len() != 0 {
		t.Error("expected empty ledger after saving an empty set")
	}
}
