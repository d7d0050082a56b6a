package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpenLedger_Backends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend   string
		path      string
		canPrune  bool
		wantError bool
	}{
		{"", filepath.Join(dir, "a.json"), false, false},
		{"json", filepath.Join(dir, "b.json"), false, false},
		{"SQLite", filepath.Join(dir, "c.db"), true, false},
		{"memory", "", false, false},
		{"redis", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			ledger, err := OpenLedger(tt.backend, tt.path, zerolog.Nop())
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "unknown ledger backend") {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer CloseLedger(ledger)

			if _, ok := ledger.(Counter); !ok {
				t.Error("expected backend to implement Counter")
			}
			if _, ok := ledger.(Pruner); ok != tt.canPrune {
				t.Errorf("expected Pruner=%v, got %v", tt.canPrune, ok)
			}
		})
	}
}
