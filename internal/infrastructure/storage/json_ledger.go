package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"rssdigest/internal/domain/entity"
	"rssdigest/internal/domain/repository"
)

type jsonLedger struct {
	path   string
	logger zerolog.Logger
}

// NewJSONLedgerRepository stores the ledger as a JSON array of links at path.
// A path ending in .txt is read and written as one link per line instead.
func NewJSONLedgerRepository(path string, logger zerolog.Logger) repository.LedgerRepository {
	return &jsonLedger{
		path:   path,
		logger: logger.With().Str("ledger", path).Logger(),
	}
}

func (l *jsonLedger) plainText() bool {
	return strings.EqualFold(filepath.Ext(l.path), ".txt")
}

func (l *jsonLedger) Load(ctx context.Context) *entity.SeenLinkSet {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Info().Msg("ledger not found, starting empty")
		return entity.NewSeenLinkSet()
	}
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to read ledger, starting empty")
		return entity.NewSeenLinkSet()
	}

	links, err := l.decode(data)
	if err != nil {
		l.logger.Warn().Err(err).Msg("malformed ledger, starting empty")
		return entity.NewSeenLinkSet()
	}

	set := entity.NewSeenLinkSet(links...)
	l.logger.Debug().Int("links", set.Len()).Msg("ledger loaded")
	return set
}

func (l *jsonLedger) decode(data []byte) ([]string, error) {
	if l.plainText() {
		var links []string
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				links = append(links, line)
			}
		}
		return links, sc.Err()
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	return links, nil
}

func (l *jsonLedger) encode(set *entity.SeenLinkSet) ([]byte, error) {
	links := set.Links()
	if l.plainText() {
		if len(links) == 0 {
			return nil, nil
		}
		return []byte(strings.Join(links, "\n") + "\n"), nil
	}
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// Save replaces the ledger file atomically: the set is written to a temporary
// file in the same directory which is then renamed over the old one.
func (l *jsonLedger) Save(ctx context.Context, set *entity.SeenLinkSet) error {
	data, err := l.encode(set)
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}

	l.logger.Debug().Int("links", set.Len()).Msg("ledger saved")
	return nil
}

func (l *jsonLedger) Count(ctx context.Context) (int, error) {
	return l.Load(ctx).Len(), nil
}
