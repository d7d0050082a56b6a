package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"rssdigest/internal/domain/entity"

	_ "modernc.org/sqlite"
)

// SQLiteLedger keeps seen links in a SQLite table with the time each was first recorded.
type SQLiteLedger struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSQLiteLedgerRepository(dbPath string, logger zerolog.Logger) (*SQLiteLedger, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	ledger := &SQLiteLedger{
		db:     db,
		logger: logger.With().Str("ledger", dbPath).Logger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ledger.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return ledger, nil
}

func (l *SQLiteLedger) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS seen_links (
			link TEXT PRIMARY KEY,
			seen_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_links_seen_at ON seen_links(seen_at)`,
	}

	for _, query := range queries {
		if _, err := l.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

func (l *SQLiteLedger) Load(ctx context.Context) *entity.SeenLinkSet {
	set := entity.NewSeenLinkSet()

	rows, err := l.db.QueryContext(ctx, "SELECT link FROM seen_links")
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to read ledger, starting empty")
		return set
	}
	defer rows.Close()

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			l.logger.Warn().Err(err).Msg("failed to scan ledger row, starting empty")
			return entity.NewSeenLinkSet()
		}
		set.Add(link)
	}
	if err := rows.Err(); err != nil {
		l.logger.Warn().Err(err).Msg("failed to iterate ledger, starting empty")
		return entity.NewSeenLinkSet()
	}

	return set
}

// Save inserts every link not yet stored. Existing rows keep their original seen_at.
func (l *SQLiteLedger) Save(ctx context.Context, set *entity.SeenLinkSet) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO seen_links (link, seen_at) VALUES (?, ?)
		ON CONFLICT(link) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, link := range set.Links() {
		if _, err := stmt.ExecContext(ctx, link, now); err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seen_links").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return n, nil
}

// Prune deletes links first seen before now minus olderThan.
func (l *SQLiteLedger) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	result, err := l.db.ExecContext(
		ctx,
		"DELETE FROM seen_links WHERE seen_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune old links: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
