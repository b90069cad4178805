// Package storage persists the decision history: one row per
// categorization performed through the CLI.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Veraticus/pigeonhole/internal/model"
)

// Decision is one recorded categorization.
type Decision struct {
	CreatedAt   time.Time
	Fingerprint string
	CacheKey    string
	Merchant    string
	Category    string
	Source      string
	ID          int64
	Confidence  float64
	AIEnhanced  bool
}

// HistoryStore implements the decision history on SQLite.
type HistoryStore struct {
	db     *sql.DB
	dbPath string
}

// NewHistoryStore opens (and migrates) the history database at dbPath.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("history database path must not be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &HistoryStore{db: db, dbPath: dbPath}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			fingerprint TEXT NOT NULL,
			cache_key TEXT NOT NULL,
			merchant TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			confidence REAL NOT NULL,
			source TEXT NOT NULL,
			ai_enhanced INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_fingerprint ON decisions(fingerprint);
		CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return nil
}

// SaveDecision records one categorization result.
func (s *HistoryStore) SaveDecision(ctx context.Context, cacheKey string, result model.CategorizationResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (fingerprint, cache_key, merchant, category, confidence, source, ai_enhanced)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Fingerprint,
		cacheKey,
		result.Merchant,
		result.Category,
		result.Confidence,
		result.Source,
		result.AIEnhanced,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}

	return nil
}

// RecentDecisions returns the most recent decisions, newest first.
func (s *HistoryStore) RecentDecisions(ctx context.Context, limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fingerprint, cache_key, merchant, category, confidence, source, ai_enhanced, created_at
		FROM decisions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.Fingerprint, &d.CacheKey, &d.Merchant, &d.Category,
			&d.Confidence, &d.Source, &d.AIEnhanced, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}

	return decisions, nil
}

// CountsBySource returns how many decisions each pipeline stage produced.
func (s *HistoryStore) CountsBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*) FROM decisions GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[source] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate counts: %w", err)
	}

	return counts, nil
}
