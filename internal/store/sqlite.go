package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/dragonhaven/server/internal/domain"
	"github.com/dragonhaven/server/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository with a single-document table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS app_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads the state document, repairing each dragon record individually.
// Missing or unreadable documents fall back to the seed state; Load never
// surfaces an error to callers.
func (s *SQLiteStore) Load(ctx context.Context) *domain.AppState {
	now := time.Now()

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM app_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Info("no persisted state, starting from seed")
		return domain.SeedState(now)
	}
	if err != nil {
		slog.Warn("failed to read state document, using seed", "error", err)
		return domain.SeedState(now)
	}

	state := decodeState([]byte(raw), now)
	if state == nil {
		return domain.SeedState(now)
	}
	return state
}

// Save writes the full state document, retrying on SQLITE_BUSY.
func (s *SQLiteStore) Save(ctx context.Context, state *domain.AppState) error {
	raw, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	query := `
	INSERT INTO app_state (id, doc, updated_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		doc = excluded.doc,
		updated_at = excluded.updated_at`

	err = shared.RetryOnBusy(ctx, 3, 100*time.Millisecond, func() error {
		_, execErr := s.db.ExecContext(ctx, query, string(raw), time.Now().Unix())
		return execErr
	})
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

var _ Repository = (*SQLiteStore)(nil)
