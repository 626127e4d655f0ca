/*
Package sqlite provides a SQLite-backed implementation of inventory.Store.

PURPOSE:
  Persists the three collection blobs (purchases, sales, stock) in a
  single key-value table. The ledger never queries individual records;
  it reads and rewrites whole collections, so one row per collection is
  all the schema needs.

KEY TABLES:
  collections: key TEXT PRIMARY KEY, value BLOB, updated_at TEXT

ATOMIC BATCHES:
  Save() writes all entries inside one SQL transaction. A mutation that
  touches purchases, sales and stock is either fully persisted or not at
  all.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's single writer.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./parts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := inventory.NewLedger(store, logger)

SEE ALSO:
  - inventory/store.go: Interface definition
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/parts-ledger/inventory"
)

var _ inventory.Store = (*Store)(nil)

// Store implements inventory.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see a different, empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BLOB STORE (inventory.Store interface)
// =============================================================================

// Load returns the blob stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM collections WHERE key = ?",
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

// Save writes all entries in one transaction.
func (s *Store) Save(ctx context.Context, entries ...inventory.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if err := s.put(ctx, sqlTx, e, now); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, e inventory.Entry, updatedAt string) error {
	query := `
		INSERT INTO collections (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, e.Key, e.Value, updatedAt); err != nil {
		return fmt.Errorf("failed to save %s: %w", e.Key, err)
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// UpdatedAt returns when key was last written, or the zero time if never.
func (s *Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT updated_at FROM collections WHERE key = ?",
		key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read updated_at: %w", err)
	}
	return time.Parse(time.RFC3339, raw)
}
