// Package sqlite implements the local durable store on SQLite via
// database/sql and mattn/go-sqlite3. It is the only component that touches
// storage: every offline fact the device holds lives in its six tables.
//
// Patterns:
// - Repository Pattern: one repository per table
// - Unit of Work: cross-repository atomicity with the tx carried in context
// - Sole writer: the pool is pinned to one connection, WAL keeps readers
//   cheap and the busy timeout absorbs the rest
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// Config holds the store settings.
type Config struct {
	Path        string        // database file; ":memory:" for tests
	BusyTimeout time.Duration // how long a writer waits on the lock
}

// DefaultConfig returns the settings the agent ships with.
func DefaultConfig() Config {
	return Config{
		Path:        "festivals-pos.db",
		BusyTimeout: 5 * time.Second,
	}
}

// DSN builds the sqlite3 connection string with the pragmas the store
// relies on: WAL journalling, NORMAL sync (safe with WAL), enforced
// foreign keys and a busy timeout instead of immediate SQLITE_BUSY.
func (c Config) DSN() string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", fmt.Sprintf("%d", c.BusyTimeout.Milliseconds()))
	return fmt.Sprintf("file:%s?%s", c.Path, q.Encode())
}

// Open opens the store file and verifies it is usable.
//
// The pool is pinned to a single connection: SQLite allows one writer, and
// a single connection also makes the in-memory test configuration behave
// (each new connection to :memory: would otherwise get its own database).
func Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, mapOpenError(err)
	}

	// A corrupt file often opens fine and fails on first real read.
	if _, err := db.Exec("PRAGMA quick_check"); err != nil {
		_ = db.Close()
		return nil, mapOpenError(err)
	}

	return db, nil
}

func mapOpenError(err error) error {
	if isCorruptError(err) {
		return fmt.Errorf("%w: %v", domainerrors.ErrStoreCorrupt, err)
	}
	return fmt.Errorf("%w: %v", domainerrors.ErrStoreUnavailable, err)
}

// Quarantine renames a corrupt database file (and its WAL/SHM sidecars)
// aside so a fresh store can be initialised. Returns the quarantine path.
// Pending unacknowledged transactions in the corrupt file are lost; the
// caller must surface that to the operator.
func Quarantine(path string) (string, error) {
	quarantine := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, quarantine); err != nil {
		return "", fmt.Errorf("failed to quarantine corrupt store: %w", err)
	}

	// Sidecars are useless without the main file; best-effort cleanup.
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")

	return quarantine, nil
}

// HealthCheck verifies the store still answers queries.
// Used by the ops API readiness probe.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}
