// Package sqlite - the in-code migration registry and runner.
//
// Migrations are forward-only in production: Initialize applies every
// pending version, each in its own transaction, and stops at the first
// failure. The inverse statements exist for the explicit rollback tooling
// in cmd/migrate, never for automatic use.
package sqlite

import (
	"context"
	"database/sql"
	"sort"
	"time"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// Migration is one schema version step.
type Migration struct {
	Version int
	Name    string
	Up      []string // ordered forward statements
	Down    []string // ordered inverse statements for rollback tooling
}

// migrations is the ordered registry. Append only; never edit a shipped
// version.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_cached_wallets",
		Up: []string{
			`CREATE TABLE cached_wallets (
				id            TEXT PRIMARY KEY,
				user_id       TEXT NOT NULL UNIQUE,
				balance       INTEGER NOT NULL CHECK (balance >= 0),
				currency_name TEXT NOT NULL,
				exchange_rate REAL NOT NULL DEFAULT 1.0,
				qr_code       TEXT,
				qr_expires_at TEXT,
				last_sync     TEXT NOT NULL,
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
		},
		Down: []string{
			`DROP TABLE cached_wallets`,
		},
	},
	{
		Version: 2,
		Name:    "create_pending_transactions",
		Up: []string{
			`CREATE TABLE pending_transactions (
				id                TEXT PRIMARY KEY,
				wallet_id         TEXT NOT NULL,
				user_id           TEXT NOT NULL,
				amount            INTEGER NOT NULL CHECK (amount >= 0),
				type              TEXT NOT NULL CHECK (type IN ('PURCHASE','PAYMENT','REFUND','CANCEL')),
				stand_id          TEXT,
				stand_name        TEXT,
				description       TEXT,
				product_items     TEXT,
				idempotency_key   TEXT NOT NULL,
				offline_signature TEXT NOT NULL,
				device_id         TEXT NOT NULL,
				synced            INTEGER NOT NULL DEFAULT 0,
				retry_count       INTEGER NOT NULL DEFAULT 0,
				last_retry_at     TEXT,
				error             TEXT,
				created_at        TEXT NOT NULL,
				UNIQUE (device_id, idempotency_key)
			)`,
			`CREATE INDEX idx_pending_wallet_synced
				ON pending_transactions (wallet_id, synced, created_at)`,
		},
		Down: []string{
			`DROP INDEX idx_pending_wallet_synced`,
			`DROP TABLE pending_transactions`,
		},
	},
	{
		Version: 3,
		Name:    "create_catalogue",
		Up: []string{
			`CREATE TABLE cached_stands (
				id          TEXT PRIMARY KEY,
				festival_id TEXT NOT NULL,
				name        TEXT NOT NULL,
				type        TEXT NOT NULL CHECK (type IN ('FOOD','DRINK','MERCHANDISE','SERVICE','OTHER')),
				description TEXT,
				location    TEXT,
				is_active   INTEGER NOT NULL DEFAULT 1,
				updated_at  TEXT NOT NULL
			)`,
			`CREATE INDEX idx_stands_festival_type
				ON cached_stands (festival_id, type)`,
			`CREATE TABLE cached_products (
				id             TEXT PRIMARY KEY,
				stand_id       TEXT NOT NULL REFERENCES cached_stands(id) ON DELETE CASCADE,
				name           TEXT NOT NULL,
				category       TEXT,
				price          INTEGER NOT NULL CHECK (price >= 0),
				available      INTEGER NOT NULL DEFAULT 1,
				stock_quantity INTEGER,
				updated_at     TEXT NOT NULL
			)`,
			`CREATE INDEX idx_products_stand_category
				ON cached_products (stand_id, category, available)`,
		},
		Down: []string{
			`DROP INDEX idx_products_stand_category`,
			`DROP TABLE cached_products`,
			`DROP INDEX idx_stands_festival_type`,
			`DROP TABLE cached_stands`,
		},
	},
	{
		Version: 4,
		Name:    "create_cached_transactions",
		Up: []string{
			`CREATE TABLE cached_transactions (
				id            TEXT PRIMARY KEY,
				wallet_id     TEXT NOT NULL REFERENCES cached_wallets(id) ON DELETE CASCADE,
				amount        INTEGER NOT NULL CHECK (amount >= 0),
				type          TEXT NOT NULL,
				stand_name    TEXT,
				description   TEXT,
				balance_after INTEGER,
				created_at    TEXT NOT NULL
			)`,
			`CREATE INDEX idx_cached_tx_wallet_created
				ON cached_transactions (wallet_id, created_at)`,
		},
		Down: []string{
			`DROP INDEX idx_cached_tx_wallet_created`,
			`DROP TABLE cached_transactions`,
		},
	},
	{
		Version: 5,
		Name:    "create_sync_queue",
		Up: []string{
			`CREATE TABLE sync_queue (
				id           TEXT PRIMARY KEY,
				operation    TEXT NOT NULL CHECK (operation IN ('CREATE','UPDATE','DELETE')),
				entity_type  TEXT NOT NULL,
				entity_id    TEXT NOT NULL,
				payload      TEXT NOT NULL,
				priority     INTEGER NOT NULL CHECK (priority BETWEEN 0 AND 3),
				retry_count  INTEGER NOT NULL DEFAULT 0,
				max_retries  INTEGER NOT NULL,
				status       TEXT NOT NULL CHECK (status IN ('pending','completed','failed')),
				last_attempt TEXT,
				next_attempt TEXT,
				error        TEXT,
				created_at   TEXT NOT NULL
			)`,
			`CREATE INDEX idx_sync_queue_dispatch
				ON sync_queue (status, priority DESC, next_attempt)`,
			`CREATE INDEX idx_sync_queue_entity
				ON sync_queue (entity_id)`,
		},
		Down: []string{
			`DROP INDEX idx_sync_queue_entity`,
			`DROP INDEX idx_sync_queue_dispatch`,
			`DROP TABLE sync_queue`,
		},
	},
}

// Migrations returns the registry ordered by version, for cmd/migrate.
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}

// Initialize prepares the store: creates the migrations log if needed and
// applies every pending migration, each in its own transaction. The first
// failure aborts the run; later versions are not attempted.
func Initialize(ctx context.Context, db *sql.DB) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range Migrations() {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}

	return nil
}

// CurrentVersion returns MAX(version) from the migrations log, 0 when the
// store is fresh.
func CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// Rollback undoes the n most recent migrations using their inverse
// statements. Explicit tooling only; the agent never calls this.
func Rollback(ctx context.Context, db *sql.DB, n int) error {
	if n <= 0 {
		return nil
	}

	applied := Migrations()
	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return err
	}

	// Walk backwards from the current version.
	for i := len(applied) - 1; i >= 0 && n > 0; i-- {
		m := applied[i]
		if m.Version > current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return mapStoreError(err)
		}

		rollbackErr := func() error {
			for _, stmt := range m.Down {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.Version)
			return err
		}()

		if rollbackErr != nil {
			_ = tx.Rollback()
			return domainerrors.NewMigrationError(m.Version, m.Name, rollbackErr)
		}
		if err := tx.Commit(); err != nil {
			return domainerrors.NewMigrationError(m.Version, m.Name, err)
		}

		n--
	}

	return nil
}

// AppliedMigrations returns the migrations log for cmd/migrate status.
func AppliedMigrations(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT version, name, applied_at FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var (
			am        AppliedMigration
			appliedAt string
		)
		if err := rows.Scan(&am.Version, &am.Name, &appliedAt); err != nil {
			return nil, mapStoreError(err)
		}
		at, err := decodeTime(appliedAt)
		if err != nil {
			return nil, err
		}
		am.AppliedAt = at
		out = append(out, am)
	}
	return out, rows.Err()
}

// AppliedMigration is one row of the migrations log.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`)
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domainerrors.NewMigrationError(m.Version, m.Name, mapStoreError(err))
	}

	applyErr := func() error {
		for _, stmt := range m.Up {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Name, encodeTime(time.Now()))
		return err
	}()

	if applyErr != nil {
		_ = tx.Rollback()
		return domainerrors.NewMigrationError(m.Version, m.Name, applyErr)
	}

	if err := tx.Commit(); err != nil {
		return domainerrors.NewMigrationError(m.Version, m.Name, err)
	}

	return nil
}
