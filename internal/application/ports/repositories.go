// Package ports defines the interfaces the application core depends on.
// The infrastructure layer provides implementations (SQLite for persistence,
// HTTP for replay, in-process pub/sub for events).
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/entities"
)

// PendingTransactionRepository stores offline-originated monetary events.
type PendingTransactionRepository interface {
	// Save persists a pending transaction (insert or update by id).
	// Inserting a second row with the same (device_id, idempotency_key)
	// fails with ErrDuplicateIdempotencyKey.
	Save(ctx context.Context, tx *entities.PendingTransaction) error

	// FindByID loads a pending transaction by id.
	// Returns ErrPendingTransactionNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.PendingTransaction, error)

	// FindByIdempotencyKey loads by the replay identity.
	// Critical for duplicate detection across restarts.
	FindByIdempotencyKey(ctx context.Context, deviceID uuid.UUID, key string) (*entities.PendingTransaction, error)

	// List returns pending transactions with filtering and pagination,
	// newest first.
	List(ctx context.Context, filter PendingTransactionFilter, offset, limit int) ([]*entities.PendingTransaction, error)

	// CountUnsynced returns how many transactions still await an ACK.
	// Feeds the attention banner in the ops UI.
	CountUnsynced(ctx context.Context) (int, error)

	// DeleteSyncedBefore purges synced rows older than the cutoff.
	// Returns the number of rows removed. Retention sweep only.
	DeleteSyncedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// PendingTransactionFilter narrows List results.
type PendingTransactionFilter struct {
	WalletID *uuid.UUID // only this wallet
	Synced   *bool      // only synced / only unsynced
}

// WalletCacheRepository stores the locally materialised wallet view.
// At most one row per user; offline operations mutate only the balance.
type WalletCacheRepository interface {
	// Save upserts the cached wallet (conflict on id, last write wins).
	Save(ctx context.Context, wallet *entities.CachedWallet) error

	// FindByID loads a cached wallet by wallet id.
	// Returns ErrWalletNotCached when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.CachedWallet, error)

	// FindByUserID loads the wallet cached for a user.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.CachedWallet, error)

	// Delete removes a cached wallet and, via cascade, its transaction
	// history.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogRepository stores the read-mostly stand and product catalogue.
type CatalogRepository interface {
	// UpsertStands bulk-upserts stand rows (conflict on id, last write wins).
	UpsertStands(ctx context.Context, stands []*entities.CachedStand) error

	// UpsertProducts bulk-upserts product rows. Products reference stands;
	// deleting a stand cascades to its products.
	UpsertProducts(ctx context.Context, products []*entities.CachedProduct) error

	// ListStands returns stands filtered by festival and type.
	ListStands(ctx context.Context, filter StandFilter) ([]*entities.CachedStand, error)

	// ListProducts returns products filtered by stand, category and
	// availability.
	ListProducts(ctx context.Context, filter ProductFilter) ([]*entities.CachedProduct, error)

	// DeleteStand removes a stand and cascades to its products.
	DeleteStand(ctx context.Context, id uuid.UUID) error

	// Clear wipes the catalogue ahead of a full refresh.
	Clear(ctx context.Context) error
}

// StandFilter narrows ListStands results.
type StandFilter struct {
	FestivalID *uuid.UUID
	Type       *entities.StandType
	ActiveOnly bool
}

// ProductFilter narrows ListProducts results.
type ProductFilter struct {
	StandID   *uuid.UUID
	Category  *string
	Available *bool
}

// CachedTransactionRepository stores immutable history for offline browsing.
type CachedTransactionRepository interface {
	// Insert records a confirmed transaction. Idempotent: a conflict on id
	// is a no-op and returns inserted=false, preserving the first write so
	// historical balance snapshots are never rewritten.
	Insert(ctx context.Context, tx *entities.CachedTransaction) (inserted bool, err error)

	// ListByWallet returns history for a wallet, newest first.
	ListByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.CachedTransaction, error)

	// Count returns the number of cached history rows.
	Count(ctx context.Context) (int, error)
}

// SyncQueueRepository stores durable units of sync work.
type SyncQueueRepository interface {
	// Save persists a queue item (insert or update by id).
	Save(ctx context.Context, item *entities.SyncItem) error

	// FindByID loads an item by id. Returns ErrSyncItemNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.SyncItem, error)

	// SelectDue returns up to limit dispatchable items:
	// status='pending' AND (next_attempt IS NULL OR next_attempt <= now)
	// ORDER BY priority DESC, created_at ASC.
	SelectDue(ctx context.Context, now time.Time, limit int) ([]*entities.SyncItem, error)

	// ListByStatus returns items in a given status, oldest first.
	ListByStatus(ctx context.Context, status entities.SyncStatus, offset, limit int) ([]*entities.SyncItem, error)

	// CountByStatus returns item counts per durable status.
	CountByStatus(ctx context.Context) (map[entities.SyncStatus]int, error)

	// DeleteCompletedBefore purges completed items older than the cutoff.
	// Returns the number of rows removed. Retention sweep only.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// StoreStats is the observability snapshot the ops API serves.
type StoreStats struct {
	PendingUnsynced int                         // pending transactions awaiting ACK
	PendingSynced   int                         // acknowledged, awaiting purge
	QueueByStatus   map[entities.SyncStatus]int // sync queue counts
	CachedWallets   int
	CachedStands    int
	CachedProducts  int
	CachedHistory   int
}

// Attention reports whether the ops UI must show its non-dismissible
// banner: any unsynced or failed work means the device is not reconciled.
func (s StoreStats) Attention() bool {
	return s.PendingUnsynced > 0 ||
		s.QueueByStatus[entities.SyncStatusPending] > 0 ||
		s.QueueByStatus[entities.SyncStatusFailed] > 0
}

// StatsProvider aggregates counts across all tables.
type StatsProvider interface {
	Stats(ctx context.Context) (StoreStats, error)
}
