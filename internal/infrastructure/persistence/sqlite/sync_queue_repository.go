// Package sqlite - SyncQueueRepository over sync_queue.
//
// The processing status is an in-memory marker: Save refuses to persist it,
// so a crash leaves every non-terminal item pending and the dispatcher
// simply picks it up again.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// Compile-time check
var _ ports.SyncQueueRepository = (*SyncQueueRepository)(nil)

// SyncQueueRepository implements ports.SyncQueueRepository.
type SyncQueueRepository struct {
	db *sql.DB
}

// NewSyncQueueRepository creates the repository.
func NewSyncQueueRepository(db *sql.DB) *SyncQueueRepository {
	return &SyncQueueRepository{db: db}
}

const syncItemColumns = `id, operation, entity_type, entity_id, payload, priority,
	retry_count, max_retries, status, last_attempt, next_attempt, error, created_at`

// Save persists a queue item, insert or update by id.
func (r *SyncQueueRepository) Save(ctx context.Context, item *entities.SyncItem) error {
	status := item.Status()
	if status == entities.SyncStatusProcessing {
		// Never persisted; on disk the item stays pending.
		status = entities.SyncStatusPending
	}

	q := querierFor(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO sync_queue (`+syncItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			retry_count = excluded.retry_count,
			status = excluded.status,
			last_attempt = excluded.last_attempt,
			next_attempt = excluded.next_attempt,
			error = excluded.error`,
		item.ID().String(),
		string(item.Operation()),
		item.EntityType(),
		item.EntityID(),
		string(item.Payload()),
		int(item.Priority()),
		item.RetryCount(),
		item.MaxRetries(),
		string(status),
		encodeTimePtr(item.LastAttempt()),
		encodeTimePtr(item.NextAttempt()),
		nullString(item.LastError()),
		encodeTime(item.CreatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save sync item: %w", mapStoreError(err))
	}

	return nil
}

// FindByID loads an item by id.
func (r *SyncQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.SyncItem, error) {
	q := querierFor(ctx, r.db)

	row := q.QueryRowContext(ctx,
		`SELECT `+syncItemColumns+` FROM sync_queue WHERE id = ?`,
		id.String())

	item, err := scanSyncItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrSyncItemNotFound
	}
	return item, err
}

// SelectDue returns up to limit dispatchable items, highest priority first,
// oldest first within a priority.
func (r *SyncQueueRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]*entities.SyncItem, error) {
	q := querierFor(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+syncItemColumns+` FROM sync_queue
		WHERE status = ? AND (next_attempt IS NULL OR next_attempt <= ?)
		ORDER BY priority DESC, created_at ASC
		LIMIT ?`,
		string(entities.SyncStatusPending), encodeTime(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due sync items: %w", mapStoreError(err))
	}
	defer rows.Close()

	return collectSyncItems(rows)
}

// ListByStatus returns items in a given status, oldest first.
func (r *SyncQueueRepository) ListByStatus(ctx context.Context, status entities.SyncStatus, offset, limit int) ([]*entities.SyncItem, error) {
	q := querierFor(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT `+syncItemColumns+` FROM sync_queue
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ? OFFSET ?`,
		string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync items: %w", mapStoreError(err))
	}
	defer rows.Close()

	return collectSyncItems(rows)
}

// CountByStatus returns item counts per durable status.
func (r *SyncQueueRepository) CountByStatus(ctx context.Context) (map[entities.SyncStatus]int, error) {
	q := querierFor(ctx, r.db)

	rows, err := q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sync items: %w", mapStoreError(err))
	}
	defer rows.Close()

	counts := make(map[entities.SyncStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, mapStoreError(err)
		}
		counts[entities.SyncStatus(status)] = count
	}
	return counts, rows.Err()
}

// DeleteCompletedBefore purges completed items older than the cutoff.
func (r *SyncQueueRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	q := querierFor(ctx, r.db)

	res, err := q.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE status = ? AND created_at < ?`,
		string(entities.SyncStatusCompleted), encodeTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed sync items: %w", mapStoreError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func collectSyncItems(rows *sql.Rows) ([]*entities.SyncItem, error) {
	var out []*entities.SyncItem
	for rows.Next() {
		item, err := scanSyncItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanSyncItem(row rowScanner) (*entities.SyncItem, error) {
	var (
		idStr, operation, entityType, entityID string
		payload                                string
		priority                               int
		retryCount, maxRetries                 int
		status                                 string
		lastAttempt, nextAttempt, lastError    sql.NullString
		createdAtStr                           string
	)

	err := row.Scan(&idStr, &operation, &entityType, &entityID, &payload,
		&priority, &retryCount, &maxRetries, &status,
		&lastAttempt, &nextAttempt, &lastError, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sync item: %w", mapStoreError(err))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored sync item has malformed id: %w", err)
	}

	lastAt, err := decodeTimePtr(lastAttempt)
	if err != nil {
		return nil, err
	}
	nextAt, err := decodeTimePtr(nextAttempt)
	if err != nil {
		return nil, err
	}
	createdAt, err := decodeTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructSyncItem(
		id,
		entities.SyncOperation(operation),
		entityType, entityID,
		[]byte(payload),
		entities.Priority(priority),
		retryCount, maxRetries,
		entities.SyncStatus(status),
		lastAt, nextAt,
		lastError.String,
		createdAt,
	), nil
}
