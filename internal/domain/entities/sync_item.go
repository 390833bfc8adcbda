// Package entities - SyncItem is one durable unit of work in the sync queue.
// Its state machine is the backbone of eventual consistency:
//
//	pending --select--> processing --ack--> completed
//	                 \-- retryable-err --> pending (retry_count++, next_attempt set)
//	                 \-- permanent-err --> failed
//
// processing is an in-memory marker only; after a crash every non-terminal
// item is pending again, which is safe because handlers are idempotent.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// SyncOperation is the kind of mutation a queue item replays.
type SyncOperation string

const (
	SyncOperationCreate SyncOperation = "CREATE"
	SyncOperationUpdate SyncOperation = "UPDATE"
	SyncOperationDelete SyncOperation = "DELETE"
)

// IsValid checks if the operation is valid.
func (o SyncOperation) IsValid() bool {
	switch o {
	case SyncOperationCreate, SyncOperationUpdate, SyncOperationDelete:
		return true
	default:
		return false
	}
}

// SyncStatus is the durable state of a queue item.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusProcessing SyncStatus = "processing" // in-memory only, never persisted
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

// IsValid checks if the status is valid.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusProcessing, SyncStatusCompleted, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// IsFinal returns true for terminal states.
func (s SyncStatus) IsFinal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// Priority orders queue selection: higher dispatches first.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// IsValid checks the priority is within [0,3].
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

// EntityTypePendingTransaction tags queue items that replay an offline
// transaction. Handler registration is keyed by entity type.
const EntityTypePendingTransaction = "pending_transaction"

// SyncItem is an Entity with identity and the dispatch state machine.
// The payload is the full serialised record, so the producer row can be
// purged independently of the queue item.
type SyncItem struct {
	id         uuid.UUID
	operation  SyncOperation
	entityType string
	entityID   string
	payload    []byte
	priority   Priority

	retryCount int
	maxRetries int

	status      SyncStatus
	lastAttempt *time.Time
	nextAttempt *time.Time
	lastError   string

	createdAt time.Time
}

// NewSyncItem enqueues a new unit of work.
//
// Business rules:
// - Operation and priority must be valid
// - Entity type and id are required (they key handler dispatch and FIFO)
// - New items start pending and immediately due (nextAttempt nil)
func NewSyncItem(
	operation SyncOperation,
	entityType, entityID string,
	payload []byte,
	priority Priority,
	maxRetries int,
) (*SyncItem, error) {
	if !operation.IsValid() {
		return nil, errors.ErrInvalidSyncOperation
	}
	if !priority.IsValid() {
		return nil, errors.ErrInvalidPriority
	}
	if entityType == "" {
		return nil, errors.ValidationError{Field: "entityType", Message: "entity type is required"}
	}
	if entityID == "" {
		return nil, errors.ValidationError{Field: "entityID", Message: "entity id is required"}
	}
	if maxRetries < 0 {
		return nil, errors.ValidationError{Field: "maxRetries", Message: "max retries cannot be negative"}
	}

	return &SyncItem{
		id:         uuid.New(),
		operation:  operation,
		entityType: entityType,
		entityID:   entityID,
		payload:    payload,
		priority:   priority,
		maxRetries: maxRetries,
		status:     SyncStatusPending,
		createdAt:  time.Now().UTC(),
	}, nil
}

// ReconstructSyncItem rehydrates a SyncItem from stored data.
func ReconstructSyncItem(
	id uuid.UUID,
	operation SyncOperation,
	entityType, entityID string,
	payload []byte,
	priority Priority,
	retryCount, maxRetries int,
	status SyncStatus,
	lastAttempt, nextAttempt *time.Time,
	lastError string,
	createdAt time.Time,
) *SyncItem {
	return &SyncItem{
		id:          id,
		operation:   operation,
		entityType:  entityType,
		entityID:    entityID,
		payload:     payload,
		priority:    priority,
		retryCount:  retryCount,
		maxRetries:  maxRetries,
		status:      status,
		lastAttempt: lastAttempt,
		nextAttempt: nextAttempt,
		lastError:   lastError,
		createdAt:   createdAt,
	}
}

// Getters

func (i *SyncItem) ID() uuid.UUID            { return i.id }
func (i *SyncItem) Operation() SyncOperation { return i.operation }
func (i *SyncItem) EntityType() string       { return i.entityType }
func (i *SyncItem) EntityID() string         { return i.entityID }
func (i *SyncItem) Payload() []byte          { return i.payload }
func (i *SyncItem) Priority() Priority       { return i.priority }
func (i *SyncItem) RetryCount() int          { return i.retryCount }
func (i *SyncItem) MaxRetries() int          { return i.maxRetries }
func (i *SyncItem) Status() SyncStatus       { return i.status }
func (i *SyncItem) LastAttempt() *time.Time  { return i.lastAttempt }
func (i *SyncItem) NextAttempt() *time.Time  { return i.nextAttempt }
func (i *SyncItem) LastError() string        { return i.lastError }
func (i *SyncItem) CreatedAt() time.Time     { return i.createdAt }

// Business Methods

// IsDue reports whether the item is dispatchable at the given instant.
func (i *SyncItem) IsDue(now time.Time) bool {
	if i.status != SyncStatusPending {
		return false
	}
	return i.nextAttempt == nil || !i.nextAttempt.After(now)
}

// IsFinal returns true when the item reached a terminal state.
func (i *SyncItem) IsFinal() bool {
	return i.status.IsFinal()
}

// CanRetry reports whether another retry is allowed.
func (i *SyncItem) CanRetry() bool {
	return i.retryCount < i.maxRetries
}

// RecordAttempt marks the start of a dispatch attempt.
// processing is never persisted; a crash reverts the item to pending.
func (i *SyncItem) RecordAttempt(now time.Time) error {
	if i.status != SyncStatusPending {
		return errors.ErrInvalidSyncStatus
	}
	at := now.UTC()
	i.status = SyncStatusProcessing
	i.lastAttempt = &at
	return nil
}

// MarkCompleted transitions to the terminal completed state.
func (i *SyncItem) MarkCompleted() error {
	if i.status.IsFinal() {
		return errors.ErrInvalidSyncStatus
	}
	i.status = SyncStatusCompleted
	i.nextAttempt = nil
	i.lastError = ""
	return nil
}

// ScheduleRetry returns the item to pending with a bumped retry count and
// the computed next attempt time. Returns ErrItemNotRetryable when the
// retry budget is exhausted; the caller then moves the item to failed.
func (i *SyncItem) ScheduleRetry(nextAttempt time.Time, errMsg string) error {
	if i.status.IsFinal() {
		return errors.ErrInvalidSyncStatus
	}
	if !i.CanRetry() {
		return errors.ErrItemNotRetryable
	}

	at := nextAttempt.UTC()
	i.retryCount++
	i.status = SyncStatusPending
	i.nextAttempt = &at
	i.lastError = errMsg
	return nil
}

// MarkFailed transitions to the terminal failed state, keeping the last
// error for operator inspection.
func (i *SyncItem) MarkFailed(errMsg string) error {
	if i.status.IsFinal() {
		return errors.ErrInvalidSyncStatus
	}
	i.status = SyncStatusFailed
	i.nextAttempt = nil
	i.lastError = errMsg
	return nil
}

// ResetForRetry re-arms a failed item after operator intervention:
// failed -> pending with a fresh retry budget.
func (i *SyncItem) ResetForRetry() error {
	if i.status != SyncStatusFailed {
		return errors.ErrItemNotRetryable
	}
	i.status = SyncStatusPending
	i.retryCount = 0
	i.nextAttempt = nil
	i.lastError = ""
	return nil
}

// Release reverts an in-memory processing marker back to pending without
// consuming retry budget (used on shutdown before the attempt ran).
func (i *SyncItem) Release() {
	if i.status == SyncStatusProcessing {
		i.status = SyncStatusPending
	}
}
