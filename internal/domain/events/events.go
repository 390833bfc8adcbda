// Package events defines domain events that represent significant occurrences
// in the offline core. Events are immutable facts about what happened in the
// past: a payment was created, a queue item was retried, the store recovered.
//
// Pattern: Domain Events (Observer Pattern foundation)
// - Events are raised by use cases and the sync queue when state changes
// - Handlers can react without coupling to the producer
// - The dashboard telemetry and the Sentry reporter are both consumers
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID // ID of the entity that raised this event
}

// BaseEvent provides common fields for all events.
// Embedded in specific event types to avoid duplication.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID {
	return e.eventID
}

func (e BaseEvent) EventType() string {
	return e.eventType
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e BaseEvent) AggregateID() uuid.UUID {
	return e.aggregateID
}

// Event Types (constants for type checking)
const (
	EventTypePaymentCreated  = "payment.created"
	EventTypePaymentSynced   = "payment.synced"
	EventTypePaymentRejected = "payment.rejected"

	EventTypeSyncItemEnqueued  = "sync.item.enqueued"
	EventTypeSyncItemStarted   = "sync.item.started"
	EventTypeSyncItemCompleted = "sync.item.completed"
	EventTypeSyncItemRetried   = "sync.item.retried"
	EventTypeSyncItemFailed    = "sync.item.failed"
	EventTypeSyncQueueDrained  = "sync.queue.drained"

	EventTypeNetworkUp      = "network.up"
	EventTypeStoreRecovered = "store.recovered"
	EventTypeServerAlert    = "server.alert"
)

// ===== Payment Events =====

// PaymentCreated is raised when the pending engine durably records an
// offline payment. The speculative debit has already been applied.
type PaymentCreated struct {
	BaseEvent
	TransactionID   uuid.UUID
	WalletID        uuid.UUID
	TransactionType string
	Amount          int64 // minor units
	IdempotencyKey  string
}

func NewPaymentCreated(
	transactionID, walletID uuid.UUID,
	transactionType string,
	amount int64,
	idempotencyKey string,
) *PaymentCreated {
	return &PaymentCreated{
		BaseEvent:       newBaseEvent(EventTypePaymentCreated, transactionID),
		TransactionID:   transactionID,
		WalletID:        walletID,
		TransactionType: transactionType,
		Amount:          amount,
		IdempotencyKey:  idempotencyKey,
	}
}

// PaymentSynced is raised when the server acknowledges a replayed payment.
// ServerTransactionID is the authoritative id the server recorded.
type PaymentSynced struct {
	BaseEvent
	TransactionID       uuid.UUID
	WalletID            uuid.UUID
	ServerTransactionID uuid.UUID
	BalanceAfter        int64
	Replayed            bool // true when the ACK was an idempotent replay (HTTP 200)
}

func NewPaymentSynced(
	transactionID, walletID, serverTransactionID uuid.UUID,
	balanceAfter int64,
	replayed bool,
) *PaymentSynced {
	return &PaymentSynced{
		BaseEvent:           newBaseEvent(EventTypePaymentSynced, transactionID),
		TransactionID:       transactionID,
		WalletID:            walletID,
		ServerTransactionID: serverTransactionID,
		BalanceAfter:        balanceAfter,
		Replayed:            replayed,
	}
}

// PaymentRejected is raised when the server authoritatively refuses a
// monetary operation. The speculative debit has been reverted and the
// cached wallet reflects the server balance by the time this fires.
type PaymentRejected struct {
	BaseEvent
	TransactionID uuid.UUID
	WalletID      uuid.UUID
	Code          string
	Reason        string
	ServerBalance *int64 // authoritative balance when the server reported one
}

func NewPaymentRejected(
	transactionID, walletID uuid.UUID,
	code, reason string,
	serverBalance *int64,
) *PaymentRejected {
	return &PaymentRejected{
		BaseEvent:     newBaseEvent(EventTypePaymentRejected, transactionID),
		TransactionID: transactionID,
		WalletID:      walletID,
		Code:          code,
		Reason:        reason,
		ServerBalance: serverBalance,
	}
}

// ===== Sync Queue Events =====

// SyncItemEnqueued is raised when a new unit of work enters the queue.
type SyncItemEnqueued struct {
	BaseEvent
	ItemID     uuid.UUID
	EntityType string
	EntityID   string
	Priority   int
}

func NewSyncItemEnqueued(itemID uuid.UUID, entityType, entityID string, priority int) *SyncItemEnqueued {
	return &SyncItemEnqueued{
		BaseEvent:  newBaseEvent(EventTypeSyncItemEnqueued, itemID),
		ItemID:     itemID,
		EntityType: entityType,
		EntityID:   entityID,
		Priority:   priority,
	}
}

// SyncItemStarted is raised when the dispatcher hands an item to its handler.
type SyncItemStarted struct {
	BaseEvent
	ItemID     uuid.UUID
	EntityType string
	Attempt    int // 1-based: retry_count + 1
}

func NewSyncItemStarted(itemID uuid.UUID, entityType string, attempt int) *SyncItemStarted {
	return &SyncItemStarted{
		BaseEvent:  newBaseEvent(EventTypeSyncItemStarted, itemID),
		ItemID:     itemID,
		EntityType: entityType,
		Attempt:    attempt,
	}
}

// SyncItemCompleted is raised when an item reaches the terminal completed
// state, whether by server ACK or by a resolved conflict.
type SyncItemCompleted struct {
	BaseEvent
	ItemID     uuid.UUID
	EntityType string
	Duration   time.Duration
}

func NewSyncItemCompleted(itemID uuid.UUID, entityType string, duration time.Duration) *SyncItemCompleted {
	return &SyncItemCompleted{
		BaseEvent:  newBaseEvent(EventTypeSyncItemCompleted, itemID),
		ItemID:     itemID,
		EntityType: entityType,
		Duration:   duration,
	}
}

// SyncItemRetried is raised when a transient failure schedules another attempt.
type SyncItemRetried struct {
	BaseEvent
	ItemID      uuid.UUID
	EntityType  string
	RetryCount  int
	NextAttempt time.Time
	Reason      string
}

func NewSyncItemRetried(itemID uuid.UUID, entityType string, retryCount int, nextAttempt time.Time, reason string) *SyncItemRetried {
	return &SyncItemRetried{
		BaseEvent:   newBaseEvent(EventTypeSyncItemRetried, itemID),
		ItemID:      itemID,
		EntityType:  entityType,
		RetryCount:  retryCount,
		NextAttempt: nextAttempt,
		Reason:      reason,
	}
}

// SyncItemFailed is raised when an item reaches the terminal failed state:
// a permanent error, a Manual conflict, or retry budget exhaustion.
// The ops UI shows its non-dismissible banner off the back of these.
type SyncItemFailed struct {
	BaseEvent
	ItemID     uuid.UUID
	EntityType string
	RetryCount int
	Reason     string
}

func NewSyncItemFailed(itemID uuid.UUID, entityType string, retryCount int, reason string) *SyncItemFailed {
	return &SyncItemFailed{
		BaseEvent:  newBaseEvent(EventTypeSyncItemFailed, itemID),
		ItemID:     itemID,
		EntityType: entityType,
		RetryCount: retryCount,
		Reason:     reason,
	}
}

// SyncQueueDrained is raised after a dispatch pass that left no due work.
type SyncQueueDrained struct {
	BaseEvent
	Dispatched int // items handled during the pass that drained the queue
}

func NewSyncQueueDrained(dispatched int) *SyncQueueDrained {
	return &SyncQueueDrained{
		BaseEvent:  newBaseEvent(EventTypeSyncQueueDrained, uuid.Nil),
		Dispatched: dispatched,
	}
}

// ===== Infrastructure Events =====

// NetworkUp is raised when connectivity returns (push channel reconnect or a
// successful dispatch after failures). The queue treats it as a trigger.
type NetworkUp struct {
	BaseEvent
	Source string // "push", "dispatch", "manual"
}

func NewNetworkUp(source string) *NetworkUp {
	return &NetworkUp{
		BaseEvent: newBaseEvent(EventTypeNetworkUp, uuid.Nil),
		Source:    source,
	}
}

// StoreRecovered is raised after the corrupt-store recovery path ran:
// the damaged file was quarantined and a fresh store was initialised.
// Unacknowledged pending transactions are lost; operators follow up using
// the quarantined file.
type StoreRecovered struct {
	BaseEvent
	QuarantinePath string
}

func NewStoreRecovered(quarantinePath string) *StoreRecovered {
	return &StoreRecovered{
		BaseEvent:      newBaseEvent(EventTypeStoreRecovered, uuid.Nil),
		QuarantinePath: quarantinePath,
	}
}

// ServerAlert mirrors an operator alert pushed from the server.
type ServerAlert struct {
	BaseEvent
	Severity string
	Message  string
}

func NewServerAlert(severity, message string) *ServerAlert {
	return &ServerAlert{
		BaseEvent: newBaseEvent(EventTypeServerAlert, uuid.Nil),
		Severity:  severity,
		Message:   message,
	}
}

// Collector gathers events raised during one unit of work so they can be
// published after the transaction commits.
type Collector struct {
	events []DomainEvent
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{events: make([]DomainEvent, 0)}
}

// Add appends an event to the collector.
func (c *Collector) Add(event DomainEvent) {
	c.events = append(c.events, event)
}

// Drain returns the collected events and empties the collector.
func (c *Collector) Drain() []DomainEvent {
	drained := c.events
	c.events = make([]DomainEvent, 0)
	return drained
}

// Count returns the number of collected events.
func (c *Collector) Count() int {
	return len(c.events)
}
