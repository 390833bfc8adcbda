// Package dtos - sync queue DTOs: item views for the ops API and the
// durable queue payload format.
package dtos

import "time"

// ============================================
// Response DTOs
// ============================================

// SyncItemDTO is the API representation of a sync queue item.
type SyncItemDTO struct {
	ID          string     `json:"id"`
	Operation   string     `json:"operation"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Priority    int        `json:"priority"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	Status      string     `json:"status"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	NextAttempt *time.Time `json:"next_attempt,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SyncStatsDTO is the observability snapshot the ops API serves.
// Attention mirrors the banner rule: pending + failed > 0.
type SyncStatsDTO struct {
	PendingUnsynced int            `json:"pending_unsynced"`
	PendingSynced   int            `json:"pending_synced"`
	Queue           map[string]int `json:"queue"`
	CachedWallets   int            `json:"cached_wallets"`
	CachedStands    int            `json:"cached_stands"`
	CachedProducts  int            `json:"cached_products"`
	CachedHistory   int            `json:"cached_history"`
	Attention       bool           `json:"attention"`
}

// ============================================
// Queue payload (durable, schema-versioned)
// ============================================

// PayloadVersion is the current queue payload schema version. The decoder
// rejects payloads with a different version or an unknown entity tag.
const PayloadVersion = 1

// QueuePayload is the envelope stored in sync_queue.payload. The entity
// tag selects the concrete payload shape; Version guards against replaying
// payloads written by an incompatible build.
type QueuePayload struct {
	Version    int    `json:"version"`
	EntityType string `json:"entity_type"`
	// Exactly one of the following is set, matching EntityType.
	PendingTransaction *PendingTransactionPayload `json:"pending_transaction,omitempty"`
}

// PendingTransactionPayload is the full serialised transaction carried by
// queue items of entity_type "pending_transaction". It holds everything the
// replay call needs, so dispatch never depends on the producer row.
type PendingTransactionPayload struct {
	ID               string           `json:"id"`
	WalletID         string           `json:"wallet_id"`
	UserID           string           `json:"user_id"`
	Amount           int64            `json:"amount"`
	Type             string           `json:"type"`
	StandID          *string          `json:"stand_id,omitempty"`
	StandName        string           `json:"stand_name,omitempty"`
	Description      string           `json:"description,omitempty"`
	ProductItems     []ProductItemDTO `json:"product_items,omitempty"`
	IdempotencyKey   string           `json:"idempotency_key"`
	OfflineSignature string           `json:"offline_signature"`
	DeviceID         string           `json:"device_id"`
	CreatedAt        time.Time        `json:"created_at"`
}
