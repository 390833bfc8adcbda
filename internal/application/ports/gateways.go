// Package ports - outbound gateways to the authoritative server.
package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReplayRequest is the wire body of POST /api/v1/payments. Field names and
// types are fixed by the server contract; the offline signature covers a
// canonical subset of them (see the signing package).
type ReplayRequest struct {
	ID               string              `json:"id"`
	WalletID         string              `json:"wallet_id"`
	UserID           string              `json:"user_id"`
	Amount           int64               `json:"amount"`
	Type             string              `json:"type"`
	StandID          string              `json:"stand_id,omitempty"`
	StandName        string              `json:"stand_name,omitempty"`
	Description      string              `json:"description,omitempty"`
	ProductItems     []ReplayProductItem `json:"product_items,omitempty"`
	IdempotencyKey   string              `json:"idempotency_key"`
	OfflineSignature string              `json:"offline_signature"`
	DeviceID         string              `json:"device_id"`
	CreatedAt        string              `json:"created_at"` // RFC3339 UTC
}

// ReplayProductItem is one product line on the wire.
type ReplayProductItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// ReplayResult is a successful server ACK (HTTP 201, or 200 on an
// idempotent replay).
type ReplayResult struct {
	TransactionID uuid.UUID // server-side transaction id
	BalanceAfter  int64     // authoritative balance after the operation
	Replayed      bool      // true when the server had already seen this key
}

// ReplayError is a non-2xx server response that is not a monetary
// rejection (those surface as *errors.MonetaryRejection instead).
type ReplayError struct {
	StatusCode int
	Code       string // server error code, e.g. "INVALID_SIGNATURE"
	Message    string
	RetryAfter time.Duration // parsed Retry-After on 429, else zero
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay rejected [%d %s]: %s", e.StatusCode, e.Code, e.Message)
}

// SyncTrigger wakes the sync dispatcher outside its heartbeat. Implemented
// by the queue; called after a new item is committed so fresh work does not
// wait for the next tick.
type SyncTrigger interface {
	Trigger()
}

// ReplayGateway submits pending transactions to the authoritative server.
//
// Implementations must honour the context deadline, must send the
// idempotency key so the server can deduplicate, and must map responses:
// 402 -> *errors.MonetaryRejection, other non-2xx -> *ReplayError,
// transport failures -> the raw error for the classifier.
type ReplayGateway interface {
	SubmitPayment(ctx context.Context, req ReplayRequest) (*ReplayResult, error)
}
