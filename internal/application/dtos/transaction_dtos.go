// Package dtos carries data across the application boundary: commands and
// queries in, response DTOs out, plus the durable sync-queue payload format.
package dtos

import "time"

// ============================================
// Commands (write operations)
// ============================================

// CreatePendingTransactionCommand is the user intent "pay N from wallet W
// at stand S". The engine derives identity (id, idempotency key, signature)
// itself; callers only describe the sale.
type CreatePendingTransactionCommand struct {
	WalletID     string             `json:"wallet_id" binding:"required,uuid"`
	UserID       string             `json:"user_id" binding:"required,uuid"`
	Amount       int64              `json:"amount" binding:"required,min=1"`
	Type         string             `json:"type" binding:"required,oneof=PURCHASE PAYMENT REFUND CANCEL"`
	StandID      string             `json:"stand_id,omitempty" binding:"omitempty,uuid"`
	StandName    string             `json:"stand_name,omitempty"`
	Description  string             `json:"description,omitempty"`
	ProductItems []ProductItemInput `json:"product_items,omitempty" binding:"omitempty,dive"`
}

// ProductItemInput is one product line of a purchase intent.
type ProductItemInput struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Name      string `json:"name,omitempty"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice int64  `json:"unit_price" binding:"min=0"`
}

// RetryFailedItemCommand re-arms a failed sync queue item.
type RetryFailedItemCommand struct {
	ItemID string `json:"item_id" binding:"required,uuid"`
}

// ============================================
// Queries (read operations)
// ============================================

// ListPendingTransactionsQuery filters the local pending log.
type ListPendingTransactionsQuery struct {
	WalletID *string `form:"wallet_id" binding:"omitempty,uuid"`
	Synced   *bool   `form:"synced"`
	Offset   int     `form:"offset" binding:"min=0"`
	Limit    int     `form:"limit" binding:"min=0,max=200"`
}

// ============================================
// Response DTOs
// ============================================

// PendingTransactionDTO is the API representation of a pending transaction.
type PendingTransactionDTO struct {
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
	Synced           bool             `json:"synced"`
	RetryCount       int              `json:"retry_count"`
	LastRetryAt      *time.Time       `json:"last_retry_at,omitempty"`
	Error            string           `json:"error,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ProductItemDTO is one product line in API responses and queue payloads.
type ProductItemDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// PendingTransactionListDTO pages the pending log.
type PendingTransactionListDTO struct {
	Transactions []PendingTransactionDTO `json:"transactions"`
	Offset       int                     `json:"offset"`
	Limit        int                     `json:"limit"`
}

// CachedTransactionDTO is one confirmed history row.
type CachedTransactionDTO struct {
	ID           string    `json:"id"`
	WalletID     string    `json:"wallet_id"`
	Amount       int64     `json:"amount"`
	Type         string    `json:"type"`
	StandName    string    `json:"stand_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	BalanceAfter *int64    `json:"balance_after,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
