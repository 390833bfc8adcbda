// Package dtos - wallet DTOs and the server push snapshot shapes.
package dtos

import "time"

// ============================================
// Commands (write operations)
// ============================================

// WalletSnapshot is the authoritative wallet state pushed by the server
// (stats snapshot channel) or returned alongside replay ACKs. Applying one
// is always ServerWins.
type WalletSnapshot struct {
	WalletID     string     `json:"wallet_id" binding:"required,uuid"`
	UserID       string     `json:"user_id" binding:"required,uuid"`
	Balance      int64      `json:"balance" binding:"min=0"`
	CurrencyName string     `json:"currency_name" binding:"required"`
	ExchangeRate float64    `json:"exchange_rate"`
	QRCode       string     `json:"qr_code,omitempty"`
	QRExpiresAt  *time.Time `json:"qr_expires_at,omitempty"`
	SyncedAt     time.Time  `json:"synced_at"`
}

// ServerTransaction is one confirmed transaction pushed by the server for
// history browsing. Applied insert-or-ignore (Merge by id).
type ServerTransaction struct {
	ID           string     `json:"id" binding:"required,uuid"`
	WalletID     string     `json:"wallet_id" binding:"required,uuid"`
	Amount       int64      `json:"amount" binding:"min=0"`
	Type         string     `json:"type" binding:"required"`
	StandName    string     `json:"stand_name,omitempty"`
	Description  string     `json:"description,omitempty"`
	BalanceAfter *int64     `json:"balance_after,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ServerAlertDTO is an operator alert pushed by the server.
type ServerAlertDTO struct {
	Severity string `json:"severity" binding:"required,oneof=info warning critical"`
	Message  string `json:"message" binding:"required"`
}

// ============================================
// Response DTOs
// ============================================

// WalletDTO is the API representation of the cached wallet.
type WalletDTO struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Balance      int64      `json:"balance"`
	CurrencyName string     `json:"currency_name"`
	ExchangeRate float64    `json:"exchange_rate"`
	QRCode       string     `json:"qr_code,omitempty"`
	QRExpiresAt  *time.Time `json:"qr_expires_at,omitempty"`
	LastSync     time.Time  `json:"last_sync"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
