// Package entities - CachedWallet is the locally materialised view of a
// wallet the user may spend from while offline. The cached balance is the
// only row field offline operations mutate, and it must never go below zero.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// CachedWallet mirrors the server wallet plus local bookkeeping.
//
// Entity Pattern:
// - Identity: wallet id; at most one row per user
// - Mutations: speculative debit, revert, server snapshot adoption
// - The server stays authoritative; lastSync records how fresh the copy is
type CachedWallet struct {
	id       uuid.UUID
	userID   uuid.UUID
	balance  valueobjects.Amount
	currency valueobjects.Currency

	// QR payload the POS renders for scanning; provisioned by the server
	qrCode      string
	qrExpiresAt *time.Time

	lastSync  time.Time
	createdAt time.Time
	updatedAt time.Time
}

// NewCachedWallet materialises a wallet from a server snapshot.
func NewCachedWallet(
	id, userID uuid.UUID,
	balance valueobjects.Amount,
	currency valueobjects.Currency,
	qrCode string,
	qrExpiresAt *time.Time,
	lastSync time.Time,
) (*CachedWallet, error) {
	if currency.IsZero() {
		return nil, errors.ValidationError{
			Field:   "currency",
			Message: "currency is required",
		}
	}

	now := time.Now().UTC()
	if lastSync.IsZero() {
		lastSync = now
	}

	return &CachedWallet{
		id:          id,
		userID:      userID,
		balance:     balance,
		currency:    currency,
		qrCode:      qrCode,
		qrExpiresAt: qrExpiresAt,
		lastSync:    lastSync,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructCachedWallet rehydrates a CachedWallet from stored data.
func ReconstructCachedWallet(
	id, userID uuid.UUID,
	balance valueobjects.Amount,
	currency valueobjects.Currency,
	qrCode string,
	qrExpiresAt *time.Time,
	lastSync, createdAt, updatedAt time.Time,
) *CachedWallet {
	return &CachedWallet{
		id:          id,
		userID:      userID,
		balance:     balance,
		currency:    currency,
		qrCode:      qrCode,
		qrExpiresAt: qrExpiresAt,
		lastSync:    lastSync,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Getters

func (w *CachedWallet) ID() uuid.UUID {
	return w.id
}

func (w *CachedWallet) UserID() uuid.UUID {
	return w.userID
}

func (w *CachedWallet) Balance() valueobjects.Amount {
	return w.balance
}

func (w *CachedWallet) Currency() valueobjects.Currency {
	return w.currency
}

func (w *CachedWallet) QRCode() string {
	return w.qrCode
}

func (w *CachedWallet) QRExpiresAt() *time.Time {
	return w.qrExpiresAt
}

func (w *CachedWallet) LastSync() time.Time {
	return w.lastSync
}

func (w *CachedWallet) CreatedAt() time.Time {
	return w.createdAt
}

func (w *CachedWallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// Business Methods

// HasSufficientBalance checks the cached balance against an amount.
func (w *CachedWallet) HasSufficientBalance(amount valueobjects.Amount) bool {
	return w.balance.GreaterThanOrEqual(amount)
}

// SpeculativeDebit decrements the cached balance before server confirmation.
// Business rule: the cached balance never goes below zero, so locally
// validated intents can never overspend what the device knows about.
func (w *CachedWallet) SpeculativeDebit(amount valueobjects.Amount) error {
	if !w.HasSufficientBalance(amount) {
		return errors.ErrInsufficientBalance
	}

	newBalance, err := w.balance.Subtract(amount)
	if err != nil {
		return errors.ErrInsufficientBalance
	}

	w.balance = newBalance
	w.updatedAt = time.Now().UTC()
	return nil
}

// Credit adds funds back to the cached balance. Used to revert a
// speculative debit and to apply server-confirmed top-ups.
func (w *CachedWallet) Credit(amount valueobjects.Amount) error {
	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.updatedAt = time.Now().UTC()
	return nil
}

// AdoptServerBalance overwrites the cached balance with the authoritative
// server value (ServerWins). Called after reconciliation and on snapshots.
func (w *CachedWallet) AdoptServerBalance(balance valueobjects.Amount, syncedAt time.Time) {
	w.balance = balance
	w.lastSync = syncedAt.UTC()
	w.updatedAt = time.Now().UTC()
}

// RefreshQR replaces the QR payload the POS renders.
func (w *CachedWallet) RefreshQR(qrCode string, expiresAt *time.Time) {
	w.qrCode = qrCode
	w.qrExpiresAt = expiresAt
	w.updatedAt = time.Now().UTC()
}

// HasValidQR reports whether a QR payload is present and unexpired.
func (w *CachedWallet) HasValidQR(now time.Time) bool {
	if w.qrCode == "" {
		return false
	}
	if w.qrExpiresAt == nil {
		return true
	}
	return now.Before(*w.qrExpiresAt)
}
