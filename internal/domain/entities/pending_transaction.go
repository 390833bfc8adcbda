// Package entities - PendingTransaction is an offline-originated monetary
// event awaiting server confirmation. This is the central entity of the
// offline core: it must stay replayable exactly once across crashes,
// retries and arbitrarily long disconnections.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/signing"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// TransactionType represents the type of offline transaction.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "PURCHASE" // Product sale at a stand
	TransactionTypePayment  TransactionType = "PAYMENT"  // Free-form payment (no product lines)
	TransactionTypeRefund   TransactionType = "REFUND"   // Refund of a previous transaction
	TransactionTypeCancel   TransactionType = "CANCEL"   // Cancellation of a previous transaction
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypePayment, TransactionTypeRefund, TransactionTypeCancel:
		return true
	default:
		return false
	}
}

// DebitsWallet returns true for types that spend from the cached wallet.
// Business rule: only PURCHASE and PAYMENT debit the local balance
// speculatively; REFUND and CANCEL wait for server confirmation.
func (t TransactionType) DebitsWallet() bool {
	return t == TransactionTypePurchase || t == TransactionTypePayment
}

// PendingTransaction is an Entity with identity (id + idempotency key) and a
// small state machine: unsynced -> synced, where synced is terminal.
//
// The offline signature covers the identity fields (see the signing package),
// so a row read back from the store is verifiable end to end.
type PendingTransaction struct {
	id       uuid.UUID
	walletID uuid.UUID
	userID   uuid.UUID
	amount   valueobjects.Amount
	txType   TransactionType

	// Optional sale context
	standID      *uuid.UUID
	standName    string
	description  string
	productItems valueobjects.ProductItems

	// Replay identity
	idempotencyKey   string
	offlineSignature string
	deviceID         uuid.UUID

	// Sync bookkeeping
	synced      bool
	retryCount  int
	lastRetryAt *time.Time
	syncError   string

	createdAt time.Time
}

// NewPendingTransaction creates an unsigned pending transaction.
//
// Business rules:
// - Type must be one of PURCHASE, PAYMENT, REFUND, CANCEL
// - Amount must be positive
// - When product lines are present, amount must equal their total
// - Idempotency key is required (derived by the engine before creation)
//
// createdAt is passed in rather than taken from the clock here because the
// idempotency key is derived from the same instant before construction.
// The caller signs the result with Sign before persisting it.
func NewPendingTransaction(
	walletID, userID uuid.UUID,
	amount valueobjects.Amount,
	txType TransactionType,
	standID *uuid.UUID,
	standName, description string,
	productItems valueobjects.ProductItems,
	idempotencyKey string,
	deviceID uuid.UUID,
	createdAt time.Time,
) (*PendingTransaction, error) {
	if !txType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}

	if !amount.IsPositive() {
		return nil, errors.NewDomainError(
			"INVALID_AMOUNT",
			"transaction amount must be positive",
			errors.ErrInvalidAmount,
		)
	}

	if !productItems.IsEmpty() {
		total, err := productItems.Total()
		if err != nil {
			return nil, err
		}
		if !total.Equals(amount) {
			return nil, errors.NewBusinessRuleViolation(
				"AMOUNT_MISMATCH",
				"amount must equal the sum of product lines",
				map[string]interface{}{
					"amount":     amount.MinorUnits(),
					"line_total": total.MinorUnits(),
				},
			)
		}
	}

	if idempotencyKey == "" {
		return nil, errors.ValidationError{
			Field:   "idempotencyKey",
			Message: "idempotency key is required",
		}
	}

	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &PendingTransaction{
		id:             uuid.New(),
		walletID:       walletID,
		userID:         userID,
		amount:         amount,
		txType:         txType,
		standID:        standID,
		standName:      standName,
		description:    description,
		productItems:   productItems,
		idempotencyKey: idempotencyKey,
		deviceID:       deviceID,
		createdAt:      createdAt.UTC().Truncate(time.Second),
	}, nil
}

// ReconstructPendingTransaction rehydrates a PendingTransaction from stored data.
func ReconstructPendingTransaction(
	id, walletID, userID uuid.UUID,
	amount valueobjects.Amount,
	txType TransactionType,
	standID *uuid.UUID,
	standName, description string,
	productItems valueobjects.ProductItems,
	idempotencyKey, offlineSignature string,
	deviceID uuid.UUID,
	synced bool,
	retryCount int,
	lastRetryAt *time.Time,
	syncError string,
	createdAt time.Time,
) *PendingTransaction {
	return &PendingTransaction{
		id:               id,
		walletID:         walletID,
		userID:           userID,
		amount:           amount,
		txType:           txType,
		standID:          standID,
		standName:        standName,
		description:      description,
		productItems:     productItems,
		idempotencyKey:   idempotencyKey,
		offlineSignature: offlineSignature,
		deviceID:         deviceID,
		synced:           synced,
		retryCount:       retryCount,
		lastRetryAt:      lastRetryAt,
		syncError:        syncError,
		createdAt:        createdAt,
	}
}

// Getters

func (p *PendingTransaction) ID() uuid.UUID {
	return p.id
}

func (p *PendingTransaction) WalletID() uuid.UUID {
	return p.walletID
}

func (p *PendingTransaction) UserID() uuid.UUID {
	return p.userID
}

func (p *PendingTransaction) Amount() valueobjects.Amount {
	return p.amount
}

func (p *PendingTransaction) Type() TransactionType {
	return p.txType
}

func (p *PendingTransaction) StandID() *uuid.UUID {
	return p.standID
}

func (p *PendingTransaction) StandName() string {
	return p.standName
}

func (p *PendingTransaction) Description() string {
	return p.description
}

func (p *PendingTransaction) ProductItems() valueobjects.ProductItems {
	return p.productItems
}

func (p *PendingTransaction) IdempotencyKey() string {
	return p.idempotencyKey
}

func (p *PendingTransaction) OfflineSignature() string {
	return p.offlineSignature
}

func (p *PendingTransaction) DeviceID() uuid.UUID {
	return p.deviceID
}

func (p *PendingTransaction) IsSynced() bool {
	return p.synced
}

func (p *PendingTransaction) RetryCount() int {
	return p.retryCount
}

func (p *PendingTransaction) LastRetryAt() *time.Time {
	return p.lastRetryAt
}

func (p *PendingTransaction) SyncError() string {
	return p.syncError
}

func (p *PendingTransaction) CreatedAt() time.Time {
	return p.createdAt
}

// Business Methods

// SignaturePayload returns the canonical fields covered by the offline
// signature. The encoding itself lives in the signing package.
func (p *PendingTransaction) SignaturePayload() signing.Payload {
	standID := ""
	if p.standID != nil {
		standID = p.standID.String()
	}
	return signing.Payload{
		ID:             p.id.String(),
		WalletID:       p.walletID.String(),
		UserID:         p.userID.String(),
		Amount:         p.amount.MinorUnits(),
		Type:           string(p.txType),
		StandID:        standID,
		IdempotencyKey: p.idempotencyKey,
		CreatedAt:      p.createdAt,
	}
}

// Sign computes and attaches the offline signature.
// Business rule: a transaction is signed exactly once, before it is persisted.
func (p *PendingTransaction) Sign(signer *signing.Signer) error {
	if signer == nil {
		return errors.ErrDeviceNotProvisioned
	}
	if p.offlineSignature != "" {
		return errors.NewBusinessRuleViolation(
			"ALREADY_SIGNED",
			"transaction already carries an offline signature",
			map[string]interface{}{"id": p.id.String()},
		)
	}
	p.offlineSignature = signer.Sign(p.SignaturePayload())
	return nil
}

// VerifySignature recomputes the signature and compares it in constant time.
func (p *PendingTransaction) VerifySignature(signer *signing.Signer) bool {
	if signer == nil {
		return false
	}
	return signer.Verify(p.SignaturePayload(), p.offlineSignature)
}

// MarkSynced transitions to the terminal synced state after a server ACK.
func (p *PendingTransaction) MarkSynced() error {
	if p.synced {
		return errors.ErrTransactionAlreadySynced
	}
	p.synced = true
	p.syncError = ""
	return nil
}

// MarkSyncedWithFailure terminates the transaction after an authoritative
// server rejection. The row is kept (synced=true) with the failure note so
// operators can audit what the server refused and why.
func (p *PendingTransaction) MarkSyncedWithFailure(note string) error {
	if p.synced {
		return errors.ErrTransactionAlreadySynced
	}
	p.synced = true
	p.syncError = note
	return nil
}

// RecordRetry notes a failed replay attempt.
func (p *PendingTransaction) RecordRetry(errMsg string) error {
	if p.synced {
		return errors.ErrTransactionAlreadySynced
	}
	now := time.Now().UTC()
	p.retryCount++
	p.lastRetryAt = &now
	p.syncError = errMsg
	return nil
}
