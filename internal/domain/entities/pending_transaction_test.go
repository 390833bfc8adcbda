package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/signing"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// TestTransactionType_IsValid tests transaction type validation
func TestTransactionType_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		txType   TransactionType
		expected bool
	}{
		{"PURCHASE is valid", TransactionTypePurchase, true},
		{"PAYMENT is valid", TransactionTypePayment, true},
		{"REFUND is valid", TransactionTypeRefund, true},
		{"CANCEL is valid", TransactionTypeCancel, true},
		{"Invalid type", TransactionType("TRANSFER"), false},
		{"Empty type", TransactionType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.txType.IsValid(); got != tt.expected {
				t.Errorf("TransactionType.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// TestTransactionType_DebitsWallet tests the speculative-debit rule
func TestTransactionType_DebitsWallet(t *testing.T) {
	tests := []struct {
		name     string
		txType   TransactionType
		expected bool
	}{
		{"PURCHASE debits", TransactionTypePurchase, true},
		{"PAYMENT debits", TransactionTypePayment, true},
		{"REFUND does not debit", TransactionTypeRefund, false},
		{"CANCEL does not debit", TransactionTypeCancel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.txType.DebitsWallet(); got != tt.expected {
				t.Errorf("DebitsWallet() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func newTestPending(t *testing.T, amount int64, items valueobjects.ProductItems) *PendingTransaction {
	t.Helper()
	tx, err := NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(amount),
		TransactionTypePurchase,
		nil, "Main Bar", "",
		items,
		"test-idempotency-key",
		uuid.New(),
		time.Now(),
	)
	if err != nil {
		t.Fatalf("NewPendingTransaction() error = %v", err)
	}
	return tx
}

// TestNewPendingTransaction_Success tests successful creation
func TestNewPendingTransaction_Success(t *testing.T) {
	tx := newTestPending(t, 250, nil)

	if tx.ID() == uuid.Nil {
		t.Error("ID should be generated")
	}
	if tx.IsSynced() {
		t.Error("new transaction should not be synced")
	}
	if tx.RetryCount() != 0 {
		t.Errorf("RetryCount = %d, want 0", tx.RetryCount())
	}
	if tx.OfflineSignature() != "" {
		t.Error("new transaction should be unsigned")
	}
	if tx.CreatedAt().Location() != time.UTC {
		t.Error("createdAt should be UTC")
	}
	if tx.CreatedAt().Nanosecond() != 0 {
		t.Error("createdAt should be truncated to seconds for canonical encoding")
	}
}

// TestNewPendingTransaction_InvalidAmount rejects zero amounts before any store access
func TestNewPendingTransaction_InvalidAmount(t *testing.T) {
	_, err := NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.ZeroAmount(),
		TransactionTypePurchase,
		nil, "", "", nil,
		"key", uuid.New(), time.Now(),
	)
	if !errors.IsInvalidAmount(err) {
		t.Errorf("error = %v, want InvalidAmount", err)
	}
}

// TestNewPendingTransaction_InvalidType rejects unknown types
func TestNewPendingTransaction_InvalidType(t *testing.T) {
	_, err := NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(100),
		TransactionType("TRANSFER"),
		nil, "", "", nil,
		"key", uuid.New(), time.Now(),
	)
	if err == nil {
		t.Fatal("expected error for invalid type")
	}
}

// TestNewPendingTransaction_AmountMismatch enforces amount == sum of lines
func TestNewPendingTransaction_AmountMismatch(t *testing.T) {
	beer, _ := valueobjects.NewProductItem("prod-1", "Beer", 2, valueobjects.MustAmount(150))
	items := valueobjects.ProductItems{beer} // totals 300

	_, err := NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(250),
		TransactionTypePurchase,
		nil, "", "", items,
		"key", uuid.New(), time.Now(),
	)
	if !errors.IsBusinessRuleViolation(err) {
		t.Errorf("error = %v, want BusinessRuleViolation", err)
	}
}

// TestNewPendingTransaction_MatchingProductTotal accepts consistent lines
func TestNewPendingTransaction_MatchingProductTotal(t *testing.T) {
	beer, _ := valueobjects.NewProductItem("prod-1", "Beer", 2, valueobjects.MustAmount(150))
	fries, _ := valueobjects.NewProductItem("prod-2", "Fries", 1, valueobjects.MustAmount(200))
	items := valueobjects.ProductItems{beer, fries} // totals 500

	tx := newTestPending(t, 500, items)
	if len(tx.ProductItems()) != 2 {
		t.Errorf("ProductItems len = %d, want 2", len(tx.ProductItems()))
	}
}

// TestNewPendingTransaction_MissingIdempotencyKey requires the replay key
func TestNewPendingTransaction_MissingIdempotencyKey(t *testing.T) {
	_, err := NewPendingTransaction(
		uuid.New(), uuid.New(),
		valueobjects.MustAmount(100),
		TransactionTypePurchase,
		nil, "", "", nil,
		"", uuid.New(), time.Now(),
	)
	if !errors.IsValidationError(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

// TestPendingTransaction_Sign tests the one-shot signing rule
func TestPendingTransaction_Sign(t *testing.T) {
	signer, err := signing.NewSigner("test-device-key")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	tx := newTestPending(t, 250, nil)

	if err := tx.Sign(signer); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(tx.OfflineSignature()) != 64 {
		t.Errorf("signature length = %d, want 64", len(tx.OfflineSignature()))
	}
	if !tx.VerifySignature(signer) {
		t.Error("VerifySignature should accept the transaction's own signature")
	}

	if err := tx.Sign(signer); err == nil {
		t.Error("second Sign() should be rejected")
	}

	if err := tx.Sign(nil); err == nil {
		t.Error("Sign(nil) should be rejected")
	}
}

// TestPendingTransaction_MarkSynced tests the terminal transition
func TestPendingTransaction_MarkSynced(t *testing.T) {
	tx := newTestPending(t, 250, nil)

	if err := tx.MarkSynced(); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}
	if !tx.IsSynced() {
		t.Error("transaction should be synced")
	}

	// synced is terminal
	if err := tx.MarkSynced(); err == nil {
		t.Error("second MarkSynced() should be rejected")
	}
	if err := tx.RecordRetry("late failure"); err == nil {
		t.Error("RecordRetry after sync should be rejected")
	}
}

// TestPendingTransaction_MarkSyncedWithFailure keeps the server's refusal note
func TestPendingTransaction_MarkSyncedWithFailure(t *testing.T) {
	tx := newTestPending(t, 250, nil)

	if err := tx.MarkSyncedWithFailure("INSUFFICIENT_BALANCE: server balance 100"); err != nil {
		t.Fatalf("MarkSyncedWithFailure() error = %v", err)
	}
	if !tx.IsSynced() {
		t.Error("rejected transaction should still be terminal (synced)")
	}
	if tx.SyncError() == "" {
		t.Error("failure note should be kept")
	}
}

// TestPendingTransaction_RecordRetry tracks replay attempts
func TestPendingTransaction_RecordRetry(t *testing.T) {
	tx := newTestPending(t, 250, nil)

	if err := tx.RecordRetry("timeout"); err != nil {
		t.Fatalf("RecordRetry() error = %v", err)
	}
	if tx.RetryCount() != 1 {
		t.Errorf("RetryCount = %d, want 1", tx.RetryCount())
	}
	if tx.LastRetryAt() == nil {
		t.Error("LastRetryAt should be set")
	}
	if tx.SyncError() != "timeout" {
		t.Errorf("SyncError = %q, want %q", tx.SyncError(), "timeout")
	}
}

// TestReconstructPendingTransaction round-trips all fields
func TestReconstructPendingTransaction(t *testing.T) {
	standID := uuid.New()
	lastRetry := time.Now().UTC().Truncate(time.Second)
	createdAt := time.Date(2026, 6, 20, 18, 30, 0, 0, time.UTC)

	tx := ReconstructPendingTransaction(
		uuid.New(), uuid.New(), uuid.New(),
		valueobjects.MustAmount(250),
		TransactionTypePurchase,
		&standID, "Main Bar", "two beers",
		nil,
		"idem-key", "signature-hex", uuid.New(),
		true, 3, &lastRetry, "was rejected",
		createdAt,
	)

	if !tx.IsSynced() {
		t.Error("synced flag lost in reconstruction")
	}
	if tx.RetryCount() != 3 {
		t.Errorf("RetryCount = %d, want 3", tx.RetryCount())
	}
	if tx.StandID() == nil || *tx.StandID() != standID {
		t.Error("standID lost in reconstruction")
	}
	if !tx.CreatedAt().Equal(createdAt) {
		t.Errorf("CreatedAt = %v, want %v", tx.CreatedAt(), createdAt)
	}
}
