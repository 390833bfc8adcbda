// Package errors defines domain-specific error types for the offline core.
// Typed errors (instead of strings) let callers branch on the cases they
// care about: the sync queue retries StoreBusy but not InvalidAmount, the
// ops API maps InsufficientBalance to 402, and so on.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for domain validation
var (
	// Store lifecycle errors
	ErrStoreUnavailable = errors.New("local store unavailable")
	ErrStoreBusy        = errors.New("local store busy")
	ErrStoreCorrupt     = errors.New("local store corrupt")

	// Lookup errors
	ErrWalletNotCached             = errors.New("wallet not cached locally")
	ErrPendingTransactionNotFound  = errors.New("pending transaction not found")
	ErrSyncItemNotFound            = errors.New("sync queue item not found")
	ErrStandNotFound               = errors.New("stand not cached locally")
	ErrProductNotFound             = errors.New("product not cached locally")
	ErrCachedTransactionNotFound   = errors.New("cached transaction not found")

	// Pending transaction errors
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrDeviceNotProvisioned     = errors.New("device HMAC key not provisioned")
	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrTransactionAlreadySynced = errors.New("transaction already synced")
	ErrDuplicateIdempotencyKey  = errors.New("duplicate idempotency key")

	// Sync queue errors
	ErrInvalidSyncOperation = errors.New("invalid sync operation")
	ErrInvalidSyncStatus    = errors.New("invalid sync queue status")
	ErrInvalidPriority      = errors.New("priority out of range")
	ErrUnknownEntityType    = errors.New("no handler registered for entity type")
	ErrQueueShuttingDown    = errors.New("sync queue is shutting down")
	ErrItemNotRetryable     = errors.New("sync queue item is not in a retryable state")
)

// DomainError wraps an error with a machine-readable code and a human-readable
// message while preserving the error chain.
type DomainError struct {
	Code    string // Machine-readable error code (e.g., "INSUFFICIENT_BALANCE")
	Message string // Human-readable message
	Err     error  // Underlying error (for error chains)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MigrationError reports a failed schema migration. Migrations after the
// failed version are not attempted, so Version always names the first failure.
type MigrationError struct {
	Version int    // Migration version that failed
	Name    string // Migration name for operator logs
	Err     error  // Underlying cause
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d (%s) failed: %v", e.Version, e.Name, e.Err)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a new migration error.
func NewMigrationError(version int, name string, err error) *MigrationError {
	return &MigrationError{Version: version, Name: name, Err: err}
}

// MonetaryRejection is the server's authoritative refusal of a monetary
// operation (e.g. insufficient balance server-side despite local optimism).
// It is permanent: the item is never retried, the speculative debit is
// reverted, and the server balance (when reported) replaces the cached one.
type MonetaryRejection struct {
	Code          string // Server error code (e.g., "INSUFFICIENT_BALANCE")
	Message       string // Server-provided explanation
	ServerBalance *int64 // Authoritative balance when the server reported one
}

// Error implements the error interface.
func (e *MonetaryRejection) Error() string {
	return fmt.Sprintf("monetary rejection [%s]: %s", e.Code, e.Message)
}

// NewMonetaryRejection creates a new monetary rejection error.
func NewMonetaryRejection(code, message string, serverBalance *int64) *MonetaryRejection {
	return &MonetaryRejection{Code: code, Message: message, ServerBalance: serverBalance}
}

// ValidationError represents validation failures with field-level details.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // What went wrong
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(e))
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// BusinessRuleViolation represents a violation of a business rule.
// Unlike validation errors (which are about data format), these are about
// business logic: "amount must equal the sum of product lines" is a rule,
// not a format check.
type BusinessRuleViolation struct {
	Rule    string                 // Rule that was violated (e.g., "AMOUNT_MISMATCH")
	Message string                 // Human-readable explanation
	Context map[string]interface{} // Additional context (e.g., {"amount": 250, "lines": 300})
}

// Error implements the error interface.
func (e BusinessRuleViolation) Error() string {
	return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
}

// NewBusinessRuleViolation creates a new business rule violation error.
func NewBusinessRuleViolation(rule, message string, context map[string]interface{}) *BusinessRuleViolation {
	return &BusinessRuleViolation{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// Helper functions for common error checking

// IsNotFound checks if an error is any of the "not cached / not found" kinds.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWalletNotCached) ||
		errors.Is(err, ErrPendingTransactionNotFound) ||
		errors.Is(err, ErrSyncItemNotFound) ||
		errors.Is(err, ErrStandNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCachedTransactionNotFound)
}

// IsInsufficientBalance checks for the local precondition failure.
func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsInvalidAmount checks for amount validation failures.
func IsInvalidAmount(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}

// IsDeviceNotProvisioned checks whether the device HMAC key is missing.
func IsDeviceNotProvisioned(err error) bool {
	return errors.Is(err, ErrDeviceNotProvisioned)
}

// IsStoreBusy reports a transient storage error that is safe to retry.
func IsStoreBusy(err error) bool {
	return errors.Is(err, ErrStoreBusy)
}

// IsStoreCorrupt reports a fatal storage error requiring the recovery path.
func IsStoreCorrupt(err error) bool {
	return errors.Is(err, ErrStoreCorrupt)
}

// IsMigrationFailed checks if an error is a migration error.
func IsMigrationFailed(err error) bool {
	var me *MigrationError
	return errors.As(err, &me)
}

// IsMonetaryRejection checks if an error is a server-side monetary rejection.
func IsMonetaryRejection(err error) bool {
	var mr *MonetaryRejection
	return errors.As(err, &mr)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var valErr ValidationError
	var valErrs ValidationErrors
	return errors.As(err, &valErr) || errors.As(err, &valErrs)
}

// IsBusinessRuleViolation checks if an error is a business rule violation.
func IsBusinessRuleViolation(err error) bool {
	var brv *BusinessRuleViolation
	return errors.As(err, &brv)
}
