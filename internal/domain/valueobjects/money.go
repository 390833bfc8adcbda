// Package valueobjects holds the immutable building blocks of the offline
// core. Amount is the most critical one: every monetary value in the system
// is a non-negative integer count of the smallest currency unit (cents or
// festival tokens), so arithmetic is exact and storage is a plain INTEGER.
package valueobjects

import (
	"errors"
	"fmt"
)

// Amount represents a monetary value in minor units.
//
// Value Object Pattern:
// - Immutable: all operations return new Amount instances
// - Self-validating: cannot create a negative Amount
type Amount struct {
	minorUnits int64
}

// Common domain errors for Amount operations
var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrAmountOverflow     = errors.New("amount overflow")
)

// NewAmount creates an Amount from minor units (cents / tokens).
//
// Returns ErrNegativeAmount for negative inputs; debits and credits are
// modelled by the transaction type, never by the sign.
func NewAmount(minorUnits int64) (Amount, error) {
	if minorUnits < 0 {
		return Amount{}, ErrNegativeAmount
	}
	return Amount{minorUnits: minorUnits}, nil
}

// MustAmount creates an Amount and panics on invalid input.
// Only for constants and tests.
func MustAmount(minorUnits int64) Amount {
	a, err := NewAmount(minorUnits)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroAmount returns the zero amount.
func ZeroAmount() Amount {
	return Amount{}
}

// MinorUnits returns the raw integer value. This is the storage and wire
// representation.
func (a Amount) MinorUnits() int64 {
	return a.minorUnits
}

// String returns a human-readable representation, e.g. "250 units".
func (a Amount) String() string {
	return fmt.Sprintf("%d units", a.minorUnits)
}

// Add returns a new Amount with the sum of two amounts.
func (a Amount) Add(other Amount) (Amount, error) {
	sum := a.minorUnits + other.minorUnits
	if sum < a.minorUnits {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{minorUnits: sum}, nil
}

// Subtract returns a new Amount with the difference.
// Returns ErrInsufficientAmount if the result would be negative; amounts
// never go below zero.
func (a Amount) Subtract(other Amount) (Amount, error) {
	if a.minorUnits < other.minorUnits {
		return Amount{}, ErrInsufficientAmount
	}
	return Amount{minorUnits: a.minorUnits - other.minorUnits}, nil
}

// MultiplyBy returns the amount scaled by a non-negative integer factor.
// Used for product line totals (quantity * unit price).
func (a Amount) MultiplyBy(factor int64) (Amount, error) {
	if factor < 0 {
		return Amount{}, ErrNegativeAmount
	}
	if factor != 0 && a.minorUnits > (int64(^uint64(0)>>1))/factor {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{minorUnits: a.minorUnits * factor}, nil
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.minorUnits == 0
}

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a.minorUnits > 0
}

// GreaterThanOrEqual checks if this amount is >= another.
func (a Amount) GreaterThanOrEqual(other Amount) bool {
	return a.minorUnits >= other.minorUnits
}

// LessThan checks if this amount is less than another.
func (a Amount) LessThan(other Amount) bool {
	return a.minorUnits < other.minorUnits
}

// Equals checks if two amounts are equal.
func (a Amount) Equals(other Amount) bool {
	return a.minorUnits == other.minorUnits
}
