package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// Currency describes a festival token currency: a display name and the
// exchange rate against the festival's settlement currency. Every festival
// defines its own (e.g. "Jeton" at 2.50), so there is no whitelist; the
// server is the source of truth and the client only validates shape.
//
// Value Object Pattern: no identity, compared by value, immutable.
type Currency struct {
	name         string
	exchangeRate float64
}

// Currency validation errors
var (
	ErrEmptyCurrencyName    = errors.New("currency name cannot be empty")
	ErrInvalidExchangeRate  = errors.New("exchange rate must be positive")
)

// NewCurrency creates a Currency value object with validation.
func NewCurrency(name string, exchangeRate float64) (Currency, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Currency{}, ErrEmptyCurrencyName
	}
	if exchangeRate <= 0 {
		return Currency{}, ErrInvalidExchangeRate
	}
	return Currency{name: name, exchangeRate: exchangeRate}, nil
}

// MustNewCurrency panics on invalid input. Use only in initialization code
// and tests where invalid input indicates a programming error.
func MustNewCurrency(name string, exchangeRate float64) Currency {
	c, err := NewCurrency(name, exchangeRate)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the display name of the token currency.
func (c Currency) Name() string {
	return c.name
}

// ExchangeRate returns the rate against the settlement currency.
func (c Currency) ExchangeRate() float64 {
	return c.exchangeRate
}

// Equals checks if two currencies are the same.
func (c Currency) Equals(other Currency) bool {
	return c.name == other.name && c.exchangeRate == other.exchangeRate
}

// String implements fmt.Stringer for readable output, e.g. "Jeton (x2.50)".
func (c Currency) String() string {
	return fmt.Sprintf("%s (x%.2f)", c.name, c.exchangeRate)
}

// IsZero checks if this is an uninitialized currency.
func (c Currency) IsZero() bool {
	return c.name == ""
}
