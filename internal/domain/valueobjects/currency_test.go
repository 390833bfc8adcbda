// Package valueobjects_test demonstrates testing value objects.
package valueobjects_test

import (
	"testing"

	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// TestNewCurrency tests currency creation and validation.
func TestNewCurrency(t *testing.T) {
	tests := []struct {
		name         string
		currencyName string
		exchangeRate float64
		wantErr      bool
	}{
		{"Valid token currency", "Jeton", 2.50, false},
		{"Rate of one", "Token", 1.0, false},
		{"Fractional rate", "Festival Coin", 0.5, false},
		{"Empty name", "", 2.0, true},
		{"Whitespace name", "   ", 2.0, true},
		{"Zero rate", "Jeton", 0, true},
		{"Negative rate", "Jeton", -1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := valueobjects.NewCurrency(tt.currencyName, tt.exchangeRate)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCurrency() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && c.ExchangeRate() != tt.exchangeRate {
				t.Errorf("ExchangeRate() = %v, want %v", c.ExchangeRate(), tt.exchangeRate)
			}
		})
	}
}

// TestCurrency_TrimsName verifies name normalization.
func TestCurrency_TrimsName(t *testing.T) {
	c, err := valueobjects.NewCurrency("  Jeton  ", 2.0)
	if err != nil {
		t.Fatalf("NewCurrency() error = %v", err)
	}
	if c.Name() != "Jeton" {
		t.Errorf("Name() = %q, want %q", c.Name(), "Jeton")
	}
}

// TestCurrency_Equals tests value comparison.
func TestCurrency_Equals(t *testing.T) {
	a := valueobjects.MustNewCurrency("Jeton", 2.5)
	b := valueobjects.MustNewCurrency("Jeton", 2.5)
	c := valueobjects.MustNewCurrency("Jeton", 3.0)

	if !a.Equals(b) {
		t.Error("identical currencies should be equal")
	}
	if a.Equals(c) {
		t.Error("different exchange rates should not be equal")
	}
}

// TestCurrency_IsZero distinguishes uninitialized currencies.
func TestCurrency_IsZero(t *testing.T) {
	var zero valueobjects.Currency
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
	if valueobjects.MustNewCurrency("Jeton", 1).IsZero() {
		t.Error("constructed currency should not report IsZero")
	}
}

// TestMustNewCurrency_Panics verifies the panic contract for bad input.
func TestMustNewCurrency_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustNewCurrency should panic on invalid input")
		}
	}()
	valueobjects.MustNewCurrency("", 1.0)
}
