package valueobjects_test

import (
	"testing"

	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// TestNewProductItem tests product line creation and validation.
func TestNewProductItem(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int64
		unitPrice int64
		wantErr   bool
	}{
		{"Valid line", "prod-1", 2, 150, false},
		{"Single unit", "prod-2", 1, 0, false},
		{"Empty product id", "", 1, 100, true},
		{"Whitespace product id", "   ", 1, 100, true},
		{"Zero quantity", "prod-3", 0, 100, true},
		{"Negative quantity", "prod-4", -2, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := valueobjects.NewProductItem(tt.productID, "Beer", tt.quantity, valueobjects.MustAmount(tt.unitPrice))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProductItem() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && item.Quantity() != tt.quantity {
				t.Errorf("Quantity() = %d, want %d", item.Quantity(), tt.quantity)
			}
		})
	}
}

// TestProductItem_LineTotal tests quantity * unit price.
func TestProductItem_LineTotal(t *testing.T) {
	item, err := valueobjects.NewProductItem("prod-1", "Beer", 3, valueobjects.MustAmount(150))
	if err != nil {
		t.Fatalf("NewProductItem() error = %v", err)
	}

	total, err := item.LineTotal()
	if err != nil {
		t.Fatalf("LineTotal() error = %v", err)
	}
	if total.MinorUnits() != 450 {
		t.Errorf("LineTotal() = %d, want 450", total.MinorUnits())
	}
}

// TestProductItems_Total tests summing an ordered list of lines.
// Business Rule: the transaction amount must equal this total.
func TestProductItems_Total(t *testing.T) {
	beer, _ := valueobjects.NewProductItem("prod-1", "Beer", 2, valueobjects.MustAmount(150))
	fries, _ := valueobjects.NewProductItem("prod-2", "Fries", 1, valueobjects.MustAmount(200))

	items := valueobjects.ProductItems{beer, fries}

	total, err := items.Total()
	if err != nil {
		t.Fatalf("Total() error = %v", err)
	}
	if total.MinorUnits() != 500 {
		t.Errorf("Total() = %d, want 500", total.MinorUnits())
	}

	if items.IsEmpty() {
		t.Error("non-empty list should not report IsEmpty")
	}
	if !(valueobjects.ProductItems{}).IsEmpty() {
		t.Error("empty list should report IsEmpty")
	}
}
