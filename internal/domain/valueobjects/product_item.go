package valueobjects

import (
	"errors"
	"strings"
)

// ProductItem is one ordered line of a purchase: a product reference, the
// quantity taken and the unit price captured at sale time. Prices are
// snapshotted into the line so later catalogue updates never change a
// recorded transaction.
type ProductItem struct {
	productID string
	name      string
	quantity  int64
	unitPrice Amount
}

// ProductItem validation errors
var (
	ErrEmptyProductID  = errors.New("product id cannot be empty")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// NewProductItem creates a validated product line.
func NewProductItem(productID, name string, quantity int64, unitPrice Amount) (ProductItem, error) {
	if strings.TrimSpace(productID) == "" {
		return ProductItem{}, ErrEmptyProductID
	}
	if quantity < 1 {
		return ProductItem{}, ErrInvalidQuantity
	}
	return ProductItem{
		productID: productID,
		name:      name,
		quantity:  quantity,
		unitPrice: unitPrice,
	}, nil
}

// ProductID returns the referenced product id.
func (p ProductItem) ProductID() string { return p.productID }

// Name returns the product display name captured at sale time.
func (p ProductItem) Name() string { return p.name }

// Quantity returns the number of units sold.
func (p ProductItem) Quantity() int64 { return p.quantity }

// UnitPrice returns the per-unit price captured at sale time.
func (p ProductItem) UnitPrice() Amount { return p.unitPrice }

// LineTotal returns quantity * unit price.
func (p ProductItem) LineTotal() (Amount, error) {
	return p.unitPrice.MultiplyBy(p.quantity)
}

// ProductItems is the ordered list of lines on a purchase.
type ProductItems []ProductItem

// Total sums all line totals.
func (items ProductItems) Total() (Amount, error) {
	total := ZeroAmount()
	for _, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			return Amount{}, err
		}
		total, err = total.Add(line)
		if err != nil {
			return Amount{}, err
		}
	}
	return total, nil
}

// IsEmpty returns true when the purchase carries no product lines.
func (items ProductItems) IsEmpty() bool {
	return len(items) == 0
}
