package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one caller-supplied line item. The engine never persists
// carts; it only evaluates them.
type CartLine struct {
	ProductID  uuid.UUID       `json:"product_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// Subtotal returns unit price times quantity, unrounded.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the proposed order an instrument is evaluated against.
// TotalAmount is precomputed by the caller and is the authoritative cart
// total for minimum-order and cart-threshold checks.
type Cart struct {
	Lines       []CartLine      `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// LinesSubtotal sums the line subtotals, unrounded.
func LinesSubtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
