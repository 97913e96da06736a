package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchware/discount-engine/pkg/enums"
	"github.com/merchware/discount-engine/pkg/types"
)

// Instrument is the capability surface the evaluator and calculator need from
// a discount record. Both coupon and promotion models satisfy it, which keeps
// the scope-matching and window logic in one place instead of drifting apart
// per instrument kind.
type Instrument interface {
	InstrumentID() uuid.UUID
	DiscountKind() enums.DiscountKind
	DiscountValue() decimal.Decimal
	DiscountCap() *decimal.Decimal
	MinimumOrder() *decimal.Decimal
	UsageCap() *int
	Redemptions() int
	Window() (start *time.Time, end *time.Time)
	IsActive() bool
	CustomerAllowed(customerID string) bool
	SingleUse() bool
	RedeemedBy(customerID string) bool
	AppliesToAllItems() bool
	AppliesTo(line types.CartLine) bool
}
