package engine

import (
	"github.com/shopspring/decimal"

	"github.com/merchware/discount-engine/pkg/enums"
	"github.com/merchware/discount-engine/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Compute resolves the monetary discount for an instrument the evaluator
// already found eligible. Intermediate math stays unrounded; only the final
// amount is rounded, to 2 places, half away from zero. A zero result means
// the discount must not be applied even though the verdict was eligible.
func Compute(inst Instrument, applicableLines []types.CartLine, cartTotal decimal.Decimal) decimal.Decimal {
	base := cartTotal
	if !inst.AppliesToAllItems() {
		base = types.LinesSubtotal(applicableLines)
	}

	var amount decimal.Decimal
	switch inst.DiscountKind() {
	case enums.DiscountKindPercentage:
		amount = base.Mul(inst.DiscountValue()).Div(hundred)
		amount = clamp(amount, inst.DiscountCap())

	case enums.DiscountKindFixedAmount:
		amount = decimal.Min(inst.DiscountValue(), base)

	case enums.DiscountKindFreeShipping:
		// The shipping waiver is the caller's effect; it carries no cart value.
		return decimal.Zero

	case enums.DiscountKindCartThreshold:
		// Threshold promotions always read the whole cart, not the scoped base.
		if inst.DiscountValue().LessThanOrEqual(hundred) {
			amount = cartTotal.Mul(inst.DiscountValue()).Div(hundred)
		} else {
			amount = decimal.Min(inst.DiscountValue(), cartTotal)
		}
		amount = clamp(amount, inst.DiscountCap())

	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

func clamp(amount decimal.Decimal, cap *decimal.Decimal) decimal.Decimal {
	if cap != nil && amount.GreaterThan(*cap) {
		return *cap
	}
	return amount
}
