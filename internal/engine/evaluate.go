package engine

import (
	"time"

	"github.com/merchware/discount-engine/pkg/enums"
	"github.com/merchware/discount-engine/pkg/types"
)

// Evaluate runs the eligibility checks in a fixed order and short-circuits on
// the first failure. The order is part of the contract: it determines which
// reason a shopper sees when several conditions fail at once.
func Evaluate(inst Instrument, cart types.Cart, customerID *string, now time.Time) Verdict {
	if !inst.IsActive() {
		return ineligible(enums.ReasonInactive)
	}

	start, end := inst.Window()
	if start != nil && now.Before(*start) {
		return ineligible(enums.ReasonNotStarted)
	}
	if end != nil && now.After(*end) {
		return ineligible(enums.ReasonExpired)
	}

	if cap := inst.UsageCap(); cap != nil && inst.Redemptions() >= *cap {
		return ineligible(enums.ReasonUsageExhausted)
	}

	if customerID != nil {
		if !inst.CustomerAllowed(*customerID) {
			return ineligible(enums.ReasonNotAllowed)
		}
		if inst.SingleUse() && inst.RedeemedBy(*customerID) {
			return ineligible(enums.ReasonAlreadyUsed)
		}
	}

	if min := inst.MinimumOrder(); min != nil && cart.TotalAmount.LessThan(*min) {
		return ineligible(enums.ReasonBelowMinimum)
	}

	if inst.AppliesToAllItems() {
		return eligible(cart.Lines)
	}

	applicable := make([]types.CartLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		if inst.AppliesTo(line) {
			applicable = append(applicable, line)
		}
	}
	if len(applicable) == 0 {
		return ineligible(enums.ReasonNoApplicableItems)
	}
	return eligible(applicable)
}
