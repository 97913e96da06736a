package engine

import (
	"github.com/merchware/discount-engine/pkg/enums"
	"github.com/merchware/discount-engine/pkg/types"
)

// Verdict is the outcome of evaluating an instrument against a cart.
// Ineligibility is data, not an error; callers branch on Eligible and surface
// Reason to the shopper.
type Verdict struct {
	Eligible bool
	Reason   enums.IneligibilityReason

	// ApplicableLines holds the cart lines inside the instrument's scope.
	// For store-wide instruments it is the full cart. The calculator reuses
	// it so scope matching runs once per evaluation.
	ApplicableLines []types.CartLine
}

func eligible(lines []types.CartLine) Verdict {
	return Verdict{Eligible: true, ApplicableLines: lines}
}

func ineligible(reason enums.IneligibilityReason) Verdict {
	return Verdict{Reason: reason}
}
