package enums

// IneligibilityReason explains why an instrument was rejected for a cart.
// These are expected, user-facing outcomes returned as data, never as
// errors; the evaluation pipeline emits the first failing reason.
type IneligibilityReason string

const (
	ReasonInactive          IneligibilityReason = "inactive"
	ReasonNotStarted        IneligibilityReason = "not_started"
	ReasonExpired           IneligibilityReason = "expired"
	ReasonUsageExhausted    IneligibilityReason = "usage_exhausted"
	ReasonNotAllowed        IneligibilityReason = "not_allowed"
	ReasonAlreadyUsed       IneligibilityReason = "already_used"
	ReasonBelowMinimum      IneligibilityReason = "below_minimum"
	ReasonNoApplicableItems IneligibilityReason = "no_applicable_items"
)

// String implements fmt.Stringer.
func (r IneligibilityReason) String() string {
	return string(r)
}
