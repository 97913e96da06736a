package enums

import "fmt"

// PromotionApplyTo scopes which cart lines a promotion can discount.
type PromotionApplyTo string

const (
	PromotionApplyToAll        PromotionApplyTo = "all"
	PromotionApplyToProducts   PromotionApplyTo = "products"
	PromotionApplyToCategories PromotionApplyTo = "categories"
)

var validPromotionApplyTos = []PromotionApplyTo{
	PromotionApplyToAll,
	PromotionApplyToProducts,
	PromotionApplyToCategories,
}

// String implements fmt.Stringer.
func (p PromotionApplyTo) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromotionApplyTo.
func (p PromotionApplyTo) IsValid() bool {
	for _, candidate := range validPromotionApplyTos {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromotionApplyTo converts raw input into a PromotionApplyTo.
func ParsePromotionApplyTo(value string) (PromotionApplyTo, error) {
	for _, candidate := range validPromotionApplyTos {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion apply_to %q", value)
}
