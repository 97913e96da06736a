package enums

import "fmt"

// DiscountKind discriminates how an instrument's value is interpreted.
// Coupons and promotions share the percentage and fixed_amount kinds;
// free_shipping is coupon-only and cart_threshold is promotion-only.
type DiscountKind string

const (
	DiscountKindPercentage    DiscountKind = "percentage"
	DiscountKindFixedAmount   DiscountKind = "fixed_amount"
	DiscountKindFreeShipping  DiscountKind = "free_shipping"
	DiscountKindCartThreshold DiscountKind = "cart_threshold"
)

var validCouponKinds = []DiscountKind{
	DiscountKindPercentage,
	DiscountKindFixedAmount,
	DiscountKindFreeShipping,
}

var validPromotionKinds = []DiscountKind{
	DiscountKindPercentage,
	DiscountKindFixedAmount,
	DiscountKindCartThreshold,
}

// String implements fmt.Stringer.
func (k DiscountKind) String() string {
	return string(k)
}

// ValidForCoupon reports whether the kind belongs to the coupon vocabulary.
func (k DiscountKind) ValidForCoupon() bool {
	for _, candidate := range validCouponKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ValidForPromotion reports whether the kind belongs to the promotion vocabulary.
func (k DiscountKind) ValidForPromotion() bool {
	for _, candidate := range validPromotionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCouponKind converts raw input into a coupon DiscountKind.
func ParseCouponKind(value string) (DiscountKind, error) {
	for _, candidate := range validCouponKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon kind %q", value)
}

// ParsePromotionKind converts raw input into a promotion DiscountKind.
func ParsePromotionKind(value string) (DiscountKind, error) {
	for _, candidate := range validPromotionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion kind %q", value)
}
