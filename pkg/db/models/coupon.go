package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	dbtypes "github.com/merchware/discount-engine/pkg/db/types"
	"github.com/merchware/discount-engine/pkg/enums"
	"github.com/merchware/discount-engine/pkg/types"
)

// Coupon is a merchant-issued redemption code. Usage accounting fields
// (UsedCount, TotalDiscountGiven, UsedByCustomers) are mutated only through
// the redemption coordinator's conditional update; everything else is set
// at creation or by an explicit status change.
type Coupon struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID         uuid.UUID          `gorm:"column:merchant_id;type:uuid;not null;uniqueIndex:idx_coupons_merchant_code"`
	Code               string             `gorm:"column:code;not null;uniqueIndex:idx_coupons_merchant_code"`
	Name               string             `gorm:"column:name;not null"`
	Kind               enums.DiscountKind `gorm:"column:kind;type:discount_kind;not null"`
	Value              decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MaxDiscountAmount  *decimal.Decimal   `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	MinOrderAmount     *decimal.Decimal   `gorm:"column:min_order_amount;type:numeric(12,2)"`
	UsageLimit         *int               `gorm:"column:usage_limit"`
	UsedCount          int                `gorm:"column:used_count;not null;default:0"`
	OneTimePerCustomer bool               `gorm:"column:one_time_per_customer;not null;default:false"`
	UsedByCustomers    pq.StringArray     `gorm:"column:used_by_customers;type:text[]"`
	AllowedCustomers   pq.StringArray     `gorm:"column:allowed_customers;type:text[]"`
	StoreWide          bool               `gorm:"column:store_wide;not null;default:true"`
	Products           dbtypes.UUIDArray  `gorm:"column:products;type:uuid[]"`
	Categories         dbtypes.UUIDArray  `gorm:"column:categories;type:uuid[]"`
	StartDate          *time.Time         `gorm:"column:start_date"`
	EndDate            *time.Time         `gorm:"column:end_date"`
	Status             enums.CouponStatus `gorm:"column:status;type:coupon_status;not null;default:'active'"`
	TotalDiscountGiven decimal.Decimal    `gorm:"column:total_discount_given;type:numeric(12,2);not null;default:0"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Coupon) TableName() string { return "coupons" }

func (c Coupon) InstrumentID() uuid.UUID { return c.ID }

func (c Coupon) DiscountKind() enums.DiscountKind { return c.Kind }

func (c Coupon) DiscountValue() decimal.Decimal { return c.Value }

func (c Coupon) DiscountCap() *decimal.Decimal { return c.MaxDiscountAmount }

func (c Coupon) MinimumOrder() *decimal.Decimal { return c.MinOrderAmount }

func (c Coupon) UsageCap() *int { return c.UsageLimit }

func (c Coupon) Redemptions() int { return c.UsedCount }

func (c Coupon) Window() (*time.Time, *time.Time) { return c.StartDate, c.EndDate }

func (c Coupon) IsActive() bool { return c.Status == enums.CouponStatusActive }

// CustomerAllowed reports whether the customer passes the allow-list.
// An empty allow-list means the coupon is open to everyone.
func (c Coupon) CustomerAllowed(customerID string) bool {
	if len(c.AllowedCustomers) == 0 {
		return true
	}
	for _, allowed := range c.AllowedCustomers {
		if allowed == customerID {
			return true
		}
	}
	return false
}

func (c Coupon) SingleUse() bool { return c.OneTimePerCustomer }

// RedeemedBy reports whether the customer already redeemed this coupon.
func (c Coupon) RedeemedBy(customerID string) bool {
	for _, used := range c.UsedByCustomers {
		if used == customerID {
			return true
		}
	}
	return false
}

func (c Coupon) AppliesToAllItems() bool { return c.StoreWide }

// AppliesTo reports whether a cart line falls inside the coupon's scope.
func (c Coupon) AppliesTo(line types.CartLine) bool {
	if c.StoreWide {
		return true
	}
	if c.Products.Contains(line.ProductID) {
		return true
	}
	if line.CategoryID != nil && c.Categories.Contains(*line.CategoryID) {
		return true
	}
	return false
}
