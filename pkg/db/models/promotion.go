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

// Promotion is an automatically-applied campaign. Unlike coupons it has a
// scheduled state, a ranking priority, and no per-customer redemption set;
// the lifecycle sweeper moves its status as time and usage advance.
type Promotion struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID         uuid.UUID              `gorm:"column:merchant_id;type:uuid;not null;index"`
	Name               string                 `gorm:"column:name;not null"`
	Kind               enums.DiscountKind     `gorm:"column:kind;type:discount_kind;not null"`
	Value              decimal.Decimal        `gorm:"column:value;type:numeric(12,2);not null"`
	MaxDiscountAmount  *decimal.Decimal       `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	MinCartAmount      *decimal.Decimal       `gorm:"column:min_cart_amount;type:numeric(12,2)"`
	UsageLimit         *int                   `gorm:"column:usage_limit"`
	UsedCount          int                    `gorm:"column:used_count;not null;default:0"`
	AllowedCustomers   pq.StringArray         `gorm:"column:allowed_customers;type:text[]"`
	ApplyTo            enums.PromotionApplyTo `gorm:"column:apply_to;type:promotion_apply_to;not null;default:'all'"`
	Products           dbtypes.UUIDArray      `gorm:"column:products;type:uuid[]"`
	Categories         dbtypes.UUIDArray      `gorm:"column:categories;type:uuid[]"`
	StartDate          *time.Time             `gorm:"column:start_date"`
	EndDate            *time.Time             `gorm:"column:end_date"`
	Status             enums.PromotionStatus  `gorm:"column:status;type:promotion_status;not null;default:'active'"`
	Priority           int                    `gorm:"column:priority;not null;default:0"`
	TotalDiscountGiven decimal.Decimal        `gorm:"column:total_discount_given;type:numeric(12,2);not null;default:0"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Promotion) TableName() string { return "promotions" }

func (p Promotion) InstrumentID() uuid.UUID { return p.ID }

func (p Promotion) DiscountKind() enums.DiscountKind { return p.Kind }

func (p Promotion) DiscountValue() decimal.Decimal { return p.Value }

func (p Promotion) DiscountCap() *decimal.Decimal { return p.MaxDiscountAmount }

func (p Promotion) MinimumOrder() *decimal.Decimal { return p.MinCartAmount }

func (p Promotion) UsageCap() *int { return p.UsageLimit }

func (p Promotion) Redemptions() int { return p.UsedCount }

func (p Promotion) Window() (*time.Time, *time.Time) { return p.StartDate, p.EndDate }

func (p Promotion) IsActive() bool { return p.Status == enums.PromotionStatusActive }

// CustomerAllowed reports whether the customer passes the allow-list.
// An empty allow-list means the promotion is open to everyone.
func (p Promotion) CustomerAllowed(customerID string) bool {
	if len(p.AllowedCustomers) == 0 {
		return true
	}
	for _, allowed := range p.AllowedCustomers {
		if allowed == customerID {
			return true
		}
	}
	return false
}

// SingleUse is always false; promotions do not track per-customer redemption.
func (p Promotion) SingleUse() bool { return false }

func (p Promotion) RedeemedBy(string) bool { return false }

func (p Promotion) AppliesToAllItems() bool { return p.ApplyTo == enums.PromotionApplyToAll }

// AppliesTo reports whether a cart line falls inside the promotion's scope.
// A scoped promotion with an empty id set matches nothing; the evaluator
// degrades that to no_applicable_items rather than failing the cart.
func (p Promotion) AppliesTo(line types.CartLine) bool {
	switch p.ApplyTo {
	case enums.PromotionApplyToAll:
		return true
	case enums.PromotionApplyToProducts:
		return p.Products.Contains(line.ProductID)
	case enums.PromotionApplyToCategories:
		return line.CategoryID != nil && p.Categories.Contains(*line.CategoryID)
	default:
		return false
	}
}
