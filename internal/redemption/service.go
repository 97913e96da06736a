package redemption

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchware/discount-engine/internal/engine"
	"github.com/merchware/discount-engine/pkg/db/models"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
	"github.com/merchware/discount-engine/pkg/logger"
	"github.com/merchware/discount-engine/pkg/types"
)

// Decision is the outcome of validating a single instrument against a cart.
// Discount is only meaningful when Eligible is true; a zero discount on an
// eligible verdict still means "do not apply". Kind lets callers tell a
// free-shipping instrument (zero monetary discount, waive shipping) apart
// from one that simply computed to zero.
type Decision struct {
	Eligible bool
	Reason   enums.IneligibilityReason
	Kind     enums.DiscountKind
	Discount decimal.Decimal

	ApplicableLines []types.CartLine
}

// Candidate is one auto-apply promotion surfaced for a cart, carrying its
// computed discount. Candidates are advisory; the caller decides how many
// to stack.
type Candidate struct {
	Promotion       models.Promotion
	Discount        decimal.Decimal
	ApplicableLines []types.CartLine
}

// Service coordinates eligibility, computation, and usage accounting across
// both instrument kinds.
type Service interface {
	ValidateCoupon(ctx context.Context, merchantID uuid.UUID, code string, cart types.Cart, customerID *string) (*Decision, error)
	ValidatePromotion(ctx context.Context, merchantID, promotionID uuid.UUID, cart types.Cart, customerID *string) (*Decision, error)
	ApplyCoupon(ctx context.Context, merchantID uuid.UUID, code string, cart types.Cart, customerID *string) (*Decision, error)
	ApplyPromotion(ctx context.Context, merchantID, promotionID uuid.UUID, cart types.Cart, customerID *string) (*Decision, error)
	ApplicablePromotions(ctx context.Context, merchantID uuid.UUID, cart types.Cart, customerID *string) ([]Candidate, error)
	RecordCouponUsage(ctx context.Context, couponID uuid.UUID, discountAmount decimal.Decimal, customerID *string) (*models.Coupon, error)
	RecordPromotionUsage(ctx context.Context, promotionID uuid.UUID, discountAmount decimal.Decimal) (*models.Promotion, error)
}

type couponStore interface {
	FindByMerchantAndCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Coupon, error)
	RecordUsage(ctx context.Context, id uuid.UUID, discountAmount decimal.Decimal, customerID *string) (*models.Coupon, error)
}

type promotionStore interface {
	FindByID(ctx context.Context, merchantID, id uuid.UUID) (*models.Promotion, error)
	ListActiveByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.Promotion, error)
	RecordUsage(ctx context.Context, id uuid.UUID, discountAmount decimal.Decimal) (*models.Promotion, error)
}

type service struct {
	coupons    couponStore
	promotions promotionStore
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs the redemption coordinator.
func NewService(coupons couponStore, promotions promotionStore, logg *logger.Logger) (Service, error) {
	if coupons == nil {
		return nil, fmt.Errorf("coupon store required")
	}
	if promotions == nil {
		return nil, fmt.Errorf("promotion store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		coupons:    coupons,
		promotions: promotions,
		logg:       logg,
		now:        time.Now,
	}, nil
}

func (s *service) ValidateCoupon(ctx context.Context, merchantID uuid.UUID, code string, cart types.Cart, customerID *string) (*Decision, error) {
	coupon, err := s.coupons.FindByMerchantAndCode(ctx, merchantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, *coupon, cart, customerID), nil
}

func (s *service) ValidatePromotion(ctx context.Context, merchantID, promotionID uuid.UUID, cart types.Cart, customerID *string) (*Decision, error) {
	promo, err := s.promotions.FindByID(ctx, merchantID, promotionID)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, *promo, cart, customerID), nil
}

// ApplyCoupon is the strict variant of ValidateCoupon: an ineligible verdict
// or a zero computed discount comes back as a state conflict instead of a
// negative decision, for callers that treat application as all-or-nothing.
func (s *service) ApplyCoupon(ctx context.Context, merchantID uuid.UUID, code string, cart types.Cart, customerID *string) (*Decision, error) {
	decision, err := s.ValidateCoupon(ctx, merchantID, code, cart, customerID)
	if err != nil {
		return nil, err
	}
	if !decision.Eligible {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon not applicable").
			WithDetails(map[string]string{"reason": string(decision.Reason)})
	}
	if decision.Discount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "coupon yields no discount").
			WithDetails(map[string]string{"reason": string(enums.ReasonNoApplicableItems)})
	}
	return decision, nil
}

// ApplyPromotion is the strict variant of ValidatePromotion, mirroring
// ApplyCoupon's all-or-nothing contract.
func (s *service) ApplyPromotion(ctx context.Context, merchantID, promotionID uuid.UUID, cart types.Cart, customerID *string) (*Decision, error) {
	decision, err := s.ValidatePromotion(ctx, merchantID, promotionID, cart, customerID)
	if err != nil {
		return nil, err
	}
	if !decision.Eligible {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "promotion not applicable").
			WithDetails(map[string]string{"reason": string(decision.Reason)})
	}
	if decision.Discount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "promotion yields no discount").
			WithDetails(map[string]string{"reason": string(enums.ReasonNoApplicableItems)})
	}
	return decision, nil
}

// ApplicablePromotions evaluates every active promotion for the merchant and
// returns those with a strictly positive discount, ranked by priority then
// creation recency.
func (s *service) ApplicablePromotions(ctx context.Context, merchantID uuid.UUID, cart types.Cart, customerID *string) ([]Candidate, error) {
	active, err := s.promotions.ListActiveByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(active))
	for _, promo := range active {
		if !promo.ApplyTo.IsValid() {
			ctx := s.logg.WithInstrumentID(ctx, promo.ID.String())
			s.logg.Warn(ctx, "promotion has malformed scope, skipping")
			continue
		}

		verdict := engine.Evaluate(promo, cart, customerID, s.now())
		if !verdict.Eligible {
			continue
		}
		discount := engine.Compute(promo, verdict.ApplicableLines, cart.TotalAmount)
		if !discount.IsPositive() {
			continue
		}
		candidates = append(candidates, Candidate{
			Promotion:       promo,
			Discount:        discount,
			ApplicableLines: verdict.ApplicableLines,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Promotion, candidates[j].Promotion
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return candidates, nil
}

// RecordCouponUsage accounts a confirmed redemption. It does not re-validate;
// callers re-run ValidateCoupon right before confirming to narrow the
// check-to-use gap, and must treat a state conflict here as usage_exhausted.
func (s *service) RecordCouponUsage(ctx context.Context, couponID uuid.UUID, discountAmount decimal.Decimal, customerID *string) (*models.Coupon, error) {
	if discountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must not be negative")
	}
	return s.coupons.RecordUsage(ctx, couponID, discountAmount, customerID)
}

// RecordPromotionUsage accounts a confirmed promotion application.
func (s *service) RecordPromotionUsage(ctx context.Context, promotionID uuid.UUID, discountAmount decimal.Decimal) (*models.Promotion, error) {
	if discountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must not be negative")
	}
	return s.promotions.RecordUsage(ctx, promotionID, discountAmount)
}

func (s *service) decide(ctx context.Context, inst engine.Instrument, cart types.Cart, customerID *string) *Decision {
	verdict := engine.Evaluate(inst, cart, customerID, s.now())
	if !verdict.Eligible {
		return &Decision{Reason: verdict.Reason, Kind: inst.DiscountKind()}
	}

	discount := engine.Compute(inst, verdict.ApplicableLines, cart.TotalAmount)
	return &Decision{
		Eligible:        true,
		Kind:            inst.DiscountKind(),
		Discount:        discount,
		ApplicableLines: verdict.ApplicableLines,
	}
}
