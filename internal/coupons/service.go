package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/merchware/discount-engine/pkg/db"
	"github.com/merchware/discount-engine/pkg/db/models"
	dbtypes "github.com/merchware/discount-engine/pkg/db/types"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
	"github.com/merchware/discount-engine/pkg/pagination"
	"github.com/merchware/discount-engine/pkg/validate"
)

// Service exposes merchant coupon management operations.
type Service interface {
	Create(ctx context.Context, merchantID uuid.UUID, input CreateInput) (*models.Coupon, error)
	GetByCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Coupon, error)
	List(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ListResult, error)
	SetStatus(ctx context.Context, merchantID, id uuid.UUID, status enums.CouponStatus) error
}

// CreateInput holds the payload to create a coupon.
type CreateInput struct {
	Code               string           `json:"code" validate:"required,min=2,max=64"`
	Name               string           `json:"name" validate:"required,max=255"`
	Kind               string           `json:"kind" validate:"required"`
	Value              decimal.Decimal  `json:"value"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount"`
	MinOrderAmount     *decimal.Decimal `json:"min_order_amount"`
	UsageLimit         *int             `json:"usage_limit"`
	OneTimePerCustomer bool             `json:"one_time_per_customer"`
	AllowedCustomers   []string         `json:"allowed_customers"`
	StoreWide          *bool            `json:"store_wide"`
	Products           []uuid.UUID      `json:"products"`
	Categories         []uuid.UUID      `json:"categories"`
	StartDate          *time.Time       `json:"start_date"`
	EndDate            *time.Time       `json:"end_date"`
}

// ListResult is one cursor page of coupons.
type ListResult struct {
	Coupons    []models.Coupon
	NextCursor string
}

type service struct {
	repo *Repository
}

// NewService constructs a coupon service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, merchantID uuid.UUID, input CreateInput) (*models.Coupon, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	kind, err := enums.ParseCouponKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon kind")
	}
	if err := validateValue(kind, input.Value); err != nil {
		return nil, err
	}
	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage_limit must be at least 1")
	}

	storeWide := true
	if input.StoreWide != nil {
		storeWide = *input.StoreWide
	}
	if !storeWide && len(input.Products) == 0 && len(input.Categories) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scoped coupon needs products or categories")
	}

	coupon := &models.Coupon{
		ID:                 uuid.New(),
		MerchantID:         merchantID,
		Code:               strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:               input.Name,
		Kind:               kind,
		Value:              input.Value,
		MaxDiscountAmount:  input.MaxDiscountAmount,
		MinOrderAmount:     input.MinOrderAmount,
		UsageLimit:         input.UsageLimit,
		OneTimePerCustomer: input.OneTimePerCustomer,
		// non-nil so the arrays persist as empty sets, not NULL
		UsedByCustomers:  pq.StringArray{},
		AllowedCustomers: append(pq.StringArray{}, input.AllowedCustomers...),
		StoreWide:        storeWide,
		Products:         dbtypes.UUIDArray(input.Products),
		Categories:       dbtypes.UUIDArray(input.Categories),
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		Status:           enums.CouponStatusActive,
	}

	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert coupon")
	}
	return created, nil
}

func (s *service) GetByCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	return s.repo.FindByMerchantAndCode(ctx, merchantID, normalized)
}

func (s *service) List(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, merchantID, params)
	if err != nil {
		return nil, err
	}
	return &ListResult{Coupons: rows, NextCursor: nextCursor}, nil
}

func (s *service) SetStatus(ctx context.Context, merchantID, id uuid.UUID, status enums.CouponStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon status")
	}
	return s.repo.UpdateStatus(ctx, merchantID, id, status)
}

func validateValue(kind enums.DiscountKind, value decimal.Decimal) error {
	if value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
	}
	if kind == enums.DiscountKindPercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage value must be between 0 and 100")
	}
	return nil
}
