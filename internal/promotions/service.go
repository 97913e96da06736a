package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/merchware/discount-engine/pkg/db/models"
	dbtypes "github.com/merchware/discount-engine/pkg/db/types"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
	"github.com/merchware/discount-engine/pkg/pagination"
	"github.com/merchware/discount-engine/pkg/validate"
)

// Service exposes merchant promotion management operations.
type Service interface {
	Create(ctx context.Context, merchantID uuid.UUID, input CreateInput) (*models.Promotion, error)
	GetByID(ctx context.Context, merchantID, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ListResult, error)
	SetStatus(ctx context.Context, merchantID, id uuid.UUID, status enums.PromotionStatus) error
}

// CreateInput holds the payload to create a promotion.
type CreateInput struct {
	Name              string           `json:"name" validate:"required,max=255"`
	Kind              string           `json:"kind" validate:"required"`
	Value             decimal.Decimal  `json:"value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MinCartAmount     *decimal.Decimal `json:"min_cart_amount"`
	UsageLimit        *int             `json:"usage_limit"`
	AllowedCustomers  []string         `json:"allowed_customers"`
	ApplyTo           string           `json:"apply_to"`
	Products          []uuid.UUID      `json:"products"`
	Categories        []uuid.UUID      `json:"categories"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
	Priority          int              `json:"priority"`
}

// ListResult is one cursor page of promotions.
type ListResult struct {
	Promotions []models.Promotion
	NextCursor string
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs a promotion service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, merchantID uuid.UUID, input CreateInput) (*models.Promotion, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	kind, err := enums.ParsePromotionKind(input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion kind")
	}
	if input.Value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
	}
	if kind == enums.DiscountKindPercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value must be between 0 and 100")
	}
	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage_limit must be at least 1")
	}

	applyTo := enums.PromotionApplyToAll
	if input.ApplyTo != "" {
		applyTo, err = enums.ParsePromotionApplyTo(input.ApplyTo)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid apply_to")
		}
	}
	switch applyTo {
	case enums.PromotionApplyToProducts:
		if len(input.Products) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product-scoped promotion needs products")
		}
	case enums.PromotionApplyToCategories:
		if len(input.Categories) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category-scoped promotion needs categories")
		}
	}

	// A future start lands the promotion in scheduled; the sweeper flips it
	// once the window opens.
	status := enums.PromotionStatusActive
	if input.StartDate != nil && input.StartDate.After(s.now()) {
		status = enums.PromotionStatusScheduled
	}

	promo := &models.Promotion{
		ID:                uuid.New(),
		MerchantID:        merchantID,
		Name:              input.Name,
		Kind:              kind,
		Value:             input.Value,
		MaxDiscountAmount: input.MaxDiscountAmount,
		MinCartAmount:     input.MinCartAmount,
		UsageLimit:        input.UsageLimit,
		// non-nil so the array persists as an empty set, not NULL
		AllowedCustomers: append(pq.StringArray{}, input.AllowedCustomers...),
		ApplyTo:          applyTo,
		Products:         dbtypes.UUIDArray(input.Products),
		Categories:       dbtypes.UUIDArray(input.Categories),
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		Status:           status,
		Priority:         input.Priority,
	}

	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert promotion")
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*models.Promotion, error) {
	return s.repo.FindByID(ctx, merchantID, id)
}

func (s *service) List(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*ListResult, error) {
	rows, nextCursor, err := s.repo.List(ctx, merchantID, params)
	if err != nil {
		return nil, err
	}
	return &ListResult{Promotions: rows, NextCursor: nextCursor}, nil
}

func (s *service) SetStatus(ctx context.Context, merchantID, id uuid.UUID, status enums.PromotionStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion status")
	}
	return s.repo.UpdateStatus(ctx, merchantID, id, status)
}
