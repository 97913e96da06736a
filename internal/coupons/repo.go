package coupons

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merchware/discount-engine/pkg/db/models"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
	"github.com/merchware/discount-engine/pkg/pagination"
)

// Repository owns coupon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a coupon scoped to the merchant.
func (r *Repository) FindByID(ctx context.Context, merchantID, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		First(&coupon, "merchant_id = ? AND id = ?", merchantID, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, err
	}
	return &coupon, nil
}

// FindByMerchantAndCode loads a coupon by its redemption code.
func (r *Repository) FindByMerchantAndCode(ctx context.Context, merchantID uuid.UUID, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		First(&coupon, "merchant_id = ? AND code = ?", merchantID, code).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, err
	}
	return &coupon, nil
}

// Create inserts a new coupon row.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// List returns a cursor page of the merchant's coupons, newest first.
func (r *Repository) List(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]models.Coupon, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Coupon
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	page, more := pagination.TrimPage(rows, params.Limit)
	nextCursor := ""
	if more {
		last := page[len(page)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nextCursor, nil
}

// UpdateStatus moves a coupon to the requested status.
func (r *Repository) UpdateStatus(ctx context.Context, merchantID, id uuid.UUID, status enums.CouponStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("merchant_id = ? AND id = ?", merchantID, id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

// RecordUsage accounts one redemption in a single conditional update. The
// usage ceiling is enforced by the WHERE predicate, so concurrent callers can
// never push used_count past usage_limit. When a customer id is supplied it
// is appended to used_by_customers inside the same transaction.
func (r *Repository) RecordUsage(ctx context.Context, id uuid.UUID, discountAmount decimal.Decimal, customerID *string) (*models.Coupon, error) {
	var updated models.Coupon

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Coupon{}).
			Where("id = ?", id).
			Where("usage_limit IS NULL OR used_count < usage_limit").
			Updates(map[string]any{
				"used_count":           gorm.Expr("used_count + 1"),
				"total_discount_given": gorm.Expr("total_discount_given + ?", discountAmount),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Coupon{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "usage_exhausted").
				WithDetails(map[string]string{"reason": string(enums.ReasonUsageExhausted)})
		}

		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return err
		}

		if customerID != nil && !updated.RedeemedBy(*customerID) {
			updated.UsedByCustomers = append(updated.UsedByCustomers, *customerID)
			if err := tx.Model(&models.Coupon{}).
				Where("id = ?", id).
				Update("used_by_customers", updated.UsedByCustomers).
				Error; err != nil {
				return fmt.Errorf("append redeemed customer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
