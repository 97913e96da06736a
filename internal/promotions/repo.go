package promotions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merchware/discount-engine/pkg/db/models"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
	"github.com/merchware/discount-engine/pkg/pagination"
)

// Repository owns promotion persistence.
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

// FindByID loads a promotion scoped to the merchant.
func (r *Repository) FindByID(ctx context.Context, merchantID, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	err := r.db.WithContext(ctx).
		First(&promo, "merchant_id = ? AND id = ?", merchantID, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, err
	}
	return &promo, nil
}

// Create inserts a new promotion row.
func (r *Repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// List returns a cursor page of the merchant's promotions, newest first.
func (r *Repository) List(ctx context.Context, merchantID uuid.UUID, params pagination.Params) ([]models.Promotion, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Promotion
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

// ListActiveByMerchant returns the merchant's active promotions ranked by
// priority, then by creation recency. The redemption coordinator walks this
// list when surfacing auto-apply candidates.
func (r *Repository) ListActiveByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND status = ?", merchantID, enums.PromotionStatusActive).
		Order("priority DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).
		Error
	return rows, err
}

// UpdateStatus moves a promotion to the requested status.
func (r *Repository) UpdateStatus(ctx context.Context, merchantID, id uuid.UUID, status enums.PromotionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("merchant_id = ? AND id = ?", merchantID, id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	return nil
}

// RecordUsage accounts one application in a single conditional update, with
// the same ceiling discipline as coupon redemption.
func (r *Repository) RecordUsage(ctx context.Context, id uuid.UUID, discountAmount decimal.Decimal) (*models.Promotion, error) {
	var updated models.Promotion

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Promotion{}).
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
			if err := tx.Model(&models.Promotion{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "usage_exhausted").
				WithDetails(map[string]string{"reason": string(enums.ReasonUsageExhausted)})
		}

		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ActivateScheduled flips scheduled promotions whose window has opened.
func (r *Repository) ActivateScheduled(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("status = ?", enums.PromotionStatusScheduled).
		Where("start_date IS NOT NULL AND start_date <= ?", now).
		Update("status", enums.PromotionStatusActive)
	return res.RowsAffected, res.Error
}

// ExpireEnded expires active or scheduled promotions whose window has closed.
func (r *Repository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("status IN ?", []enums.PromotionStatus{enums.PromotionStatusActive, enums.PromotionStatusScheduled}).
		Where("end_date IS NOT NULL AND end_date < ?", now).
		Update("status", enums.PromotionStatusExpired)
	return res.RowsAffected, res.Error
}

// ExpireExhausted expires active promotions that have hit their usage ceiling.
func (r *Repository) ExpireExhausted(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("status = ?", enums.PromotionStatusActive).
		Where("usage_limit IS NOT NULL AND used_count >= usage_limit").
		Update("status", enums.PromotionStatusExpired)
	return res.RowsAffected, res.Error
}
