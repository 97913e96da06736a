package redemption_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchware/discount-engine/internal/coupons"
	"github.com/merchware/discount-engine/internal/promotions"
	"github.com/merchware/discount-engine/internal/redemption"
	"github.com/merchware/discount-engine/pkg/db/models"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
	"github.com/merchware/discount-engine/pkg/logger"
	"github.com/merchware/discount-engine/pkg/types"
)

func setupEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	couponsTable := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  value TEXT NOT NULL,
  max_discount_amount TEXT,
  min_order_amount TEXT,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  one_time_per_customer INTEGER NOT NULL DEFAULT 0,
  used_by_customers TEXT,
  allowed_customers TEXT,
  store_wide INTEGER NOT NULL DEFAULT 1,
  products TEXT,
  categories TEXT,
  start_date DATETIME,
  end_date DATETIME,
  status TEXT NOT NULL DEFAULT 'active',
  total_discount_given TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (merchant_id, code)
);`
	promotionsTable := `
CREATE TABLE IF NOT EXISTS promotions (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  value TEXT NOT NULL,
  max_discount_amount TEXT,
  min_cart_amount TEXT,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  allowed_customers TEXT,
  apply_to TEXT NOT NULL DEFAULT 'all',
  products TEXT,
  categories TEXT,
  start_date DATETIME,
  end_date DATETIME,
  status TEXT NOT NULL DEFAULT 'active',
  priority INTEGER NOT NULL DEFAULT 0,
  total_discount_given TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(couponsTable).Error)
	require.NoError(t, db.Exec(promotionsTable).Error)
	return db
}

func TestCouponRedemptionEndToEnd(t *testing.T) {
	db := setupEngineTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "redemption-e2e", Output: io.Discard})

	couponRepo := coupons.NewRepository(db)
	promoRepo := promotions.NewRepository(db)
	svc, err := redemption.NewService(couponRepo, promoRepo, logg)
	require.NoError(t, err)

	merchantID := uuid.New()
	limit := 1
	minOrder := decimal.NewFromInt(50)
	coupon := &models.Coupon{
		ID:             uuid.New(),
		MerchantID:     merchantID,
		Code:           "SAVE10",
		Name:           "Ten percent",
		Kind:           enums.DiscountKindPercentage,
		Value:          decimal.NewFromInt(10),
		MinOrderAmount: &minOrder,
		UsageLimit:     &limit,
		StoreWide:      true,
		Status:         enums.CouponStatusActive,
	}
	require.NoError(t, db.Create(coupon).Error)

	cart := types.Cart{
		Lines: []types.CartLine{
			{ProductID: uuid.New(), UnitPrice: decimal.NewFromInt(100), Quantity: 1},
		},
		TotalAmount: decimal.NewFromInt(100),
	}

	ctx := context.Background()

	decision, err := svc.ValidateCoupon(ctx, merchantID, "SAVE10", cart, nil)
	require.NoError(t, err)
	require.True(t, decision.Eligible)
	assert.Equal(t, "10.00", decision.Discount.StringFixed(2))

	updated, err := svc.RecordCouponUsage(ctx, coupon.ID, decision.Discount, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UsedCount)

	// validate stays advisory after the cap is hit; only recordUsage enforces it
	again, err := svc.ValidateCoupon(ctx, merchantID, "SAVE10", cart, nil)
	require.NoError(t, err)
	assert.False(t, again.Eligible)
	assert.Equal(t, enums.ReasonUsageExhausted, again.Reason)

	_, err = svc.RecordCouponUsage(ctx, coupon.ID, decision.Discount, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestPromotionCandidatesEndToEnd(t *testing.T) {
	db := setupEngineTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "redemption-e2e", Output: io.Discard})

	svc, err := redemption.NewService(coupons.NewRepository(db), promotions.NewRepository(db), logg)
	require.NoError(t, err)

	merchantID := uuid.New()
	mk := func(name string, priority int, value int64) *models.Promotion {
		promo := &models.Promotion{
			ID:         uuid.New(),
			MerchantID: merchantID,
			Name:       name,
			Kind:       enums.DiscountKindPercentage,
			Value:      decimal.NewFromInt(value),
			ApplyTo:    enums.PromotionApplyToAll,
			Status:     enums.PromotionStatusActive,
			Priority:   priority,
		}
		require.NoError(t, db.Create(promo).Error)
		return promo
	}

	second := mk("runner up", 5, 5)
	first := mk("headliner", 10, 20)

	cart := types.Cart{
		Lines: []types.CartLine{
			{ProductID: uuid.New(), UnitPrice: decimal.NewFromInt(80), Quantity: 1},
		},
		TotalAmount: decimal.NewFromInt(80),
	}

	candidates, err := svc.ApplicablePromotions(context.Background(), merchantID, cart, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, first.ID, candidates[0].Promotion.ID)
	assert.Equal(t, "16.00", candidates[0].Discount.StringFixed(2))
	assert.Equal(t, second.ID, candidates[1].Promotion.ID)
	assert.Equal(t, "4.00", candidates[1].Discount.StringFixed(2))

	applied, err := svc.RecordPromotionUsage(context.Background(), first.ID, candidates[0].Discount)
	require.NoError(t, err)
	assert.Equal(t, 1, applied.UsedCount)
}
