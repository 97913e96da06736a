package promotions

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchware/discount-engine/pkg/db/models"
	"github.com/merchware/discount-engine/pkg/enums"
	pkgerrors "github.com/merchware/discount-engine/pkg/errors"
)

func setupPromotionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// unique name per test so the shared-cache memory DB does not bleed
	// rows between the global sweep assertions
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	promotions := `
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
	require.NoError(t, db.Exec(promotions).Error)
	return db
}

func newPromotion(t *testing.T, db *gorm.DB, merchantID uuid.UUID, name string, mutate func(*models.Promotion)) *models.Promotion {
	t.Helper()

	promo := &models.Promotion{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Name:       name,
		Kind:       enums.DiscountKindPercentage,
		Value:      decimal.NewFromInt(10),
		ApplyTo:    enums.PromotionApplyToAll,
		Status:     enums.PromotionStatusActive,
	}
	if mutate != nil {
		mutate(promo)
	}
	require.NoError(t, db.Create(promo).Error)
	return promo
}

func TestListActiveByMerchantOrdering(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	merchantID := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	low := newPromotion(t, db, merchantID, "low priority", func(p *models.Promotion) {
		p.Priority = 5
		p.CreatedAt = base
	})
	high := newPromotion(t, db, merchantID, "high priority", func(p *models.Promotion) {
		p.Priority = 10
		p.CreatedAt = base
	})
	newer := newPromotion(t, db, merchantID, "newer same priority", func(p *models.Promotion) {
		p.Priority = 5
		p.CreatedAt = base.Add(time.Minute)
	})
	newPromotion(t, db, merchantID, "inactive", func(p *models.Promotion) {
		p.Priority = 99
		p.Status = enums.PromotionStatusInactive
	})
	newPromotion(t, db, uuid.New(), "other merchant", func(p *models.Promotion) {
		p.Priority = 99
	})

	rows, err := repo.ListActiveByMerchant(context.Background(), merchantID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, high.ID, rows[0].ID)
	assert.Equal(t, newer.ID, rows[1].ID)
	assert.Equal(t, low.ID, rows[2].ID)
}

func TestPromotionRecordUsageHonorsLimit(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	merchantID := uuid.New()

	limit := 3
	promo := newPromotion(t, db, merchantID, "capped", func(p *models.Promotion) {
		p.UsageLimit = &limit
	})

	successes := 0
	for i := 0; i < 6; i++ {
		if _, err := repo.RecordUsage(context.Background(), promo.ID, decimal.NewFromInt(2)); err == nil {
			successes++
		} else {
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
		}
	}
	assert.Equal(t, limit, successes)

	found, err := repo.FindByID(context.Background(), merchantID, promo.ID)
	require.NoError(t, err)
	assert.Equal(t, limit, found.UsedCount)
	assert.True(t, found.TotalDiscountGiven.Equal(decimal.NewFromInt(6)))
}

func TestSweepTransitions(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	merchantID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	started := now.Add(-time.Hour)
	notYet := now.Add(time.Hour)
	ended := now.Add(-time.Minute)

	opens := newPromotion(t, db, merchantID, "opens", func(p *models.Promotion) {
		p.Status = enums.PromotionStatusScheduled
		p.StartDate = &started
	})
	waits := newPromotion(t, db, merchantID, "waits", func(p *models.Promotion) {
		p.Status = enums.PromotionStatusScheduled
		p.StartDate = &notYet
	})
	closes := newPromotion(t, db, merchantID, "closes", func(p *models.Promotion) {
		p.EndDate = &ended
	})
	limit := 1
	exhausted := newPromotion(t, db, merchantID, "exhausted", func(p *models.Promotion) {
		p.UsageLimit = &limit
		p.UsedCount = 1
	})

	activated, err := repo.ActivateScheduled(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, activated)

	expired, err := repo.ExpireEnded(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	drained, err := repo.ExpireExhausted(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, drained)

	assertStatus := func(id uuid.UUID, want enums.PromotionStatus) {
		t.Helper()
		found, err := repo.FindByID(context.Background(), merchantID, id)
		require.NoError(t, err)
		assert.Equal(t, want, found.Status)
	}

	assertStatus(opens.ID, enums.PromotionStatusActive)
	assertStatus(waits.ID, enums.PromotionStatusScheduled)
	assertStatus(closes.ID, enums.PromotionStatusExpired)
	assertStatus(exhausted.ID, enums.PromotionStatusExpired)
}

func TestSweepActivateThenExpireSameTick(t *testing.T) {
	db := setupPromotionsTestDB(t)
	repo := NewRepository(db)
	merchantID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	start := now.Add(-time.Second)
	end := now.Add(-time.Millisecond)

	blink := newPromotion(t, db, merchantID, "blink", func(p *models.Promotion) {
		p.Status = enums.PromotionStatusScheduled
		p.StartDate = &start
		p.EndDate = &end
	})

	// activation runs first so a window that opened and closed inside one
	// tick still lands in the terminal state
	_, err := repo.ActivateScheduled(context.Background(), now)
	require.NoError(t, err)
	_, err = repo.ExpireEnded(context.Background(), now)
	require.NoError(t, err)

	found, err := repo.FindByID(context.Background(), merchantID, blink.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PromotionStatusExpired, found.Status)
}
