package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/merchware/discount-engine/pkg/migrate"
)

func readMigration(t *testing.T, glob string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", glob))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", glob)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCouponsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_coupons_table.sql")

	checks := []string{
		"CREATE TYPE discount_kind AS ENUM",
		"CREATE TYPE coupon_status AS ENUM",
		"CREATE TABLE IF NOT EXISTS coupons",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_coupons_merchant_code",
		"CREATE INDEX IF NOT EXISTS idx_coupons_merchant_status",
		"used_by_customers TEXT[]",
		"CONSTRAINT chk_coupons_used_count_nonnegative CHECK (used_count >= 0)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPromotionsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_promotions_table.sql")

	checks := []string{
		"CREATE TYPE promotion_status AS ENUM",
		"CREATE TYPE promotion_apply_to AS ENUM",
		"CREATE TABLE IF NOT EXISTS promotions",
		"CREATE INDEX IF NOT EXISTS idx_promotions_merchant_status",
		"CREATE INDEX IF NOT EXISTS idx_promotions_status_end_date",
		"priority INTEGER NOT NULL DEFAULT 0",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
