package promo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sign_ops/internal/model"
)

func redeemDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.PromoCode{}, &model.PromoCodeUsage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestRedeemNeverExceedsMaxUses(t *testing.T) {
	db := redeemDB(t)

	one := 1
	code := &model.PromoCode{
		Code:          "LASTONE",
		DiscountType:  model.DiscountFixed,
		DiscountValue: dec("30.00"),
		MaxUses:       &one,
		IsActive:      true,
	}
	if err := db.Create(code).Error; err != nil {
		t.Fatalf("create code: %v", err)
	}

	const racers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			err := Redeem(context.Background(), db, code, 1, orderID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrExhausted):
				losses++
			default:
				t.Errorf("Redeem: %v", err)
			}
		}(uint(i + 1))
	}
	wg.Wait()

	if wins != 1 || losses != racers-1 {
		t.Errorf("wins = %d losses = %d, want 1 and %d", wins, losses, racers-1)
	}

	var got model.PromoCode
	if err := db.First(&got, code.ID).Error; err != nil {
		t.Fatalf("reload code: %v", err)
	}
	if got.CurrentUses != 1 {
		t.Errorf("current_uses = %d, want 1", got.CurrentUses)
	}
	var usages int64
	db.Model(&model.PromoCodeUsage{}).Where("promo_code_id = ?", code.ID).Count(&usages)
	if usages != 1 {
		t.Errorf("usage rows = %d, want 1", usages)
	}
}

func TestRedeemUnlimitedUses(t *testing.T) {
	db := redeemDB(t)

	code := &model.PromoCode{
		Code:          "EVERGREEN",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: dec("10"),
		IsActive:      true,
	}
	if err := db.Create(code).Error; err != nil {
		t.Fatalf("create code: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := Redeem(context.Background(), db, code, 1, uint(i)); err != nil {
			t.Fatalf("redemption %d: %v", i, err)
		}
	}

	var got model.PromoCode
	db.First(&got, code.ID)
	if got.CurrentUses != 3 {
		t.Errorf("current_uses = %d, want 3", got.CurrentUses)
	}
}
