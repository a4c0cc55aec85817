package promo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sign_ops/internal/model"
)

var (
	// ErrInvalidCode covers not-found and inactive codes on the explicit
	// apply-code path. The checkout path treats the same condition as
	// "no discount" instead.
	ErrInvalidCode = errors.New("invalid promo code")
	// ErrExhausted means the conditional increment lost the race for the
	// last remaining use.
	ErrExhausted = errors.New("promo code has no uses left")
)

// Validator checks promo codes against their activity window, usage caps and
// minimum order amount, and computes the discount they grant.
type Validator struct {
	db *gorm.DB
}

func NewValidator(db *gorm.DB) *Validator {
	return &Validator{db: db}
}

// Normalize case-folds a user-entered code to the stored form.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup fetches a code by normalized value. Returns (nil, nil) when absent.
func (v *Validator) Lookup(ctx context.Context, code string) (*model.PromoCode, error) {
	var p model.PromoCode
	err := v.db.WithContext(ctx).Where("code = ?", Normalize(code)).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Usable reports why a code cannot be applied right now, or nil when it can.
func Usable(p *model.PromoCode, now time.Time, subtotal decimal.Decimal) error {
	if !p.IsActive {
		return fmt.Errorf("code %s is not active", p.Code)
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return fmt.Errorf("code %s is not active yet", p.Code)
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return fmt.Errorf("code %s has expired", p.Code)
	}
	if p.MaxUses != nil && p.CurrentUses >= *p.MaxUses {
		return fmt.Errorf("code %s has no uses left", p.Code)
	}
	if p.MinOrderAmount.IsPositive() && subtotal.LessThan(p.MinOrderAmount) {
		return fmt.Errorf("order minimum of %s not met for code %s", p.MinOrderAmount.StringFixed(2), p.Code)
	}
	return nil
}

// Discount computes the amount a usable code takes off the subtotal:
// percentage codes round to the cent, fixed codes never exceed the subtotal.
func Discount(p *model.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case model.DiscountPercentage:
		return subtotal.Mul(p.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case model.DiscountFixed:
		return decimal.Min(p.DiscountValue.Round(2), subtotal)
	default:
		return decimal.Zero
	}
}

// Apply is the explicit apply-code action: any reason the code cannot be
// used is a hard error reported to the caller.
func (v *Validator) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, *model.PromoCode, error) {
	p, err := v.Lookup(ctx, code)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if p == nil {
		return decimal.Zero, nil, ErrInvalidCode
	}
	if err := Usable(p, time.Now(), subtotal); err != nil {
		return decimal.Zero, nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return Discount(p, subtotal), p, nil
}

// TryApply is the checkout path: a bad code logs and yields zero discount,
// it never blocks order creation.
func (v *Validator) TryApply(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, *model.PromoCode) {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero, nil
	}
	discount, p, err := v.Apply(ctx, code, subtotal)
	if err != nil {
		log.Printf("promo %q not applied at checkout: %v", code, err)
		return decimal.Zero, nil
	}
	return discount, p
}

// Redeem records the redemption inside the order-creation transaction: one
// conditional increment (never past max_uses) plus the durable usage row.
// RowsAffected == 0 means a concurrent redemption took the last use.
func Redeem(ctx context.Context, tx *gorm.DB, p *model.PromoCode, customerID, orderID uint) error {
	res := tx.WithContext(ctx).Model(&model.PromoCode{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", p.ID).
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrExhausted
	}
	usage := &model.PromoCodeUsage{
		PromoCodeID: p.ID,
		CustomerID:  customerID,
		OrderID:     orderID,
	}
	return tx.WithContext(ctx).Create(usage).Error
}
