package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Discount types for promo codes.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// PromoCode is a discount rule. Codes are stored upper-cased; lookups
// normalize before matching.
type PromoCode struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Code          string          `gorm:"size:50;uniqueIndex;not null" json:"code"`
	DiscountType  string          `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_value"`

	// Zero means no minimum.
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_order_amount"`

	// Nil means unlimited uses.
	MaxUses     *int `json:"max_uses,omitempty"`
	CurrentUses int  `gorm:"not null;default:0" json:"current_uses"`

	StartsAt  *time.Time `json:"starts_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
}

func (PromoCode) TableName() string { return "promo_codes" }

// PromoCodeUsage is the durable evidence of one redemption, written when a
// promo is applied to a submitted order.
type PromoCodeUsage struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	PromoCodeID uint `gorm:"not null;index" json:"promo_code_id"`
	CustomerID  uint `gorm:"not null;index" json:"customer_id"`
	OrderID     uint `gorm:"not null" json:"order_id"`
}

func (PromoCodeUsage) TableName() string { return "promo_code_usages" }
