package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer owns orders, stored inventory and installations. Gateway ids are
// opaque tokens issued by the payment provider.
type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:30" json:"phone"`

	GatewayCustomerID      string `gorm:"size:64" json:"-"`
	DefaultPaymentMethodID string `gorm:"size:64" json:"-"`
}

func (Customer) TableName() string { return "customers" }
