package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostType is a catalog entry for an installable yard-sign post.
type PostType struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string          `gorm:"size:100;not null" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive bool            `gorm:"not null;default:true" json:"is_active"`
}

func (PostType) TableName() string { return "post_types" }

// RiderType is a catalog entry for a status placard (SOLD, PENDING, acreage...).
type RiderType struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string          `gorm:"size:100;not null" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive bool            `gorm:"not null;default:true" json:"is_active"`
}

func (RiderType) TableName() string { return "rider_types" }

// LockboxType is a catalog entry for a lockbox brand/model.
type LockboxType struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name     string          `gorm:"size:100;not null" json:"name"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive bool            `gorm:"not null;default:true" json:"is_active"`
}

func (LockboxType) TableName() string { return "lockbox_types" }

// Known property types accepted at checkout.
var PropertyTypes = map[string]bool{
	"residential": true,
	"commercial":  true,
	"land":        true,
}
