package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer inventory: items held in storage on the provider's behalf.
// Riders and lockboxes are tracked per unit with an in_storage flag that is
// cleared when a completed order installs them; signs and brochure boxes are
// tracked by quantity.

type CustomerSign struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID  uint   `gorm:"not null;index" json:"customer_id"`
	Description string `gorm:"size:255" json:"description"`
	Quantity    int    `gorm:"not null;default:0" json:"quantity"`
}

func (CustomerSign) TableName() string { return "customer_signs" }

type CustomerRider struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID  uint `gorm:"not null;index" json:"customer_id"`
	RiderTypeID uint `gorm:"not null" json:"rider_type_id"`
	InStorage   bool `gorm:"not null;default:true" json:"in_storage"`
}

func (CustomerRider) TableName() string { return "customer_riders" }

type CustomerLockbox struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID    uint   `gorm:"not null;index" json:"customer_id"`
	LockboxTypeID uint   `gorm:"not null" json:"lockbox_type_id"`
	Code          string `gorm:"size:20" json:"code"`
	InStorage     bool   `gorm:"not null;default:true" json:"in_storage"`
}

func (CustomerLockbox) TableName() string { return "customer_lockboxes" }

type CustomerBrochureBox struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CustomerID uint `gorm:"not null;index" json:"customer_id"`
	Quantity   int  `gorm:"not null;default:0" json:"quantity"`
}

func (CustomerBrochureBox) TableName() string { return "customer_brochure_boxes" }
