package model

import (
	"time"

	"gorm.io/gorm"
)

// InstallationStatus enumerates the lifecycle of a physical placement.
type InstallationStatus string

const (
	InstallationActive           InstallationStatus = "active"
	InstallationRemovalScheduled InstallationStatus = "removal_scheduled"
	InstallationRemoved          InstallationStatus = "removed"
)

// Installation is the durable record of a completed placement. Exactly one
// per order; the unique order_id index is the idempotency guard for
// materialization.
type Installation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderID    uint `gorm:"uniqueIndex;not null" json:"order_id"`
	CustomerID uint `gorm:"not null;index" json:"customer_id"`

	AddressLine1 string `gorm:"size:255;not null" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100;not null" json:"city"`
	State        string `gorm:"size:20;not null" json:"state"`
	Zip          string `gorm:"size:20;not null" json:"zip"`

	Status      InstallationStatus `gorm:"size:20;not null;default:active" json:"status"`
	InstalledAt time.Time          `gorm:"not null" json:"installed_at"`
	RemovalDate *time.Time         `json:"removal_date,omitempty"`

	Riders    []InstallationRider   `gorm:"foreignKey:InstallationID" json:"riders,omitempty"`
	Lockboxes []InstallationLockbox `gorm:"foreignKey:InstallationID" json:"lockboxes,omitempty"`
}

func (Installation) TableName() string { return "installations" }

type InstallationRider struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InstallationID uint `gorm:"not null;index" json:"installation_id"`
	RiderTypeID    uint `gorm:"not null" json:"rider_type_id"`
	IsRental       bool `gorm:"not null;default:false" json:"is_rental"`
}

func (InstallationRider) TableName() string { return "installation_riders" }

type InstallationLockbox struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InstallationID uint   `gorm:"not null;index" json:"installation_id"`
	LockboxTypeID  uint   `gorm:"not null" json:"lockbox_type_id"`
	Code           string `gorm:"size:20" json:"code"`
	IsRental       bool   `gorm:"not null;default:false" json:"is_rental"`
}

func (InstallationLockbox) TableName() string { return "installation_lockboxes" }
