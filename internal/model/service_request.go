package model

import (
	"time"

	"gorm.io/gorm"
)

// ServiceRequestStatus enumerates follow-up request states. The lifecycle is
// independent of the order that produced the installation.
type ServiceRequestStatus string

const (
	RequestPending      ServiceRequestStatus = "pending"
	RequestAcknowledged ServiceRequestStatus = "acknowledged"
	RequestScheduled    ServiceRequestStatus = "scheduled"
	RequestInProgress   ServiceRequestStatus = "in_progress"
	RequestCompleted    ServiceRequestStatus = "completed"
	RequestCancelled    ServiceRequestStatus = "cancelled"
)

// Service request types.
const (
	RequestRemoval     = "removal"
	RequestService     = "service"
	RequestRepair      = "repair"
	RequestReplacement = "replacement"
)

// ServiceRequest is a follow-up request (removal/service/repair/replacement)
// against an existing installation.
type ServiceRequest struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	InstallationID uint `gorm:"not null;index" json:"installation_id"`
	CustomerID     uint `gorm:"not null;index" json:"customer_id"`

	Type          string               `gorm:"size:20;not null" json:"type"`
	Status        ServiceRequestStatus `gorm:"size:20;not null;default:pending" json:"status"`
	RequestedDate *time.Time           `json:"requested_date,omitempty"`
	AdminNotes    string               `gorm:"size:1000" json:"admin_notes,omitempty"`
}

func (ServiceRequest) TableName() string { return "service_requests" }

// ValidServiceRequestType reports whether t is a known request type.
func ValidServiceRequestType(t string) bool {
	switch t {
	case RequestRemoval, RequestService, RequestRepair, RequestReplacement:
		return true
	}
	return false
}
