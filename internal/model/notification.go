package model

import "time"

// OrderNotification is an in-app notification persisted by the status event
// consumer. The (order_id, status) unique index makes redelivered events
// idempotent.
type OrderNotification struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	CustomerID  uint        `gorm:"not null;index" json:"customer_id"`
	OrderID     uint        `gorm:"not null;uniqueIndex:idx_notification_order_status" json:"order_id"`
	OrderNumber string      `gorm:"size:32;not null" json:"order_number"`
	Status      OrderStatus `gorm:"size:20;not null;uniqueIndex:idx_notification_order_status" json:"status"`
	ReadAt      *time.Time  `json:"read_at,omitempty"`
}

func (OrderNotification) TableName() string { return "order_notifications" }
