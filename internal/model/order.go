package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderScheduled  OrderStatus = "scheduled"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentStatus enumerates the payment states, tracked independently of the
// order lifecycle so a failed capture never blocks completion.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// ItemType tags an order line with the kind of physical item it prices.
type ItemType string

const (
	ItemPost        ItemType = "post"
	ItemSign        ItemType = "sign"
	ItemRider       ItemType = "rider"
	ItemLockbox     ItemType = "lockbox"
	ItemBrochureBox ItemType = "brochure_box"
)

// Item sourcing categories. Only "storage" items consume a customer's stored
// inventory at installation time.
const (
	CategoryStorage  = "storage"
	CategoryOwned    = "owned"
	CategoryRental   = "rental"
	CategoryPurchase = "purchase"
	CategoryInstall  = "install"
)

// Order is one purchase transaction. Money columns hold decimal dollars at
// 2-decimal precision; the invariant
// total == max(0, subtotal - discount) + fuel_surcharge + expedite_fee + tax
// holds for every persisted row.
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrderNumber string `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	CustomerID  uint   `gorm:"not null;index" json:"customer_id"`

	Status        OrderStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"size:20;not null;default:pending" json:"payment_status"`

	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	FuelSurcharge decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"fuel_surcharge"`
	ExpediteFee   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"expedite_fee"`
	Tax           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`

	// TaxMethod records which path produced the tax figure ("stripe_tax" or
	// "fallback") for auditability.
	TaxMethod string `gorm:"size:20" json:"tax_method"`

	AddressLine1  string     `gorm:"size:255;not null" json:"address_line1"`
	AddressLine2  string     `gorm:"size:255" json:"address_line2"`
	City          string     `gorm:"size:100;not null" json:"city"`
	State         string     `gorm:"size:20;not null" json:"state"`
	Zip           string     `gorm:"size:20;not null" json:"zip"`
	PropertyType  string     `gorm:"size:30;not null" json:"property_type"`
	PropertyNotes string     `gorm:"size:1000" json:"property_notes"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	IsExpedited   bool       `gorm:"not null;default:false" json:"is_expedited"`

	PostTypeID  uint  `gorm:"not null" json:"post_type_id"`
	PromoCodeID *uint `gorm:"index" json:"promo_code_id,omitempty"`

	// Payment gateway references (ids are opaque provider tokens).
	PaymentIntentID      string     `gorm:"size:64" json:"payment_intent_id,omitempty"`
	PaymentTransactionID string     `gorm:"size:64" json:"payment_transaction_id,omitempty"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

// Terminal reports whether the order has reached a final state. Terminal
// orders are immutable except for payment-status corrections.
func (o *Order) Terminal() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

// OrderItem is one priced line within an order. Items are created atomically
// with the order and never mutated afterwards; edits replace the whole set.
type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OrderID      uint     `gorm:"not null;index" json:"order_id"`
	ItemType     ItemType `gorm:"size:20;not null" json:"item_type"`
	ItemCategory string   `gorm:"size:20;not null" json:"item_category"`
	Description  string   `gorm:"size:255" json:"description"`
	Quantity     int      `gorm:"not null;default:1" json:"quantity"`

	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`

	// Catalog references for new/rental items.
	RiderTypeID   *uint `json:"rider_type_id,omitempty"`
	LockboxTypeID *uint `json:"lockbox_type_id,omitempty"`

	// Storage back-references, present only when the item is fulfilled from
	// the customer's stored inventory.
	CustomerSignID        *uint `json:"customer_sign_id,omitempty"`
	CustomerRiderID       *uint `json:"customer_rider_id,omitempty"`
	CustomerLockboxID     *uint `json:"customer_lockbox_id,omitempty"`
	CustomerBrochureBoxID *uint `json:"customer_brochure_box_id,omitempty"`

	// Free-form value for custom riders (acreage etc).
	CustomValue string `gorm:"size:100" json:"custom_value,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }

// FromStorage reports whether installing this item should consume a stored
// inventory record. Rental and purchase categories never touch storage.
func (i *OrderItem) FromStorage() bool {
	return i.ItemCategory == CategoryStorage
}
