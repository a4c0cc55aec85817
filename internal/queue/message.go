package queue

import "fmt"

// OrderEvent is one status-change notification event. It flows from the
// Redis Stream outbox through Kafka to the notification consumer.
type OrderEvent struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  uint   `json:"customer_id"`
	NewStatus   string `json:"new_status"`
}

// Validate does minimal field checks so the consumer never processes a dirty
// message.
func (e OrderEvent) Validate() error {
	if e.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if e.OrderNumber == "" {
		return fmt.Errorf("order_number is required")
	}
	if e.CustomerID == 0 {
		return fmt.Errorf("customer_id is required")
	}
	if e.NewStatus == "" {
		return fmt.Errorf("new_status is required")
	}
	return nil
}
