package queue

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"sign_ops/internal/model"
)

// Consumer turns Kafka status events into in-app notification rows. The
// (order_id, status) unique index makes redelivered events harmless.
type Consumer struct {
	r  *kafka.Reader
	db *gorm.DB
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db: db,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancelled or connection gone
		}

		var ev OrderEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Printf("consumer unmarshal: %v", err)
			continue
		}
		if err := ev.Validate(); err != nil {
			log.Printf("consumer dropping dirty event: %v", err)
			continue
		}

		n := &model.OrderNotification{
			CustomerID:  ev.CustomerID,
			OrderID:     ev.OrderID,
			OrderNumber: ev.OrderNumber,
			Status:      model.OrderStatus(ev.NewStatus),
		}
		if err := c.db.Create(n).Error; err != nil {
			// Redelivery hits the unique index; treat as already done.
			if errorsLikeUnique(err) {
				continue
			}
			log.Printf("consumer db create: %v", err)
			continue
		}
	}
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}
