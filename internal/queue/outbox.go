package queue

import (
	"context"
	"log"
	"strconv"

	rd "github.com/redis/go-redis/v9"

	rediskey "sign_ops/pkg/redis"
)

// Outbox appends status events to a Redis Stream. The transition handler
// writes here (cheap, local) and the Relay moves entries to Kafka off the
// request path.
type Outbox struct {
	rdb    *rd.Client
	stream string
}

func NewOutbox(rdb *rd.Client, stream string) *Outbox {
	return &Outbox{rdb: rdb, stream: stream}
}

// PublishStatus enqueues one event. A SETNX mark per (order, status) keeps
// replayed transitions from double-notifying the customer.
func (o *Outbox) PublishStatus(ctx context.Context, ev OrderEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	first, err := rediskey.MarkDispatchedOnce(ctx, o.rdb, ev.OrderID, ev.NewStatus)
	if err != nil {
		return err
	}
	if !first {
		log.Printf("order %s status %s already dispatched, skipping", ev.OrderNumber, ev.NewStatus)
		return nil
	}

	return o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: map[string]interface{}{
			"order_id":     strconv.FormatUint(uint64(ev.OrderID), 10),
			"order_number": ev.OrderNumber,
			"customer_id":  strconv.FormatUint(uint64(ev.CustomerID), 10),
			"new_status":   ev.NewStatus,
		},
	}).Err()
}
