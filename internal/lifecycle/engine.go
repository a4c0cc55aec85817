package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"sign_ops/internal/gateway"
	"sign_ops/internal/model"
	"sign_ops/internal/pricing"
	"sign_ops/internal/queue"
)

// StatusPublisher enqueues a status event for async notification fan-out.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, ev queue.OrderEvent) error
}

// Engine runs order status transitions and their side effects.
type Engine struct {
	db       *gorm.DB
	payments gateway.PaymentGateway
	email    gateway.EmailSender
	events   StatusPublisher
}

func NewEngine(db *gorm.DB, payments gateway.PaymentGateway, email gateway.EmailSender, events StatusPublisher) *Engine {
	return &Engine{db: db, payments: payments, email: email, events: events}
}

// sideEffect is one post-status task with its own failure boundary. A
// failing effect is logged and never rolls back the status write nor blocks
// the effects after it.
type sideEffect struct {
	name string
	run  func(ctx context.Context) error
}

// Transition validates and applies a status change, then fans out the side
// effects for the new state. Only validation failures and the status write
// itself can fail the call; everything downstream degrades to log lines.
func (e *Engine) Transition(ctx context.Context, order *model.Order, target model.OrderStatus) error {
	if order.Terminal() {
		return fmt.Errorf("%w: order %s is %s", ErrIllegalTransition, order.OrderNumber, order.Status)
	}
	if err := CheckTransition(order.Status, target); err != nil {
		return err
	}

	if err := e.db.WithContext(ctx).Model(order).Update("status", target).Error; err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	order.Status = target

	var effects []sideEffect
	if target != model.OrderPending {
		effects = append(effects, sideEffect{
			name: "status notification",
			run:  func(ctx context.Context) error { return e.publishStatus(ctx, order) },
		})
	}
	if target != model.OrderPending && target != model.OrderCompleted {
		// Completed orders get the richer completion email below instead.
		effects = append(effects, sideEffect{
			name: "status email",
			run:  func(ctx context.Context) error { return e.sendStatusEmail(ctx, order) },
		})
	}
	if target == model.OrderCompleted {
		effects = append(effects,
			sideEffect{
				name: "payment capture",
				run:  func(ctx context.Context) error { return e.capturePayment(ctx, order) },
			},
			sideEffect{
				name: "installation materialization",
				run:  func(ctx context.Context) error { return e.materialize(ctx, order) },
			},
			sideEffect{
				name: "completion email",
				run:  func(ctx context.Context) error { return e.sendCompletionEmail(ctx, order) },
			},
		)
	}

	for _, eff := range effects {
		if err := eff.run(ctx); err != nil {
			log.Printf("order %s transition to %s: %s failed: %v", order.OrderNumber, target, eff.name, err)
		}
	}
	return nil
}

func (e *Engine) publishStatus(ctx context.Context, order *model.Order) error {
	if e.events == nil {
		return nil
	}
	return e.events.PublishStatus(ctx, queue.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		NewStatus:   string(order.Status),
	})
}

// capturePayment charges the customer's default saved payment method for the
// order total. Failure flags payment_status=failed and the completion
// proceeds; billing is reconciled manually later.
func (e *Engine) capturePayment(ctx context.Context, order *model.Order) error {
	if order.PaymentStatus == model.PaymentSucceeded {
		return nil
	}

	var cust model.Customer
	if err := e.db.WithContext(ctx).First(&cust, order.CustomerID).Error; err != nil {
		return fmt.Errorf("load customer: %w", err)
	}
	if cust.DefaultPaymentMethodID == "" {
		log.Printf("order %s: no default payment method on file, capture skipped", order.OrderNumber)
		return nil
	}

	charge, err := e.payments.ChargePaymentMethod(ctx,
		cust.GatewayCustomerID,
		cust.DefaultPaymentMethodID,
		pricing.Cents(order.Total),
		"sign installation order "+order.OrderNumber,
		map[string]string{"order_number": order.OrderNumber},
	)
	if err != nil || charge.Status != gateway.IntentSucceeded {
		order.PaymentStatus = model.PaymentFailed
		if dbErr := e.db.WithContext(ctx).Model(order).Update("payment_status", model.PaymentFailed).Error; dbErr != nil {
			return fmt.Errorf("flag payment failed: %v (charge error: %v)", dbErr, err)
		}
		if err != nil {
			return fmt.Errorf("charge: %w", err)
		}
		return fmt.Errorf("charge returned status %q", charge.Status)
	}

	now := time.Now()
	order.PaymentStatus = model.PaymentSucceeded
	order.PaymentTransactionID = charge.ID
	order.PaidAt = &now
	return e.db.WithContext(ctx).Model(order).Updates(map[string]interface{}{
		"payment_status":         model.PaymentSucceeded,
		"payment_transaction_id": charge.ID,
		"paid_at":                now,
	}).Error
}

func (e *Engine) sendStatusEmail(ctx context.Context, order *model.Order) error {
	var cust model.Customer
	if err := e.db.WithContext(ctx).First(&cust, order.CustomerID).Error; err != nil {
		return fmt.Errorf("load customer: %w", err)
	}
	return e.email.Send(ctx, gateway.Email{
		To:       cust.Email,
		Template: gateway.EmailStatusUpdate,
		Data: map[string]string{
			"order_number": order.OrderNumber,
			"status":       string(order.Status),
		},
	})
}

func (e *Engine) sendCompletionEmail(ctx context.Context, order *model.Order) error {
	var cust model.Customer
	if err := e.db.WithContext(ctx).First(&cust, order.CustomerID).Error; err != nil {
		return fmt.Errorf("load customer: %w", err)
	}
	return e.email.Send(ctx, gateway.Email{
		To:       cust.Email,
		Template: gateway.EmailInstallationComplete,
		Data: map[string]string{
			"order_number": order.OrderNumber,
			"address":      order.AddressLine1,
		},
	})
}
