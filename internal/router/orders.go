package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sign_ops/internal/gateway"
	"sign_ops/internal/lifecycle"
	"sign_ops/internal/middleware"
	"sign_ops/internal/model"
	"sign_ops/internal/pricing"
	"sign_ops/internal/promo"
	rediskey "sign_ops/pkg/redis"
)

type orderItemRequest struct {
	ItemType     string `json:"item_type" binding:"required"`
	ItemCategory string `json:"item_category"`
	Quantity     int    `json:"quantity" binding:"omitempty,min=1"`

	RiderTypeID   *uint `json:"rider_type_id"`
	LockboxTypeID *uint `json:"lockbox_type_id"`

	CustomerSignID        *uint `json:"customer_sign_id"`
	CustomerRiderID       *uint `json:"customer_rider_id"`
	CustomerLockboxID     *uint `json:"customer_lockbox_id"`
	CustomerBrochureBoxID *uint `json:"customer_brochure_box_id"`

	CustomValue string `json:"custom_value"`
}

type createOrderRequest struct {
	PostTypeID uint               `json:"post_type_id" binding:"required"`
	Items      []orderItemRequest `json:"items" binding:"omitempty,dive"`

	AddressLine1  string `json:"address_line1" binding:"required"`
	AddressLine2  string `json:"address_line2"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
	Zip           string `json:"zip" binding:"required"`
	PropertyType  string `json:"property_type" binding:"required"`
	PropertyNotes string `json:"property_notes"`
	ScheduledDate string `json:"scheduled_date"`
	IsExpedited   bool   `json:"is_expedited"`

	PromoCode       string `json:"promo_code"`
	PaymentMethodID string `json:"payment_method_id"`
}

// createOrder is the checkout flow:
// 1. validate the cart and resolve catalog prices
// 2. soft promo application (a bad code never blocks checkout)
// 3. price through the calculator + tax resolution
// 4. best-effort payment intent creation
// 5. one atomic write of the order, its items and the promo redemption
// 6. best-effort confirmation/admin emails
func createOrder(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		if !model.PropertyTypes[req.PropertyType] {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": fmt.Sprintf("unknown property type %q", req.PropertyType)})
			return
		}

		var scheduled *time.Time
		if strings.TrimSpace(req.ScheduledDate) != "" {
			t, err := time.Parse(time.RFC3339, req.ScheduledDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "scheduled_date must be RFC3339"})
				return
			}
			scheduled = &t
		}

		ctx := c.Request.Context()

		items, lines, err := resolveItems(ctx, d, cust, req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		subtotal := decimal.Zero
		for _, ln := range lines {
			subtotal = subtotal.Add(pricing.LineTotal(ln.UnitPrice, ln.Quantity))
		}

		discount, promoRec := d.Promos.TryApply(ctx, req.PromoCode, subtotal)

		dest := gateway.Address{
			Line1: req.AddressLine1,
			Line2: req.AddressLine2,
			City:  req.City,
			State: req.State,
			Zip:   req.Zip,
		}

		quote, err := d.Calc.Quote(ctx, lines, req.IsExpedited, discount, dest)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		// Fallback figures in case a concurrent redemption takes the promo's
		// last use between validation and commit.
		quoteNoPromo := quote
		if promoRec != nil {
			quoteNoPromo, err = d.Calc.Quote(ctx, lines, req.IsExpedited, decimal.Zero, dest)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
				return
			}
		}

		paymentStatus, intentID := setupPayment(ctx, d, cust, req.PaymentMethodID, quote.Total)

		order := &model.Order{
			OrderNumber:   newOrderNumber(),
			CustomerID:    cust.ID,
			Status:        model.OrderPending,
			PaymentStatus: paymentStatus,

			Subtotal:      quote.Subtotal,
			Discount:      quote.Discount,
			FuelSurcharge: quote.FuelSurcharge,
			ExpediteFee:   quote.ExpediteFee,
			Tax:           quote.Tax,
			Total:         quote.Total,
			TaxMethod:     quote.TaxMethod,

			AddressLine1:  req.AddressLine1,
			AddressLine2:  req.AddressLine2,
			City:          req.City,
			State:         req.State,
			Zip:           req.Zip,
			PropertyType:  req.PropertyType,
			PropertyNotes: req.PropertyNotes,
			ScheduledDate: scheduled,
			IsExpedited:   req.IsExpedited,

			PostTypeID:      req.PostTypeID,
			PaymentIntentID: intentID,
			Items:           items,
		}
		if promoRec != nil {
			order.PromoCodeID = &promoRec.ID
		}

		err = d.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(order).Error; err != nil {
				return err
			}
			if promoRec == nil {
				return nil
			}
			if err := promo.Redeem(ctx, tx, promoRec, cust.ID, order.ID); err != nil {
				if !errors.Is(err, promo.ErrExhausted) {
					return err
				}
				// Lost the race for the last use: drop the discount, keep
				// the order.
				log.Printf("order %s: promo %s exhausted concurrently, repricing without discount", order.OrderNumber, promoRec.Code)
				return tx.Model(order).Updates(map[string]interface{}{
					"promo_code_id": nil,
					"discount":      quoteNoPromo.Discount,
					"tax":           quoteNoPromo.Tax,
					"tax_method":    quoteNoPromo.TaxMethod,
					"total":         quoteNoPromo.Total,
				}).Error
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": "create order failed: " + err.Error()})
			return
		}

		sendCheckoutEmails(ctx, d, cust, order)

		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// resolveItems validates the cart against the catalog and the customer's
// stored inventory and produces both the persistable items and the pricing
// lines. The selected post becomes the first line.
func resolveItems(ctx context.Context, d Deps, cust *model.Customer, req createOrderRequest) ([]model.OrderItem, []pricing.LineItem, error) {
	db := d.DB.WithContext(ctx)

	var post model.PostType
	if err := db.Where("id = ? AND is_active = ?", req.PostTypeID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("unknown post type %d", req.PostTypeID)
		}
		return nil, nil, err
	}

	items := []model.OrderItem{{
		ItemType:     model.ItemPost,
		ItemCategory: model.CategoryInstall,
		Description:  post.Name,
		Quantity:     1,
		UnitPrice:    post.Price,
		TotalPrice:   post.Price,
	}}
	lines := []pricing.LineItem{{
		ItemType:    model.ItemPost,
		Description: post.Name,
		UnitPrice:   post.Price,
		Quantity:    1,
	}}

	for i, ir := range req.Items {
		qty := ir.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 1 {
			return nil, nil, fmt.Errorf("item %d: quantity must be >= 1", i)
		}

		item := model.OrderItem{
			ItemType:     model.ItemType(ir.ItemType),
			ItemCategory: ir.ItemCategory,
			Quantity:     qty,
			CustomValue:  ir.CustomValue,
		}
		if item.ItemCategory == "" {
			item.ItemCategory = model.CategoryInstall
		}

		var price decimal.Decimal
		switch item.ItemType {
		case model.ItemPost:
			return nil, nil, fmt.Errorf("item %d: the post is selected via post_type_id", i)

		case model.ItemRider:
			var rt model.RiderType
			switch {
			case ir.RiderTypeID != nil:
				if err := db.Where("id = ? AND is_active = ?", *ir.RiderTypeID, true).First(&rt).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: unknown rider type %d", i, *ir.RiderTypeID)
				}
				item.RiderTypeID = ir.RiderTypeID
			case ir.CustomerRiderID != nil:
				var stored model.CustomerRider
				if err := db.Where("id = ? AND customer_id = ?", *ir.CustomerRiderID, cust.ID).First(&stored).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: stored rider %d not found", i, *ir.CustomerRiderID)
				}
				if !stored.InStorage {
					return nil, nil, fmt.Errorf("item %d: stored rider %d is not in storage", i, *ir.CustomerRiderID)
				}
				if err := db.First(&rt, stored.RiderTypeID).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: rider type for stored rider %d not found", i, *ir.CustomerRiderID)
				}
				item.CustomerRiderID = ir.CustomerRiderID
			default:
				return nil, nil, fmt.Errorf("item %d: rider needs rider_type_id or customer_rider_id", i)
			}
			item.Description = rt.Name
			price = rt.Price

		case model.ItemLockbox:
			var lt model.LockboxType
			switch {
			case ir.LockboxTypeID != nil:
				if err := db.Where("id = ? AND is_active = ?", *ir.LockboxTypeID, true).First(&lt).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: unknown lockbox type %d", i, *ir.LockboxTypeID)
				}
				item.LockboxTypeID = ir.LockboxTypeID
			case ir.CustomerLockboxID != nil:
				var stored model.CustomerLockbox
				if err := db.Where("id = ? AND customer_id = ?", *ir.CustomerLockboxID, cust.ID).First(&stored).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: stored lockbox %d not found", i, *ir.CustomerLockboxID)
				}
				if !stored.InStorage {
					return nil, nil, fmt.Errorf("item %d: stored lockbox %d is not in storage", i, *ir.CustomerLockboxID)
				}
				if err := db.First(&lt, stored.LockboxTypeID).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: lockbox type for stored lockbox %d not found", i, *ir.CustomerLockboxID)
				}
				item.CustomerLockboxID = ir.CustomerLockboxID
			default:
				return nil, nil, fmt.Errorf("item %d: lockbox needs lockbox_type_id or customer_lockbox_id", i)
			}
			item.Description = lt.Name
			price = lt.Price

		case model.ItemSign:
			if ir.CustomerSignID != nil {
				var stored model.CustomerSign
				if err := db.Where("id = ? AND customer_id = ?", *ir.CustomerSignID, cust.ID).First(&stored).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: stored sign %d not found", i, *ir.CustomerSignID)
				}
				item.CustomerSignID = ir.CustomerSignID
				item.Description = stored.Description
			} else {
				item.Description = "sign panel"
			}
			price = d.Cfg.Pricing.SignPrice

		case model.ItemBrochureBox:
			if ir.CustomerBrochureBoxID != nil {
				var stored model.CustomerBrochureBox
				if err := db.Where("id = ? AND customer_id = ?", *ir.CustomerBrochureBoxID, cust.ID).First(&stored).Error; err != nil {
					return nil, nil, fmt.Errorf("item %d: stored brochure box %d not found", i, *ir.CustomerBrochureBoxID)
				}
				item.CustomerBrochureBoxID = ir.CustomerBrochureBoxID
			}
			item.Description = "brochure box"
			price = d.Cfg.Pricing.BrochureBoxPrice

		default:
			return nil, nil, fmt.Errorf("item %d: unknown item type %q", i, ir.ItemType)
		}

		item.UnitPrice = price
		item.TotalPrice = pricing.LineTotal(price, qty)
		items = append(items, item)
		lines = append(lines, pricing.LineItem{
			ItemType:    item.ItemType,
			Description: item.Description,
			UnitPrice:   price,
			Quantity:    qty,
		})
	}

	return items, lines, nil
}

// setupPayment tries to clear payment at creation time. Any gateway failure
// leaves the order payable later (payment_status=pending); checkout never
// fails on the payment leg.
func setupPayment(ctx context.Context, d Deps, cust *model.Customer, paymentMethodID string, total decimal.Decimal) (model.PaymentStatus, string) {
	if paymentMethodID == "" {
		return model.PaymentPending, ""
	}

	if cust.GatewayCustomerID == "" {
		id, err := d.Payments.CreateCustomer(ctx, cust.Email, cust.Name)
		if err != nil {
			log.Printf("customer %d: gateway customer creation failed: %v", cust.ID, err)
			return model.PaymentPending, ""
		}
		cust.GatewayCustomerID = id
		if err := d.DB.Model(cust).Update("gateway_customer_id", id).Error; err != nil {
			log.Printf("customer %d: persist gateway id: %v", cust.ID, err)
		}
	}

	if cust.DefaultPaymentMethodID == "" {
		cust.DefaultPaymentMethodID = paymentMethodID
		if err := d.DB.Model(cust).Update("default_payment_method_id", paymentMethodID).Error; err != nil {
			log.Printf("customer %d: persist default payment method: %v", cust.ID, err)
		}
	}

	intent, err := d.Payments.CreatePaymentIntent(ctx, pricing.Cents(total), cust.GatewayCustomerID, paymentMethodID)
	if err != nil {
		log.Printf("customer %d: payment intent failed: %v", cust.ID, err)
		return model.PaymentPending, ""
	}
	if intent.Status == gateway.IntentSucceeded {
		return model.PaymentSucceeded, intent.ID
	}
	return model.PaymentProcessing, intent.ID
}

func sendCheckoutEmails(ctx context.Context, d Deps, cust *model.Customer, order *model.Order) {
	if err := d.Email.Send(ctx, gateway.Email{
		To:       cust.Email,
		Template: gateway.EmailOrderConfirmation,
		Data: map[string]string{
			"order_number": order.OrderNumber,
			"total":        order.Total.StringFixed(2),
		},
	}); err != nil {
		log.Printf("order %s: confirmation email failed: %v", order.OrderNumber, err)
	}
	if err := d.Email.Send(ctx, gateway.Email{
		To:       d.Cfg.AdminEmail,
		Template: gateway.EmailAdminNewOrder,
		Data: map[string]string{
			"order_number": order.OrderNumber,
			"customer":     cust.Name,
		},
	}); err != nil {
		log.Printf("order %s: admin email failed: %v", order.OrderNumber, err)
	}
}

func newOrderNumber() string {
	return "PO-" + strings.ToUpper(uuid.NewString()[:8])
}

// listOrders returns the caller's own orders, newest first.
func listOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		var orders []model.Order
		if err := db.Preload("Items").
			Where("customer_id = ?", cust.ID).
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": orders})
	}
}

// getOrder fetches one order, owner-scoped.
func getOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid order id"})
			return
		}

		var order model.Order
		if err := db.Preload("Items").First(&order, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if order.CustomerID != cust.ID {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "not your order"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// listAllOrders is the admin view, optionally filtered by status.
func listAllOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.Preload("Items").Order("created_at DESC")
		if status := c.Query("status"); status != "" {
			if !lifecycle.ValidStatus(model.OrderStatus(status)) {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": fmt.Sprintf("unknown status %q", status)})
				return
			}
			q = q.Where("status = ?", status)
		}

		var orders []model.Order
		if err := q.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": orders})
	}
}

// getAnyOrder is the admin fetch: any order, no ownership check.
func getAnyOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid order id"})
			return
		}

		var order model.Order
		if err := db.Preload("Items").First(&order, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// updateOrderStatus runs an admin-driven transition under the per-order
// lock so two admins cannot interleave side effects on the same order.
func updateOrderStatus(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid order id"})
			return
		}

		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		var order model.Order
		if err := d.DB.Preload("Items").First(&order, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}

		ctx := c.Request.Context()
		token := uuid.NewString()
		locked, err := rediskey.AcquireTransitionLock(ctx, d.RDB, order.ID, token, 30*time.Second)
		if err != nil {
			log.Printf("order %s: transition lock unavailable, proceeding: %v", order.OrderNumber, err)
		} else if !locked {
			c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": "order transition already in progress"})
			return
		} else {
			defer func() {
				if err := rediskey.ReleaseTransitionLock(ctx, d.RDB, order.ID, token); err != nil {
					log.Printf("order %s: release transition lock: %v", order.OrderNumber, err)
				}
			}()
		}

		if err := d.Engine.Transition(ctx, &order, model.OrderStatus(req.Status)); err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrUnknownStatus):
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			case errors.Is(err, lifecycle.ErrIllegalTransition):
				c.JSON(http.StatusConflict, gin.H{"code": 409, "msg": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"code": 0, "data": order})
	}
}

// getInstallation returns the installation materialized for one of the
// caller's completed orders.
func getInstallation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid order id"})
			return
		}

		var inst model.Installation
		if err := db.Preload("Riders").Preload("Lockboxes").
			Where("order_id = ?", uint(orderID)).First(&inst).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "no installation for this order"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if inst.CustomerID != cust.ID {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "not your installation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": inst})
	}
}
