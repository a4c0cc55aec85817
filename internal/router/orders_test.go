package router

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sign_ops/internal/model"
	"sign_ops/internal/pricing"
)

type orderResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data model.Order `json:"data"`
}

func seedCheckout(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []interface{}{
		&model.Customer{Email: "agent@example.com", Name: "Agent"},
		&model.PostType{Name: "Premium Colonial Post", Price: decimal.RequireFromString("45.00"), IsActive: true},
		&model.PostType{Name: "Heavy Duty Commercial Post", Price: decimal.RequireFromString("65.00"), IsActive: true},
		&model.RiderType{Name: "SOLD", Price: decimal.RequireFromString("5.00"), IsActive: true},
	}
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func checkout(t *testing.T, r *gin.Engine, body string) orderResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/api/orders", body, map[string]string{"X-User-ID": "1"})
	if w.Code != http.StatusOK {
		t.Fatalf("checkout status = %d, body %s", w.Code, w.Body.String())
	}
	var resp orderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCreateOrderFallbackTaxScenario(t *testing.T) {
	r, db := testRouter(t)
	seedCheckout(t, db)

	// $45 post + $15 sign + $5 rider = $65; no promo, not expedited.
	resp := checkout(t, r, `{
		"post_type_id": 1,
		"items": [
			{"item_type": "sign"},
			{"item_type": "rider", "rider_type_id": 1}
		],
		"address_line1": "12 Maple St", "city": "Dover", "state": "DE",
		"zip": "19901", "property_type": "residential"
	}`)

	o := resp.Data
	eqDec(t, "subtotal", o.Subtotal, "65.00")
	eqDec(t, "fuel_surcharge", o.FuelSurcharge, "2.47")
	eqDec(t, "tax", o.Tax, "3.90")
	eqDec(t, "total", o.Total, "71.37")
	if o.TaxMethod != pricing.TaxMethodFallback {
		t.Errorf("tax_method = %q, want %q", o.TaxMethod, pricing.TaxMethodFallback)
	}
	if o.Status != model.OrderPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
	if len(o.Items) != 3 {
		t.Errorf("items = %d, want 3 (post + sign + rider)", len(o.Items))
	}
}

func TestCreateOrderFixedPromoScenario(t *testing.T) {
	r, db := testRouter(t)
	seedCheckout(t, db)

	one := 1
	db.Create(&model.PromoCode{
		Code:           "TAKE30",
		DiscountType:   model.DiscountFixed,
		DiscountValue:  decimal.RequireFromString("30.00"),
		MinOrderAmount: decimal.RequireFromString("75.00"),
		MaxUses:        &one,
		IsActive:       true,
	})

	// $65 post + $15 sign + 2×$5 riders + $10 brochure box = $100.
	cart := `{
		"post_type_id": 2,
		"items": [
			{"item_type": "sign"},
			{"item_type": "rider", "rider_type_id": 1, "quantity": 2},
			{"item_type": "brochure_box"}
		],
		"address_line1": "12 Maple St", "city": "Dover", "state": "DE",
		"zip": "19901", "property_type": "residential",
		"promo_code": "take30"
	}`

	resp := checkout(t, r, cart)
	o := resp.Data
	eqDec(t, "subtotal", o.Subtotal, "100.00")
	eqDec(t, "discount", o.Discount, "30.00")
	eqDec(t, "tax", o.Tax, "4.20")
	eqDec(t, "total", o.Total, "76.67")
	if o.PromoCodeID == nil {
		t.Error("promo_code_id not set on discounted order")
	}

	var code model.PromoCode
	db.Where("code = ?", "TAKE30").First(&code)
	if code.CurrentUses != 1 {
		t.Errorf("current_uses = %d, want 1", code.CurrentUses)
	}
	var usages int64
	db.Model(&model.PromoCodeUsage{}).Count(&usages)
	if usages != 1 {
		t.Errorf("usage rows = %d, want 1", usages)
	}

	// The code is spent: a second checkout succeeds without the discount
	// and records no further redemption.
	resp = checkout(t, r, cart)
	o = resp.Data
	eqDec(t, "discount after exhaustion", o.Discount, "0.00")
	eqDec(t, "total after exhaustion", o.Total, "108.47")
	if o.PromoCodeID != nil {
		t.Error("promo_code_id set on undiscounted order")
	}
	db.Model(&model.PromoCodeUsage{}).Count(&usages)
	if usages != 1 {
		t.Errorf("usage rows after exhausted checkout = %d, want 1", usages)
	}
}

func TestCreateOrderRejectsBadCart(t *testing.T) {
	r, db := testRouter(t)
	seedCheckout(t, db)
	hdr := map[string]string{"X-User-ID": "1"}

	tests := []struct {
		name string
		body string
	}{
		{"unknown post type", `{"post_type_id": 42, "address_line1": "1 Elm",
			"city": "Dover", "state": "DE", "zip": "19901", "property_type": "residential"}`},
		{"unknown property type", `{"post_type_id": 1, "address_line1": "1 Elm",
			"city": "Dover", "state": "DE", "zip": "19901", "property_type": "boat"}`},
		{"rider without reference", `{"post_type_id": 1,
			"items": [{"item_type": "rider"}], "address_line1": "1 Elm",
			"city": "Dover", "state": "DE", "zip": "19901", "property_type": "residential"}`},
		{"unknown item type", `{"post_type_id": 1,
			"items": [{"item_type": "banner"}], "address_line1": "1 Elm",
			"city": "Dover", "state": "DE", "zip": "19901", "property_type": "residential"}`},
	}
	for _, tt := range tests {
		w := do(r, http.MethodPost, "/api/orders", tt.body, hdr)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (body %s)", tt.name, w.Code, w.Body.String())
		}
	}

	var count int64
	db.Model(&model.Order{}).Count(&count)
	if count != 0 {
		t.Errorf("orders persisted = %d, want 0", count)
	}
}

func eqDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got.StringFixed(2), want)
	}
}
