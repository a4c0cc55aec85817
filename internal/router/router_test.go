package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sign_ops/internal/config"
	"sign_ops/internal/gateway"
	"sign_ops/internal/lifecycle"
	"sign_ops/internal/model"
	"sign_ops/internal/pricing"
	"sign_ops/internal/promo"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.PostType{},
		&model.RiderType{},
		&model.LockboxType{},
		&model.PromoCode{},
		&model.PromoCodeUsage{},
		&model.Order{},
		&model.OrderItem{},
		&model.Installation{},
		&model.ServiceRequest{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.AppConfig{
		AdminToken: "test-admin-token",
		AdminEmail: "ops@test",
		Pricing: config.PricingConfig{
			FuelSurcharge:    decimal.RequireFromString("2.47"),
			ExpediteFee:      decimal.RequireFromString("25.00"),
			FallbackTaxRate:  decimal.RequireFromString("0.06"),
			SignPrice:        decimal.RequireFromString("15.00"),
			BrochureBoxPrice: decimal.RequireFromString("10.00"),
		},
		CheckoutRateLimit:  100,
		CheckoutRateWindow: time.Minute,
	}

	payments := &gateway.OfflinePayments{}
	email := gateway.LogEmailSender{}
	taxes := pricing.NewResolver(gateway.NoTaxService{}, cfg.Pricing.FallbackTaxRate)

	r := gin.New()
	Setup(r, Deps{
		DB:  db,
		RDB: rd.NewClient(&rd.Options{Addr: "localhost:1"}), // never dialed by these tests
		Cfg: cfg,

		Calc:     pricing.NewCalculator(cfg.Pricing, taxes),
		Promos:   promo.NewValidator(db),
		Engine:   lifecycle.NewEngine(db, payments, email, nil),
		Payments: payments,
		Email:    email,
	})
	return r, db
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCatalogIsPublic(t *testing.T) {
	r, db := testRouter(t)
	db.Create(&model.PostType{Name: "Standard Post", Price: decimal.RequireFromString("35.00"), IsActive: true})
	db.Create(&model.PostType{Name: "Retired Post", Price: decimal.RequireFromString("5.00"), IsActive: false})

	w := do(r, http.MethodGet, "/api/catalog/post-types", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Standard Post") {
		t.Errorf("body missing active type: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "Retired Post") {
		t.Errorf("body leaked inactive type: %s", w.Body.String())
	}
}

func TestCustomerRoutesRequireIdentity(t *testing.T) {
	r, _ := testRouter(t)

	w := do(r, http.MethodGet, "/api/orders", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no header: status = %d, want 401", w.Code)
	}

	w = do(r, http.MethodGet, "/api/orders", "", map[string]string{"X-User-ID": "999"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unknown customer: status = %d, want 401", w.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := testRouter(t)

	w := do(r, http.MethodGet, "/api/admin/orders", "", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("no token: status = %d, want 403", w.Code)
	}

	w = do(r, http.MethodGet, "/api/admin/orders", "", map[string]string{"X-Admin-Token": "test-admin-token"})
	if w.Code != http.StatusOK {
		t.Errorf("good token: status = %d, want 200", w.Code)
	}
}

func TestValidatePromo(t *testing.T) {
	r, db := testRouter(t)
	db.Create(&model.Customer{Email: "a@b.c", Name: "A"})
	db.Create(&model.PromoCode{
		Code:          "WELCOME10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.RequireFromString("10"),
		IsActive:      true,
	})
	hdr := map[string]string{"X-User-ID": "1"}

	w := do(r, http.MethodPost, "/api/promo/validate",
		`{"code":"welcome10","subtotal":"100.00"}`, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "WELCOME10") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/promo/validate",
		`{"code":"NOPE","subtotal":"100.00"}`, hdr)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown code: status = %d, want 400", w.Code)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	r, db := testRouter(t)
	db.Create(&model.Customer{Email: "owner@x.y", Name: "Owner"})
	db.Create(&model.Customer{Email: "other@x.y", Name: "Other"})
	db.Create(&model.Order{
		OrderNumber: "PO-SCOPED01", CustomerID: 1, Status: model.OrderPending,
		Subtotal: decimal.Zero, Total: decimal.Zero,
		AddressLine1: "1 Elm", City: "Dover", State: "DE", Zip: "19901",
		PropertyType: "residential", PostTypeID: 1,
	})

	w := do(r, http.MethodGet, "/api/orders/1", "", map[string]string{"X-User-ID": "1"})
	if w.Code != http.StatusOK {
		t.Errorf("owner: status = %d, want 200", w.Code)
	}
	w = do(r, http.MethodGet, "/api/orders/1", "", map[string]string{"X-User-ID": "2"})
	if w.Code != http.StatusForbidden {
		t.Errorf("other customer: status = %d, want 403", w.Code)
	}
	w = do(r, http.MethodGet, "/api/orders/42", "", map[string]string{"X-User-ID": "1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing order: status = %d, want 404", w.Code)
	}

	// Admins fetch any order through their own route.
	w = do(r, http.MethodGet, "/api/admin/orders/1", "", map[string]string{"X-Admin-Token": "test-admin-token"})
	if w.Code != http.StatusOK {
		t.Errorf("admin fetch: status = %d, want 200", w.Code)
	}
}
