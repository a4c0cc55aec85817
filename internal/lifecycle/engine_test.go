package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sign_ops/internal/gateway"
	"sign_ops/internal/model"
	"sign_ops/internal/queue"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named in-memory database per test keeps gorm's pooled connections on
	// the same store without leaking state between tests.
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.RiderType{},
		&model.LockboxType{},
		&model.Order{},
		&model.OrderItem{},
		&model.CustomerSign{},
		&model.CustomerRider{},
		&model.CustomerLockbox{},
		&model.CustomerBrochureBox{},
		&model.Installation{},
		&model.InstallationRider{},
		&model.InstallationLockbox{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// fakePayments succeeds or fails every charge depending on failCharges.
type fakePayments struct {
	failCharges bool
	charges     int
}

func (f *fakePayments) CreateCustomer(context.Context, string, string) (string, error) {
	return "cus_test", nil
}

func (f *fakePayments) CreatePaymentIntent(context.Context, int64, string, string) (gateway.PaymentIntent, error) {
	return gateway.PaymentIntent{ID: "pi_test", Status: gateway.IntentSucceeded}, nil
}

func (f *fakePayments) ChargePaymentMethod(context.Context, string, string, int64, string, map[string]string) (gateway.Charge, error) {
	f.charges++
	if f.failCharges {
		return gateway.Charge{}, errors.New("card declined")
	}
	return gateway.Charge{ID: "ch_test", Status: gateway.IntentSucceeded}, nil
}

type recordingPublisher struct {
	events []queue.OrderEvent
}

func (r *recordingPublisher) PublishStatus(_ context.Context, ev queue.OrderEvent) error {
	r.events = append(r.events, ev)
	return nil
}

type recordingEmail struct {
	sent []gateway.Email
}

func (r *recordingEmail) Send(_ context.Context, msg gateway.Email) error {
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingEmail) templates() []string {
	out := make([]string, 0, len(r.sent))
	for _, m := range r.sent {
		out = append(out, m.Template)
	}
	return out
}

func newTestEngine(t *testing.T, pay *fakePayments) (*Engine, *gorm.DB, *recordingPublisher, *recordingEmail) {
	t.Helper()
	db := testDB(t)
	pub := &recordingPublisher{}
	mail := &recordingEmail{}
	return NewEngine(db, pay, mail, pub), db, pub, mail
}

func seedOrder(t *testing.T, db *gorm.DB, status model.OrderStatus, items []model.OrderItem) *model.Order {
	t.Helper()
	cust := &model.Customer{Email: "agent@example.com", Name: "Agent", DefaultPaymentMethodID: "pm_test", GatewayCustomerID: "cus_test"}
	if err := db.Create(cust).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	order := &model.Order{
		OrderNumber:   "PO-TEST0001",
		CustomerID:    cust.ID,
		Status:        status,
		PaymentStatus: model.PaymentPending,
		Subtotal:      decimal.RequireFromString("65.00"),
		FuelSurcharge: decimal.RequireFromString("2.47"),
		Tax:           decimal.RequireFromString("3.90"),
		Total:         decimal.RequireFromString("71.37"),
		AddressLine1:  "12 Maple St",
		City:          "Dover",
		State:         "DE",
		Zip:           "19901",
		PropertyType:  "residential",
		PostTypeID:    1,
		Items:         items,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestTransitionCompletedMaterializesOnce(t *testing.T) {
	pay := &fakePayments{}
	e, db, pub, mail := newTestEngine(t, pay)
	order := seedOrder(t, db, model.OrderInProgress, nil)

	if err := e.Transition(context.Background(), order, model.OrderCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if order.Status != model.OrderCompleted {
		t.Errorf("status = %s, want completed", order.Status)
	}
	if order.PaymentStatus != model.PaymentSucceeded {
		t.Errorf("payment_status = %s, want succeeded", order.PaymentStatus)
	}
	if len(pub.events) != 1 || pub.events[0].NewStatus != string(model.OrderCompleted) {
		t.Errorf("events = %+v, want one completed event", pub.events)
	}
	if len(mail.sent) != 1 || mail.sent[0].Template != gateway.EmailInstallationComplete {
		t.Errorf("emails = %v, want one installation-complete email", mail.templates())
	}

	// Replayed materialization must not create a second installation.
	if err := e.materialize(context.Background(), order); err != nil {
		t.Fatalf("replay materialize: %v", err)
	}
	var count int64
	db.Model(&model.Installation{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 1 {
		t.Errorf("installations = %d, want 1", count)
	}
}

func TestTransitionCompletedSurvivesChargeFailure(t *testing.T) {
	pay := &fakePayments{failCharges: true}
	e, db, _, _ := newTestEngine(t, pay)
	order := seedOrder(t, db, model.OrderScheduled, nil)

	if err := e.Transition(context.Background(), order, model.OrderCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	var got model.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != model.OrderCompleted {
		t.Errorf("status = %s, want completed despite charge failure", got.Status)
	}
	if got.PaymentStatus != model.PaymentFailed {
		t.Errorf("payment_status = %s, want failed", got.PaymentStatus)
	}
	var count int64
	db.Model(&model.Installation{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 1 {
		t.Errorf("installations = %d, want 1", count)
	}
}

func TestTransitionIllegalLeavesStateUntouched(t *testing.T) {
	pay := &fakePayments{}
	e, db, pub, mail := newTestEngine(t, pay)
	order := seedOrder(t, db, model.OrderCompleted, nil)

	err := e.Transition(context.Background(), order, model.OrderCancelled)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("Transition error = %v, want ErrIllegalTransition", err)
	}

	var got model.Order
	db.First(&got, order.ID)
	if got.Status != model.OrderCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if len(pub.events) != 0 {
		t.Errorf("events = %+v, want none", pub.events)
	}
	if len(mail.sent) != 0 {
		t.Errorf("emails = %v, want none", mail.templates())
	}
}

func TestTransitionSendsStatusEmail(t *testing.T) {
	pay := &fakePayments{}
	e, db, _, mail := newTestEngine(t, pay)
	order := seedOrder(t, db, model.OrderConfirmed, nil)

	if err := e.Transition(context.Background(), order, model.OrderScheduled); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(mail.sent) != 1 || mail.sent[0].Template != gateway.EmailStatusUpdate {
		t.Fatalf("emails = %v, want one status-update email", mail.templates())
	}
	if got := mail.sent[0].Data["status"]; got != string(model.OrderScheduled) {
		t.Errorf("status in email = %q, want %q", got, model.OrderScheduled)
	}
}

func TestTransitionCancelledSkipsMaterialization(t *testing.T) {
	pay := &fakePayments{}
	e, db, pub, _ := newTestEngine(t, pay)
	order := seedOrder(t, db, model.OrderScheduled, nil)

	if err := e.Transition(context.Background(), order, model.OrderCancelled); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	var count int64
	db.Model(&model.Installation{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Errorf("installations = %d, want 0 for cancelled order", count)
	}
	if pay.charges != 0 {
		t.Errorf("charges = %d, want 0", pay.charges)
	}
	if len(pub.events) != 1 || pub.events[0].NewStatus != string(model.OrderCancelled) {
		t.Errorf("events = %+v, want one cancelled event", pub.events)
	}
}

func TestMaterializeConsumesStorageOnly(t *testing.T) {
	pay := &fakePayments{}
	e, db, _, _ := newTestEngine(t, pay)

	rt := &model.RiderType{Name: "SOLD", Price: decimal.RequireFromString("5.00"), IsActive: true}
	if err := db.Create(rt).Error; err != nil {
		t.Fatalf("create rider type: %v", err)
	}

	storedRider := &model.CustomerRider{CustomerID: 1, RiderTypeID: rt.ID, InStorage: true}
	storedSign := &model.CustomerSign{CustomerID: 1, Description: "panel", Quantity: 5}
	for _, rec := range []interface{}{storedRider, storedSign} {
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("create stored inventory: %v", err)
		}
	}

	one := decimal.RequireFromString("5.00")
	items := []model.OrderItem{
		{ItemType: model.ItemRider, ItemCategory: model.CategoryStorage, Quantity: 1,
			UnitPrice: one, TotalPrice: one, CustomerRiderID: &storedRider.ID},
		{ItemType: model.ItemRider, ItemCategory: model.CategoryRental, Quantity: 1,
			UnitPrice: one, TotalPrice: one, RiderTypeID: &rt.ID},
		{ItemType: model.ItemSign, ItemCategory: model.CategoryStorage, Quantity: 2,
			UnitPrice: one, TotalPrice: one, CustomerSignID: &storedSign.ID},
	}
	order := seedOrder(t, db, model.OrderInProgress, items)

	if err := e.Transition(context.Background(), order, model.OrderCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	var gotRider model.CustomerRider
	db.First(&gotRider, storedRider.ID)
	if gotRider.InStorage {
		t.Error("storage rider should be consumed")
	}
	var gotSign model.CustomerSign
	db.First(&gotSign, storedSign.ID)
	if gotSign.Quantity != 3 {
		t.Errorf("sign quantity = %d, want 3", gotSign.Quantity)
	}

	var riders []model.InstallationRider
	db.Find(&riders)
	if len(riders) != 2 {
		t.Fatalf("installation riders = %d, want 2", len(riders))
	}
	rentals := 0
	for _, r := range riders {
		if r.IsRental {
			rentals++
		}
	}
	if rentals != 1 {
		t.Errorf("rental riders = %d, want 1", rentals)
	}
}

func TestConsumeStorageClampsAtZero(t *testing.T) {
	pay := &fakePayments{}
	e, db, _, _ := newTestEngine(t, pay)

	stored := &model.CustomerSign{CustomerID: 1, Quantity: 1}
	if err := db.Create(stored).Error; err != nil {
		t.Fatalf("create stored sign: %v", err)
	}

	it := &model.OrderItem{ItemType: model.ItemSign, ItemCategory: model.CategoryStorage,
		Quantity: 3, CustomerSignID: &stored.ID}
	if err := e.consumeStorage(context.Background(), it); err != nil {
		t.Fatalf("consumeStorage: %v", err)
	}

	var got model.CustomerSign
	db.First(&got, stored.ID)
	if got.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", got.Quantity)
	}
}
