package gateway

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// PaymentGateway is the boundary to the card processor. Amounts cross this
// boundary in minor currency units (cents); the core keeps decimal dollars.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, name string) (customerID string, err error)
	CreatePaymentIntent(ctx context.Context, amountCents int64, customerID, paymentMethodID string) (PaymentIntent, error)
	ChargePaymentMethod(ctx context.Context, customerID, paymentMethodID string, amountCents int64, description string, metadata map[string]string) (Charge, error)
}

// PaymentIntent mirrors the provider's intent object at the fields the core
// cares about.
type PaymentIntent struct {
	ID           string
	Status       string
	ClientSecret string
}

// Charge is the result of an off-session capture.
type Charge struct {
	ID     string
	Status string
}

// Provider intent/charge statuses the core inspects.
const (
	IntentSucceeded = "succeeded"
	IntentRequires  = "requires_confirmation"
)

// OfflinePayments is the default gateway used when no provider is
// configured. Every operation succeeds locally so the order lifecycle keeps
// moving in development; ids are tagged so they are recognizable in data.
type OfflinePayments struct{}

func (OfflinePayments) CreateCustomer(_ context.Context, email, _ string) (string, error) {
	id := "offline_cus_" + uuid.NewString()[:8]
	log.Printf("payments offline: created customer %s for %s", id, email)
	return id, nil
}

func (OfflinePayments) CreatePaymentIntent(_ context.Context, amountCents int64, customerID, paymentMethodID string) (PaymentIntent, error) {
	status := IntentRequires
	if paymentMethodID != "" {
		status = IntentSucceeded
	}
	return PaymentIntent{
		ID:           "offline_pi_" + uuid.NewString()[:8],
		Status:       status,
		ClientSecret: fmt.Sprintf("offline_secret_%s_%d", customerID, amountCents),
	}, nil
}

func (OfflinePayments) ChargePaymentMethod(_ context.Context, customerID, paymentMethodID string, amountCents int64, description string, _ map[string]string) (Charge, error) {
	log.Printf("payments offline: charged %s/%s %d cents (%s)", customerID, paymentMethodID, amountCents, description)
	return Charge{ID: "offline_ch_" + uuid.NewString()[:8], Status: IntentSucceeded}, nil
}
