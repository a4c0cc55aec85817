package pricing

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"sign_ops/internal/gateway"
)

// Tax methods recorded on the order for auditability.
const (
	TaxMethodService  = "stripe_tax"
	TaxMethodFallback = "fallback"
)

// Resolver obtains a tax figure from the external service with a
// deterministic fallback. A zero result from the service means it declined
// to tax this category of goods; the business wants the flat rate charged
// regardless, so zero routes through the fallback exactly like an error.
// This is an explicit policy, not a workaround.
type Resolver struct {
	svc  gateway.TaxCalculator
	rate decimal.Decimal
}

func NewResolver(svc gateway.TaxCalculator, fallbackRate decimal.Decimal) *Resolver {
	return &Resolver{svc: svc, rate: fallbackRate}
}

// Resolve never fails: any service error is logged and absorbed by the
// fallback path. Returns the tax in dollars and the method that produced it.
func (r *Resolver) Resolve(ctx context.Context, taxable decimal.Decimal, lines []gateway.TaxLine, dest gateway.Address) (decimal.Decimal, string) {
	if r.svc != nil {
		cents, err := r.svc.CalculateTax(ctx, lines, dest)
		if err != nil {
			log.Printf("tax service failed, using fallback rate: %v", err)
		} else if cents > 0 {
			return FromCents(cents), TaxMethodService
		}
	}
	return taxable.Mul(r.rate).Round(2), TaxMethodFallback
}
