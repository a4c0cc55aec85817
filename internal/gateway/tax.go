package gateway

import "context"

// TaxLine is one taxable line handed to the tax service, in cents.
type TaxLine struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
	TaxCode     string `json:"tax_code"`
}

// Address is the installation destination used for tax jurisdiction.
type Address struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// TaxCalculator is the boundary to the external tax service. It returns the
// exclusive tax amount in cents. Callers must treat both errors and a zero
// result as "no usable figure" and fall back.
type TaxCalculator interface {
	CalculateTax(ctx context.Context, lines []TaxLine, dest Address) (taxCents int64, err error)
}

// NoTaxService is the default calculator when no provider is configured: it
// always returns zero, which routes every request through the fallback rate.
type NoTaxService struct{}

func (NoTaxService) CalculateTax(context.Context, []TaxLine, Address) (int64, error) {
	return 0, nil
}
