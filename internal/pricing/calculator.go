package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"sign_ops/internal/config"
	"sign_ops/internal/gateway"
	"sign_ops/internal/model"
)

// LineItem is one already-resolved cart line: catalog unit price times a
// positive quantity. Resolution from catalog tables happens in the HTTP
// layer; the calculator only does arithmetic.
type LineItem struct {
	ItemType    model.ItemType
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Breakdown is a fully priced order. The invariant
// Total == max(0, Subtotal-Discount) + FuelSurcharge + ExpediteFee + Tax
// holds to the cent.
type Breakdown struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	FuelSurcharge decimal.Decimal
	ExpediteFee   decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	TaxMethod     string
}

// Calculator prices carts against an immutable fee table and a tax
// resolver. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	cfg   config.PricingConfig
	taxes *Resolver
}

func NewCalculator(cfg config.PricingConfig, taxes *Resolver) *Calculator {
	return &Calculator{cfg: cfg, taxes: taxes}
}

var validItemTypes = map[model.ItemType]bool{
	model.ItemPost:        true,
	model.ItemSign:        true,
	model.ItemRider:       true,
	model.ItemLockbox:     true,
	model.ItemBrochureBox: true,
}

// Quote prices a cart. The flat fuel surcharge is deliberately excluded from
// the taxable amount; the expedite fee is included. Every multiplicative
// step rounds half-up to the cent.
func (c *Calculator) Quote(ctx context.Context, items []LineItem, expedited bool, discount decimal.Decimal, dest gateway.Address) (Breakdown, error) {
	if len(items) == 0 {
		return Breakdown{}, fmt.Errorf("cart is empty")
	}
	if discount.IsNegative() {
		return Breakdown{}, fmt.Errorf("discount must not be negative")
	}

	subtotal := decimal.Zero
	for _, it := range items {
		if !validItemTypes[it.ItemType] {
			return Breakdown{}, fmt.Errorf("unknown item type %q", it.ItemType)
		}
		if it.Quantity < 1 {
			return Breakdown{}, fmt.Errorf("item %q: quantity must be >= 1", it.Description)
		}
		if it.UnitPrice.IsNegative() {
			return Breakdown{}, fmt.Errorf("item %q: unit price must not be negative", it.Description)
		}
		subtotal = subtotal.Add(LineTotal(it.UnitPrice, it.Quantity))
	}
	subtotal = subtotal.Round(2)

	discount = decimal.Min(discount.Round(2), subtotal)
	discounted := subtotal.Sub(discount)

	expediteFee := decimal.Zero
	if expedited {
		expediteFee = c.cfg.ExpediteFee.Round(2)
	}

	taxable := discounted.Add(expediteFee)
	tax, method := c.taxes.Resolve(ctx, taxable, taxLines(items, discount, expediteFee), dest)

	fuel := c.cfg.FuelSurcharge.Round(2)
	total := discounted.Add(fuel).Add(expediteFee).Add(tax)

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      discount,
		FuelSurcharge: fuel,
		ExpediteFee:   expediteFee,
		Tax:           tax,
		Total:         total,
		TaxMethod:     method,
	}, nil
}

// taxLines builds the per-line view the tax service expects. The discount is
// carried as a negative line so the cents sum matches the taxable amount;
// the fuel surcharge is never included.
func taxLines(items []LineItem, discount, expediteFee decimal.Decimal) []gateway.TaxLine {
	lines := make([]gateway.TaxLine, 0, len(items)+2)
	for _, it := range items {
		lines = append(lines, gateway.TaxLine{
			AmountCents: Cents(LineTotal(it.UnitPrice, it.Quantity)),
			Reference:   it.Description,
			TaxCode:     "txcd_99999999",
		})
	}
	if discount.IsPositive() {
		lines = append(lines, gateway.TaxLine{
			AmountCents: -Cents(discount),
			Reference:   "discount",
			TaxCode:     "txcd_99999999",
		})
	}
	if expediteFee.IsPositive() {
		lines = append(lines, gateway.TaxLine{
			AmountCents: Cents(expediteFee),
			Reference:   "expedite fee",
			TaxCode:     "txcd_99999999",
		})
	}
	return lines
}

// LineTotal is unitPrice × quantity rounded to the cent.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Cents converts decimal dollars to minor units for the gateway boundary.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts a gateway amount back to decimal dollars.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
