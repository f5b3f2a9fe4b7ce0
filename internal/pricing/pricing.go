// Package pricing computes order totals. All functions are pure; stock,
// persistence, and status decisions belong to the orders engine.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates supported custom discount shapes.
type DiscountType string

const (
	// DiscountTypeFixed is an absolute amount off the subtotal.
	DiscountTypeFixed DiscountType = "fixed"
	// DiscountTypePercentage is a percentage of the subtotal.
	DiscountTypePercentage DiscountType = "percentage"
)

// Line is one priced quantity within an order.
type Line struct {
	UnitPrice float64
	Quantity  float64
}

// Config carries the flat tax rate and the default discount policy,
// both expressed as percentages of the subtotal.
type Config struct {
	TaxPercent             float64
	DefaultDiscountPercent float64
}

// CustomDiscount is an order-specific discount supplied by the caller.
// Its computed amount stacks on top of the default discount; it does not
// replace it. The stacking is intentional and covered by tests.
type CustomDiscount struct {
	Amount float64
	Type   DiscountType
}

// Quote is the computed money breakdown for an order.
// Total = Subtotal - DiscountTotal + TaxTotal. Total is NOT clamped at
// zero here: a pathological over-discount yields a negative total and the
// engine must reject it.
type Quote struct {
	Subtotal      float64
	TaxTotal      float64
	DiscountTotal float64
	Total         float64
}

// ErrUnknownDiscountType indicates an unsupported custom discount type.
var ErrUnknownDiscountType = errors.New("pricing: unknown discount type")

// Calculate prices the given lines under cfg, with an optional custom
// discount. Rounding to 2 decimal places happens half-up at each aggregate,
// never per line, to avoid cumulative drift.
func Calculate(lines []Line, cfg Config, custom *CustomDiscount) (Quote, error) {
	subtotal := decimal.Zero
	for _, line := range lines {
		price := decimal.NewFromFloat(line.UnitPrice)
		qty := decimal.NewFromFloat(line.Quantity)
		subtotal = subtotal.Add(price.Mul(qty))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(decimal.NewFromFloat(cfg.TaxPercent)).Div(decimal.NewFromInt(100)).Round(2)

	discount := subtotal.Mul(decimal.NewFromFloat(cfg.DefaultDiscountPercent)).Div(decimal.NewFromInt(100))
	if custom != nil {
		amount := decimal.NewFromFloat(custom.Amount)
		switch custom.Type {
		case DiscountTypeFixed:
			discount = discount.Add(amount)
		case DiscountTypePercentage:
			discount = discount.Add(subtotal.Mul(amount).Div(decimal.NewFromInt(100)))
		default:
			return Quote{}, ErrUnknownDiscountType
		}
	}
	discount = discount.Round(2)

	total := subtotal.Sub(discount).Add(tax).Round(2)

	return Quote{
		Subtotal:      subtotal.InexactFloat64(),
		TaxTotal:      tax.InexactFloat64(),
		DiscountTotal: discount.InexactFloat64(),
		Total:         total.InexactFloat64(),
	}, nil
}

// LineSubtotal returns the price snapshot for a single line rounded to
// 2 decimal places, used for the stored order item subtotal.
func LineSubtotal(unitPrice, quantity float64) float64 {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromFloat(quantity)).Round(2).InexactFloat64()
}
