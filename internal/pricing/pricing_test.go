package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateTaxOnly(t *testing.T) {
	// Two products at PPN 11%, no discount.
	quote, err := Calculate([]Line{
		{UnitPrice: 10000, Quantity: 2},
		{UnitPrice: 5000, Quantity: 1},
	}, Config{TaxPercent: 11}, nil)
	require.NoError(t, err)

	require.Equal(t, 25000.0, quote.Subtotal)
	require.Equal(t, 2750.0, quote.TaxTotal)
	require.Equal(t, 0.0, quote.DiscountTotal)
	require.Equal(t, 27750.0, quote.Total)
}

func TestCalculateCustomDiscountStacksOnDefault(t *testing.T) {
	cfg := Config{TaxPercent: 0, DefaultDiscountPercent: 10}

	quote, err := Calculate([]Line{{UnitPrice: 1000, Quantity: 10}}, cfg, &CustomDiscount{Amount: 500, Type: DiscountTypeFixed})
	require.NoError(t, err)

	// Default 10% of 10000 = 1000, custom 500 stacks on top of it.
	require.Equal(t, 1500.0, quote.DiscountTotal)
	require.Equal(t, 8500.0, quote.Total)

	quote, err = Calculate([]Line{{UnitPrice: 1000, Quantity: 10}}, cfg, &CustomDiscount{Amount: 5, Type: DiscountTypePercentage})
	require.NoError(t, err)
	require.Equal(t, 1500.0, quote.DiscountTotal)
}

func TestCalculateRoundsAggregateNotLines(t *testing.T) {
	// 0.333 * 3 per line would round to 1.00 three times (3.00) if rounded
	// per line; aggregate rounding keeps 2.997 -> 3.00 exactly once.
	quote, err := Calculate([]Line{
		{UnitPrice: 0.333, Quantity: 3},
		{UnitPrice: 0.333, Quantity: 3},
		{UnitPrice: 0.333, Quantity: 3},
	}, Config{}, nil)
	require.NoError(t, err)
	require.Equal(t, 3.0, quote.Subtotal)
}

func TestCalculateDoesNotClampNegativeTotal(t *testing.T) {
	quote, err := Calculate([]Line{{UnitPrice: 100, Quantity: 1}}, Config{}, &CustomDiscount{Amount: 500, Type: DiscountTypeFixed})
	require.NoError(t, err)
	require.Equal(t, -400.0, quote.Total)
}

func TestCalculateUnknownDiscountType(t *testing.T) {
	_, err := Calculate([]Line{{UnitPrice: 100, Quantity: 1}}, Config{}, &CustomDiscount{Amount: 1, Type: "bogus"})
	require.ErrorIs(t, err, ErrUnknownDiscountType)
}

func TestLineSubtotal(t *testing.T) {
	require.Equal(t, 2500.5, LineSubtotal(500.1, 5))
}
