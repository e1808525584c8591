// Package scenario generates the deterministic yield and price axes the
// profit matrix is evaluated over. Same inputs always produce the same axis
// values, so computed grids are reproducible and cacheable.
package scenario

import (
	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/model"
)

// Axis shape. The yield axis spans ±40% of its anchor in 8% steps; the price
// axis spans ±30% of its anchor in 5% steps, so price columns are finer
// grained than yield rows.
const (
	YieldSteps = 11
	PriceSteps = 13
)

var (
	yieldFloor = decimal.NewFromFloat(0.60)
	yieldStep  = decimal.NewFromFloat(0.08)
	priceFloor = decimal.NewFromFloat(0.70)
	priceStep  = decimal.NewFromFloat(0.05)

	// axisScale is the rounding for axis values (whole cents / hundredths
	// of a bushel).
	axisScale int32 = 2
)

// defaultPrices anchor the price axis when no policy supplies a projected
// price. Rough long-run commodity price levels in $/bu.
var defaultPrices = map[model.Commodity]decimal.Decimal{
	model.CommodityCorn:     decimal.NewFromFloat(4.50),
	model.CommoditySoybeans: decimal.NewFromFloat(11.00),
	model.CommodityWheat:    decimal.NewFromFloat(6.50),
}

// YieldAxis returns the ascending yield scenarios. The anchor is APH,
// falling back to the projected yield when APH is zero or missing. If both
// are zero the axis is all zeros — downstream math reports zero guarantee
// and zero revenue instead of dividing by zero.
func YieldAxis(aph, projectedYield decimal.Decimal) []decimal.Decimal {
	anchor := aph
	if !anchor.IsPositive() {
		anchor = projectedYield
	}
	return axis(anchor, yieldFloor, yieldStep, YieldSteps)
}

// PriceAxis returns the ascending price scenarios anchored at the policy's
// projected price, or the commodity default when no policy is present.
func PriceAxis(projectedPrice decimal.Decimal, commodity model.Commodity) []decimal.Decimal {
	anchor := projectedPrice
	if !anchor.IsPositive() {
		anchor = defaultPrices[commodity]
	}
	return axis(anchor, priceFloor, priceStep, PriceSteps)
}

func axis(anchor, floor, step decimal.Decimal, n int) []decimal.Decimal {
	values := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		factor := floor.Add(step.Mul(decimal.NewFromInt(int64(i))))
		values[i] = anchor.Mul(factor).Round(axisScale)
	}
	return values
}
