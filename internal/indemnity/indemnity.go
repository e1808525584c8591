// Package indemnity implements federal crop-insurance indemnity math for
// the three base plan types (YP, RP, RP-HPE) and the area-based SCO/ECO
// endorsements.
//
// Base-layer formulas per acre:
//
//	YP:     indemnity = max(0, aph·cov − yield) · projectedPrice
//	RP:     indemnity = max(0, aph·cov·max(projectedPrice, harvestPrice)
//	                           − yield·harvestPrice)
//	RP-HPE: indemnity = max(0, aph·cov·projectedPrice − yield·harvestPrice)
//
// RP's guarantee revises upward when the harvest price exceeds the projected
// price; RP-HPE excludes that revision in exchange for a lower premium; YP
// never looks at the harvest price at all.
//
// SCO covers the band from the 86% area trigger down to the policy's own
// coverage level; ECO covers from its elected level (90% or 95%) down to
// 86%. The bands stack without overlap. Both pay linearly within their band
// on a county yield ratio (YP) or county revenue ratio (RP, RP-HPE), scaled
// by the farm's APH and the plan's price — not by county production.
//
// All monetary values use shopspring/decimal — never float64 for money.
// Every payout is clamped non-negative and can never exceed its own
// guarantee amount.
package indemnity

import (
	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/model"
)

var (
	// ScoTrigger is the county ratio below which SCO begins to pay.
	// Fixed at 86% by the federal program definition.
	ScoTrigger = decimal.NewFromFloat(0.86)

	hundred = decimal.NewFromInt(100)
)

// Calculator computes indemnities for one policy against one farm's APH.
// It is stateless — scenario values are passed as arguments, not stored.
type Calculator struct {
	policy *model.InsurancePolicy
	aph    decimal.Decimal
}

// NewCalculator binds a policy and a farm's APH. A nil policy is valid:
// every method then reports zero (no insurance, no indemnity).
func NewCalculator(policy *model.InsurancePolicy, aph decimal.Decimal) *Calculator {
	return &Calculator{policy: policy, aph: aph}
}

// EffectivePrice returns the price the guarantee is valued at for a given
// harvest-price scenario. Only RP revises upward; YP and RP-HPE stay at the
// policy's projected price.
func (c *Calculator) EffectivePrice(scenarioPrice decimal.Decimal) decimal.Decimal {
	if c.policy == nil {
		return decimal.Zero
	}
	if c.policy.PlanType == model.PlanRP && scenarioPrice.GreaterThan(c.policy.ProjectedPrice) {
		return scenarioPrice
	}
	return c.policy.ProjectedPrice
}

// Guarantee returns the per-acre guarantee amount in revenue terms for a
// given harvest-price scenario: aph · cov · price, where price follows the
// plan's revision rule.
func (c *Calculator) Guarantee(scenarioPrice decimal.Decimal) decimal.Decimal {
	if c.policy == nil || !c.aph.IsPositive() {
		return decimal.Zero
	}
	cov := c.policy.CoverageFraction()
	switch c.policy.PlanType {
	case model.PlanYP:
		return c.aph.Mul(cov).Mul(c.policy.ProjectedPrice)
	case model.PlanRP, model.PlanRPHPE:
		return c.aph.Mul(cov).Mul(c.EffectivePrice(scenarioPrice))
	}
	return decimal.Zero
}

// Base computes the base-layer indemnity per acre for one yield/price
// scenario. Zero APH means no meaningful guarantee exists, so the indemnity
// is explicitly zero rather than a divide-by-zero artifact.
func (c *Calculator) Base(scenarioYield, scenarioPrice decimal.Decimal) decimal.Decimal {
	if c.policy == nil || !c.aph.IsPositive() {
		return decimal.Zero
	}

	cov := c.policy.CoverageFraction()

	switch c.policy.PlanType {
	case model.PlanYP:
		// Bushel shortfall valued at the projected price, never the
		// scenario price.
		guaranteeBu := c.aph.Mul(cov)
		shortfall := guaranteeBu.Sub(scenarioYield)
		if shortfall.IsNegative() {
			return decimal.Zero
		}
		return shortfall.Mul(c.policy.ProjectedPrice)

	case model.PlanRP, model.PlanRPHPE:
		guarantee := c.aph.Mul(cov).Mul(c.EffectivePrice(scenarioPrice))
		actual := scenarioYield.Mul(scenarioPrice)
		indem := guarantee.Sub(actual)
		if indem.IsNegative() {
			return decimal.Zero
		}
		return indem
	}

	return decimal.Zero
}

// Area computes the SCO and ECO indemnities per acre for one price scenario
// and an optional county-yield simulation. A missing simulation, a zero
// expected county yield, or a zero APH all report zero with no error —
// "simulation not configured" is a disabled branch, not a failure.
func (c *Calculator) Area(scenarioPrice decimal.Decimal, county *model.CountyYieldSimulation) (sco, eco decimal.Decimal) {
	if c.policy == nil || !c.aph.IsPositive() || county == nil {
		return decimal.Zero, decimal.Zero
	}
	if !county.ExpectedCountyYield.IsPositive() {
		return decimal.Zero, decimal.Zero
	}

	ratio := c.countyRatio(scenarioPrice, county)
	price := c.areaPrice(scenarioPrice)

	if c.policy.HasSco {
		sco = c.bandPayout(ratio, ScoTrigger, c.policy.CoverageFraction(), price)
	}
	if c.policy.HasEco {
		ecoTop := decimal.NewFromInt(int64(c.policy.EcoLevel)).Div(hundred)
		eco = c.bandPayout(ratio, ecoTop, ScoTrigger, price)
	}
	return sco, eco
}

// countyRatio measures county outcome relative to expectation. YP uses the
// plain yield ratio; RP and RP-HPE use a revenue ratio with the same
// effective-price rule as the farm-level guarantee, so the county and farm
// calculations revise (or don't) together.
func (c *Calculator) countyRatio(scenarioPrice decimal.Decimal, county *model.CountyYieldSimulation) decimal.Decimal {
	if c.policy.PlanType == model.PlanYP {
		return county.SimulatedCountyYield.Div(county.ExpectedCountyYield)
	}
	expected := county.ExpectedCountyYield.Mul(c.EffectivePrice(scenarioPrice))
	if !expected.IsPositive() {
		return decimal.Zero
	}
	return county.SimulatedCountyYield.Mul(scenarioPrice).Div(expected)
}

// areaPrice is the price endorsement shortfalls are valued at: the plan's
// effective price for RP, the projected price for YP and RP-HPE.
func (c *Calculator) areaPrice(scenarioPrice decimal.Decimal) decimal.Decimal {
	if c.policy.PlanType == model.PlanRP {
		return c.EffectivePrice(scenarioPrice)
	}
	return c.policy.ProjectedPrice
}

// bandPayout computes a linear band payout: the county ratio's shortfall
// below `top`, capped at the band width down to `bottom`, scaled by the
// farm's production value (APH × price). Zero outside the band; the full
// band width at or below `bottom`.
func (c *Calculator) bandPayout(ratio, top, bottom, price decimal.Decimal) decimal.Decimal {
	band := top.Sub(bottom)
	if !band.IsPositive() {
		return decimal.Zero
	}
	shortfall := top.Sub(ratio)
	if !shortfall.IsPositive() {
		return decimal.Zero
	}
	if shortfall.GreaterThan(band) {
		shortfall = band
	}
	return shortfall.Mul(c.aph).Mul(price)
}
