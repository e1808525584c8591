package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is the sentinel wrapped by every validation failure.
var ErrInvalidInput = errors.New("model: invalid input")

// FieldError identifies the single offending field of a rejected input.
// Validation stops at the first failure — the engine never computes a
// partial result from bad inputs.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

func fieldErr(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateFarm checks a farm snapshot before computation.
func ValidateFarm(f Farm) error {
	if f.Acres.LessThanOrEqual(decimal.Zero) {
		return fieldErr("acres", "must be positive, got %s", f.Acres)
	}
	if f.APH.IsNegative() {
		return fieldErr("aph", "must be non-negative, got %s", f.APH)
	}
	if f.ProjectedYield.IsNegative() {
		return fieldErr("projected_yield", "must be non-negative, got %s", f.ProjectedYield)
	}
	if !ValidCommodities[f.Commodity] {
		return fieldErr("commodity", "unsupported commodity %q", f.Commodity)
	}
	return nil
}

// ValidateCosts rejects negative cost components. Missing components are
// zero; a negative value is a data-entry error upstream, not something to
// silently clamp.
func ValidateCosts(c CostBreakdown) error {
	for field, v := range c.Components() {
		if v.IsNegative() {
			return fieldErr(field, "cost component must be non-negative, got %s", v)
		}
	}
	return nil
}

// ValidateMarketedPosition checks the marketed summary against the farm's
// projected yield.
func ValidateMarketedPosition(m MarketedPosition, projectedYield decimal.Decimal) error {
	if m.BushelsPerAcre.IsNegative() {
		return fieldErr("bushels_per_acre", "must be non-negative, got %s", m.BushelsPerAcre)
	}
	if m.BushelsPerAcre.GreaterThan(projectedYield) {
		return fieldErr("bushels_per_acre", "cannot exceed projected yield %s, got %s",
			projectedYield, m.BushelsPerAcre)
	}
	if m.BushelsPerAcre.IsPositive() && m.WeightedAvgPrice.LessThanOrEqual(decimal.Zero) {
		return fieldErr("weighted_avg_price", "must be positive when bushels are marketed, got %s",
			m.WeightedAvgPrice)
	}
	return nil
}

// ValidatePolicy checks an insurance policy record.
func ValidatePolicy(p *InsurancePolicy) error {
	if p == nil {
		return nil // no insurance is not an error
	}
	if !ValidPlanTypes[p.PlanType] {
		return fieldErr("plan_type", "unsupported plan type %q", p.PlanType)
	}
	if p.CoverageLevel < 50 || p.CoverageLevel > 85 || p.CoverageLevel%5 != 0 {
		return fieldErr("coverage_level", "must be 50-85 in steps of 5, got %d", p.CoverageLevel)
	}
	if p.ProjectedPrice.LessThanOrEqual(decimal.Zero) {
		return fieldErr("projected_price", "must be positive, got %s", p.ProjectedPrice)
	}
	if p.PremiumPerAcre.IsNegative() {
		return fieldErr("premium_per_acre", "must be non-negative, got %s", p.PremiumPerAcre)
	}
	if p.ScoPremiumPerAcre.IsNegative() {
		return fieldErr("sco_premium_per_acre", "must be non-negative, got %s", p.ScoPremiumPerAcre)
	}
	if p.EcoPremiumPerAcre.IsNegative() {
		return fieldErr("eco_premium_per_acre", "must be non-negative, got %s", p.EcoPremiumPerAcre)
	}
	if p.HasEco && p.EcoLevel != 90 && p.EcoLevel != 95 {
		return fieldErr("eco_level", "must be 90 or 95 when ECO is enabled, got %d", p.EcoLevel)
	}
	if !p.HasEco && p.EcoLevel != 0 {
		return fieldErr("eco_level", "set without ECO enabled")
	}
	return nil
}

// ValidateCountySimulation checks optional county-yield inputs.
func ValidateCountySimulation(c *CountyYieldSimulation) error {
	if c == nil {
		return nil
	}
	if c.ExpectedCountyYield.IsNegative() {
		return fieldErr("expected_county_yield", "must be non-negative, got %s", c.ExpectedCountyYield)
	}
	if c.SimulatedCountyYield.IsNegative() {
		return fieldErr("simulated_county_yield", "must be non-negative, got %s", c.SimulatedCountyYield)
	}
	return nil
}
