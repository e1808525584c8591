// Package model defines the core domain types shared across the profit engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commodity is the crop grown on a farm. Closed set.
type Commodity string

const (
	CommodityCorn     Commodity = "CORN"
	CommoditySoybeans Commodity = "SOYBEANS"
	CommodityWheat    Commodity = "WHEAT"
)

// ValidCommodities enumerates the supported commodity types.
var ValidCommodities = map[Commodity]bool{
	CommodityCorn:     true,
	CommoditySoybeans: true,
	CommodityWheat:    true,
}

// PlanType is the federal crop-insurance plan type.
// RP revises its guarantee upward with the harvest price; YP is price-blind;
// RP_HPE is RP with the harvest-price revision excluded.
type PlanType string

const (
	PlanRP    PlanType = "RP"
	PlanYP    PlanType = "YP"
	PlanRPHPE PlanType = "RP_HPE"
)

// ValidPlanTypes enumerates the supported insurance plan types.
var ValidPlanTypes = map[PlanType]bool{
	PlanRP:    true,
	PlanYP:    true,
	PlanRPHPE: true,
}

// Farm is a persisted farm record. The engine consumes it as an immutable
// snapshot; acreage and yields never change during a computation.
type Farm struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Acres          decimal.Decimal `json:"acres" db:"acres"`
	APH            decimal.Decimal `json:"aph" db:"aph"`                         // bu/acre, historical average
	ProjectedYield decimal.Decimal `json:"projected_yield" db:"projected_yield"` // bu/acre
	Commodity      Commodity       `json:"commodity" db:"commodity"`
	CropYear       int             `json:"crop_year" db:"crop_year"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// CostBreakdown itemizes per-acre production costs for a farm/year.
// A missing component is zero (decimal zero value); negative components are
// rejected at validation time, never clamped.
type CostBreakdown struct {
	FarmID            string          `json:"farm_id,omitempty" db:"farm_id"`
	Fertilizer        decimal.Decimal `json:"fertilizer" db:"fertilizer"`
	Chemical          decimal.Decimal `json:"chemical" db:"chemical"`
	Seed              decimal.Decimal `json:"seed" db:"seed"`
	LandRent          decimal.Decimal `json:"land_rent" db:"land_rent"`
	EquipmentLoan     decimal.Decimal `json:"equipment_loan" db:"equipment_loan"`
	LandLoan          decimal.Decimal `json:"land_loan" db:"land_loan"`
	OperatingInterest decimal.Decimal `json:"operating_interest" db:"operating_interest"`
	Other             decimal.Decimal `json:"other" db:"other"`
}

// Total sums all components into the per-acre cost total.
func (c CostBreakdown) Total() decimal.Decimal {
	return c.Fertilizer.
		Add(c.Chemical).
		Add(c.Seed).
		Add(c.LandRent).
		Add(c.EquipmentLoan).
		Add(c.LandLoan).
		Add(c.OperatingInterest).
		Add(c.Other)
}

// Components returns the named components for field-level validation.
func (c CostBreakdown) Components() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"fertilizer":         c.Fertilizer,
		"chemical":           c.Chemical,
		"seed":               c.Seed,
		"land_rent":          c.LandRent,
		"equipment_loan":     c.EquipmentLoan,
		"land_loan":          c.LandLoan,
		"operating_interest": c.OperatingInterest,
		"other":              c.Other,
	}
}

// MarketedPosition summarizes grain already sold under forward contracts.
// WeightedAvgPrice is ignored when BushelsPerAcre is zero.
type MarketedPosition struct {
	FarmID           string          `json:"farm_id,omitempty" db:"farm_id"`
	BushelsPerAcre   decimal.Decimal `json:"bushels_per_acre" db:"bushels_per_acre"`
	WeightedAvgPrice decimal.Decimal `json:"weighted_avg_price" db:"weighted_avg_price"`
}

// InsurancePolicy is the optional base policy plus area endorsements for a
// farm/year. The engine reads it; create/update/delete happen through the
// policy store.
type InsurancePolicy struct {
	ID                string          `json:"id" db:"id"`
	FarmID            string          `json:"farm_id" db:"farm_id"`
	PlanType          PlanType        `json:"plan_type" db:"plan_type"`
	CoverageLevel     int             `json:"coverage_level" db:"coverage_level"` // percent: 50–85 step 5
	ProjectedPrice    decimal.Decimal `json:"projected_price" db:"projected_price"`
	VolatilityFactor  decimal.Decimal `json:"volatility_factor" db:"volatility_factor"`
	PremiumPerAcre    decimal.Decimal `json:"premium_per_acre" db:"premium_per_acre"`
	HasSco            bool            `json:"has_sco" db:"has_sco"`
	HasEco            bool            `json:"has_eco" db:"has_eco"`
	EcoLevel          int             `json:"eco_level" db:"eco_level"` // 90 or 95, required iff HasEco
	ScoPremiumPerAcre decimal.Decimal `json:"sco_premium_per_acre" db:"sco_premium_per_acre"`
	EcoPremiumPerAcre decimal.Decimal `json:"eco_premium_per_acre" db:"eco_premium_per_acre"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// CoverageFraction returns the coverage level as a fraction (0.80 for 80).
func (p *InsurancePolicy) CoverageFraction() decimal.Decimal {
	return decimal.NewFromInt(int64(p.CoverageLevel)).Div(decimal.NewFromInt(100))
}

// TotalPremiumPerAcre is the flat per-acre premium cost: base plus any
// enabled endorsement premiums, charged regardless of payout.
func (p *InsurancePolicy) TotalPremiumPerAcre() decimal.Decimal {
	total := p.PremiumPerAcre
	if p.HasSco {
		total = total.Add(p.ScoPremiumPerAcre)
	}
	if p.HasEco {
		total = total.Add(p.EcoPremiumPerAcre)
	}
	return total
}

// CountyYieldSimulation supplies county-level yields for SCO/ECO triggers.
// Absent simulation means area indemnities are reported as zero.
type CountyYieldSimulation struct {
	ExpectedCountyYield  decimal.Decimal `json:"expected_county_yield"`
	SimulatedCountyYield decimal.Decimal `json:"simulated_county_yield"`
}

// ProfitMatrixCell is one yield×price outcome. Derived, never mutated.
type ProfitMatrixCell struct {
	YieldBuAcre            decimal.Decimal `json:"yield_bu_acre"`
	PriceBu                decimal.Decimal `json:"price_bu"`
	GrossRevenuePerAcre    decimal.Decimal `json:"gross_revenue_per_acre"`
	TotalCostPerAcre       decimal.Decimal `json:"total_cost_per_acre"`
	ProfitWithoutInsurance decimal.Decimal `json:"profit_without_insurance"`
	InsuranceIndemnity     decimal.Decimal `json:"insurance_indemnity"`
	ScoIndemnity           decimal.Decimal `json:"sco_indemnity"`
	EcoIndemnity           decimal.Decimal `json:"eco_indemnity"`
	InsurancePremiumCost   decimal.Decimal `json:"insurance_premium_cost"`
	NetProfitPerAcre       decimal.Decimal `json:"net_profit_per_acre"`
}

// ProfitMatrixSummary carries the top-level aggregate figures.
type ProfitMatrixSummary struct {
	BreakEvenPrice    decimal.Decimal   `json:"break_even_price"`
	GuaranteePerAcre  decimal.Decimal   `json:"guarantee_per_acre"`
	PremiumPerAcre    decimal.Decimal   `json:"premium_per_acre"`
	PctMarketed       decimal.Decimal   `json:"pct_marketed"`
	TotalCostPerAcre  decimal.Decimal   `json:"total_cost_per_acre"`
	ProjectedScenario *ProfitMatrixCell `json:"projected_scenario,omitempty"`
}

// ProfitMatrixResponse is the full engine output, serializable to JSON for
// the calling web layer.
type ProfitMatrixResponse struct {
	Farm             Farm                   `json:"farm"`
	YieldScenarios   []decimal.Decimal      `json:"yield_scenarios"`
	PriceScenarios   []decimal.Decimal      `json:"price_scenarios"`
	Cells            []ProfitMatrixCell     `json:"cells"` // yield rows outer, price columns inner
	Costs            CostBreakdown          `json:"costs"`
	MarketedPosition MarketedPosition       `json:"marketed_position"`
	Policy           *InsurancePolicy       `json:"policy,omitempty"`
	CountySimulation *CountyYieldSimulation `json:"county_simulation,omitempty"`
	Summary          ProfitMatrixSummary    `json:"summary"`
}
