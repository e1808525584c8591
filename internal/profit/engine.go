// Package profit assembles the per-farm profit matrix: a grid of net profit
// per acre across hypothetical harvest-yield and harvest-price outcomes,
// combining production costs, already-marketed grain, and crop-insurance
// indemnities.
//
// The engine is a pure function of its input snapshot. It performs no I/O,
// holds no shared state, and either returns a complete result or fails fast
// with a field-level validation error — never a partial grid.
//
// All monetary values use shopspring/decimal — never float64 for money.
package profit

import (
	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/indemnity"
	"github.com/agromargin/profit-engine/internal/model"
	"github.com/agromargin/profit-engine/internal/scenario"
)

// priceDistanceWeight scales price distance when locating the projected
// scenario cell. Yield steps are whole bushels while price steps are cents,
// so unweighted L1 distance would let yield dominate every comparison.
var priceDistanceWeight = decimal.NewFromInt(25)

var hundred = decimal.NewFromInt(100)

// Input is the full snapshot one matrix computation consumes. Policy and
// CountySimulation are optional; absence disables the corresponding branch.
type Input struct {
	Farm             model.Farm
	Costs            model.CostBreakdown
	Marketed         model.MarketedPosition
	Policy           *model.InsurancePolicy
	CountySimulation *model.CountyYieldSimulation
}

// Validate checks every input field before any computation begins.
func (in Input) Validate() error {
	if err := model.ValidateFarm(in.Farm); err != nil {
		return err
	}
	if err := model.ValidateCosts(in.Costs); err != nil {
		return err
	}
	if err := model.ValidateMarketedPosition(in.Marketed, in.Farm.ProjectedYield); err != nil {
		return err
	}
	if err := model.ValidatePolicy(in.Policy); err != nil {
		return err
	}
	return model.ValidateCountySimulation(in.CountySimulation)
}

// Run validates the input and computes the full profit matrix. Deterministic:
// identical inputs always produce identical output.
func Run(in Input) (*model.ProfitMatrixResponse, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var projectedPrice decimal.Decimal
	if in.Policy != nil {
		projectedPrice = in.Policy.ProjectedPrice
	}

	yields := scenario.YieldAxis(in.Farm.APH, in.Farm.ProjectedYield)
	prices := scenario.PriceAxis(projectedPrice, in.Farm.Commodity)

	calc := indemnity.NewCalculator(in.Policy, in.Farm.APH)
	totalCost := in.Costs.Total()

	// Yield rows outer, price columns inner, both ascending.
	cells := make([]model.ProfitMatrixCell, 0, len(yields)*len(prices))
	for _, y := range yields {
		for _, p := range prices {
			cells = append(cells, evaluateCell(y, p, totalCost, in.Marketed, calc, in.Policy, in.CountySimulation))
		}
	}

	return &model.ProfitMatrixResponse{
		Farm:             in.Farm,
		YieldScenarios:   yields,
		PriceScenarios:   prices,
		Cells:            cells,
		Costs:            in.Costs,
		MarketedPosition: in.Marketed,
		Policy:           in.Policy,
		CountySimulation: in.CountySimulation,
		Summary:          summarize(in, calc, totalCost, prices, cells),
	}, nil
}

// BlendedRevenue splits scenario production into the already-marketed
// tranche at its locked-in weighted average price and the remaining tranche
// at the scenario price. When realized yield falls below the marketed
// commitment, only the bushels actually available net the fixed price; the
// remaining term never goes negative.
func BlendedRevenue(scenarioYield, scenarioPrice decimal.Decimal, marketed model.MarketedPosition) decimal.Decimal {
	sold := marketed.BushelsPerAcre
	if sold.GreaterThan(scenarioYield) {
		sold = scenarioYield
	}
	remaining := scenarioYield.Sub(sold)
	return sold.Mul(marketed.WeightedAvgPrice).Add(remaining.Mul(scenarioPrice))
}

// evaluateCell combines revenue, cost, and every insurance layer for one
// yield/price pair. Every derived figure is attached to the cell.
func evaluateCell(
	y, p, totalCost decimal.Decimal,
	marketed model.MarketedPosition,
	calc *indemnity.Calculator,
	policy *model.InsurancePolicy,
	county *model.CountyYieldSimulation,
) model.ProfitMatrixCell {
	gross := BlendedRevenue(y, p, marketed)
	profitNoIns := gross.Sub(totalCost)

	base := calc.Base(y, p)
	sco, eco := calc.Area(p, county)

	var premium decimal.Decimal
	if policy != nil {
		premium = policy.TotalPremiumPerAcre()
	}

	net := profitNoIns.Add(base).Add(sco).Add(eco).Sub(premium)

	return model.ProfitMatrixCell{
		YieldBuAcre:            y,
		PriceBu:                p,
		GrossRevenuePerAcre:    gross,
		TotalCostPerAcre:       totalCost,
		ProfitWithoutInsurance: profitNoIns,
		InsuranceIndemnity:     base,
		ScoIndemnity:           sco,
		EcoIndemnity:           eco,
		InsurancePremiumCost:   premium,
		NetProfitPerAcre:       net,
	}
}

// summarize derives the top-level figures from the computed grid.
func summarize(
	in Input,
	calc *indemnity.Calculator,
	totalCost decimal.Decimal,
	prices []decimal.Decimal,
	cells []model.ProfitMatrixCell,
) model.ProfitMatrixSummary {
	s := model.ProfitMatrixSummary{TotalCostPerAcre: totalCost}

	// Break-even price and % marketed are undefined at zero projected
	// yield; report zero rather than dividing.
	if in.Farm.ProjectedYield.IsPositive() {
		s.BreakEvenPrice = totalCost.Div(in.Farm.ProjectedYield).Round(2)
		s.PctMarketed = in.Marketed.BushelsPerAcre.Div(in.Farm.ProjectedYield).Mul(hundred).Round(2)
	}

	var anchorPrice decimal.Decimal
	if in.Policy != nil {
		s.GuaranteePerAcre = calc.Guarantee(in.Policy.ProjectedPrice)
		s.PremiumPerAcre = in.Policy.TotalPremiumPerAcre()
		anchorPrice = in.Policy.ProjectedPrice
	} else if len(prices) > 0 {
		// No policy: the price axis midpoint is the commodity default.
		anchorPrice = prices[len(prices)/2]
	}

	s.ProjectedScenario = nearestCell(cells, in.Farm.ProjectedYield, anchorPrice)
	return s
}

// nearestCell finds the grid cell closest to the farm's projected yield and
// the anchor price by weighted L1 distance.
func nearestCell(cells []model.ProfitMatrixCell, targetYield, targetPrice decimal.Decimal) *model.ProfitMatrixCell {
	if len(cells) == 0 {
		return nil
	}
	best := 0
	bestDist := cellDistance(cells[0], targetYield, targetPrice)
	for i := 1; i < len(cells); i++ {
		if d := cellDistance(cells[i], targetYield, targetPrice); d.LessThan(bestDist) {
			best = i
			bestDist = d
		}
	}
	cell := cells[best]
	return &cell
}

func cellDistance(c model.ProfitMatrixCell, targetYield, targetPrice decimal.Decimal) decimal.Decimal {
	dy := c.YieldBuAcre.Sub(targetYield).Abs()
	dp := c.PriceBu.Sub(targetPrice).Abs().Mul(priceDistanceWeight)
	return dy.Add(dp)
}
