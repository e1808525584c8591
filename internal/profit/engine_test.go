package profit

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/model"
	"github.com/agromargin/profit-engine/internal/scenario"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// testFarm is the reference scenario: 500 acres of corn, APH and projected
// yield both 200 bu/acre.
func testFarm() model.Farm {
	return model.Farm{
		ID:             "farm-1",
		Name:           "Home Quarter",
		Acres:          d(500),
		APH:            d(200),
		ProjectedYield: d(200),
		Commodity:      model.CommodityCorn,
		CropYear:       2025,
	}
}

// testCosts totals exactly 700/acre.
func testCosts() model.CostBreakdown {
	return model.CostBreakdown{
		Fertilizer:        d(150),
		Chemical:          d(80),
		Seed:              d(120),
		LandRent:          d(250),
		EquipmentLoan:     d(50),
		LandLoan:          d(30),
		OperatingInterest: d(15),
		Other:             d(5),
	}
}

func rpPolicy() *model.InsurancePolicy {
	return &model.InsurancePolicy{
		ID:             "pol-1",
		FarmID:         "farm-1",
		PlanType:       model.PlanRP,
		CoverageLevel:  80,
		ProjectedPrice: d(4.50),
		PremiumPerAcre: d(20),
	}
}

func findCell(t *testing.T, cells []model.ProfitMatrixCell, yield, price decimal.Decimal) model.ProfitMatrixCell {
	t.Helper()
	for _, c := range cells {
		if c.YieldBuAcre.Equal(yield) && c.PriceBu.Equal(price) {
			return c
		}
	}
	t.Fatalf("no cell at yield=%s price=%s", yield, price)
	return model.ProfitMatrixCell{}
}

// --- Blender tests ---

func TestBlendedRevenue_NothingMarketed(t *testing.T) {
	rev := BlendedRevenue(d(200), d(4.50), model.MarketedPosition{})
	if !rev.Equal(d(900)) {
		t.Errorf("expected 900, got %s", rev)
	}
}

func TestBlendedRevenue_PartialSplit(t *testing.T) {
	// 80 bu locked at 5.00, remaining 120 bu at the scenario price 4.00.
	pos := model.MarketedPosition{BushelsPerAcre: d(80), WeightedAvgPrice: d(5.00)}
	rev := BlendedRevenue(d(200), d(4.00), pos)
	if !rev.Equal(d(880)) {
		t.Errorf("expected 400 + 480 = 880, got %s", rev)
	}
}

func TestBlendedRevenue_YieldBelowCommitment(t *testing.T) {
	// Only 60 bu realized against an 80 bu commitment: all 60 net the
	// fixed price, the remaining term never goes negative.
	pos := model.MarketedPosition{BushelsPerAcre: d(80), WeightedAvgPrice: d(5.00)}
	rev := BlendedRevenue(d(60), d(4.00), pos)
	if !rev.Equal(d(300)) {
		t.Errorf("expected 60×5.00 = 300, got %s", rev)
	}
}

// --- Engine tests ---

func TestRun_ReferenceScenario(t *testing.T) {
	resp, err := Run(Input{Farm: testFarm(), Costs: testCosts(), Policy: rpPolicy()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCells := scenario.YieldSteps * scenario.PriceSteps
	if len(resp.Cells) != wantCells {
		t.Fatalf("expected %d cells, got %d", wantCells, len(resp.Cells))
	}

	// At projected yield and price: revenue 900, cost 700, no shortfall,
	// net = 900 − 700 − 20 premium = 180.
	cell := findCell(t, resp.Cells, d(200), d(4.50))
	if !cell.GrossRevenuePerAcre.Equal(d(900)) {
		t.Errorf("gross revenue: want 900, got %s", cell.GrossRevenuePerAcre)
	}
	if !cell.InsuranceIndemnity.IsZero() {
		t.Errorf("indemnity: want 0, got %s", cell.InsuranceIndemnity)
	}
	if !cell.NetProfitPerAcre.Equal(d(180)) {
		t.Errorf("net profit: want 180, got %s", cell.NetProfitPerAcre)
	}

	// At the -40% yield scenario (120 bu): actual = 540, guarantee = 720,
	// indemnity = 180, net = 540 − 700 + 180 − 20 = 0.
	cell = findCell(t, resp.Cells, d(120), d(4.50))
	if !cell.InsuranceIndemnity.Equal(d(180)) {
		t.Errorf("indemnity: want 180, got %s", cell.InsuranceIndemnity)
	}
	if !cell.NetProfitPerAcre.IsZero() {
		t.Errorf("net profit: want 0, got %s", cell.NetProfitPerAcre)
	}
}

func TestRun_CellOrdering(t *testing.T) {
	resp, err := Run(Input{Farm: testFarm(), Costs: testCosts()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Yield rows outer, price columns inner, both ascending.
	cols := len(resp.PriceScenarios)
	for i, c := range resp.Cells {
		wantYield := resp.YieldScenarios[i/cols]
		wantPrice := resp.PriceScenarios[i%cols]
		if !c.YieldBuAcre.Equal(wantYield) || !c.PriceBu.Equal(wantPrice) {
			t.Fatalf("cell %d out of order: got (%s, %s), want (%s, %s)",
				i, c.YieldBuAcre, c.PriceBu, wantYield, wantPrice)
		}
	}
}

func TestRun_NetProfitMonotonicInPrice(t *testing.T) {
	// With no insurance or YP insurance, net profit never decreases as
	// the price scenario rises for a fixed yield row.
	yp := rpPolicy()
	yp.PlanType = model.PlanYP

	inputs := []Input{
		{Farm: testFarm(), Costs: testCosts()},
		{Farm: testFarm(), Costs: testCosts(), Policy: yp},
	}

	for _, in := range inputs {
		resp, err := Run(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cols := len(resp.PriceScenarios)
		for row := 0; row < len(resp.YieldScenarios); row++ {
			for col := 1; col < cols; col++ {
				prev := resp.Cells[row*cols+col-1].NetProfitPerAcre
				cur := resp.Cells[row*cols+col].NetProfitPerAcre
				if cur.LessThan(prev) {
					t.Fatalf("net profit decreased with price at row %d col %d: %s → %s",
						row, col, prev, cur)
				}
			}
		}
	}
}

func TestRun_FullyMarketedIsPriceInsensitive(t *testing.T) {
	// 100% of projected production already priced: no market-price
	// sensitivity remains in any yield row.
	in := Input{
		Farm:     testFarm(),
		Costs:    testCosts(),
		Marketed: model.MarketedPosition{BushelsPerAcre: d(200), WeightedAvgPrice: d(5.00)},
	}
	resp, err := Run(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rows above the marketed commitment carry excess production priced
	// at the scenario price; every row at or below it is fully locked in.
	cols := len(resp.PriceScenarios)
	for row := 0; row < len(resp.YieldScenarios); row++ {
		if resp.YieldScenarios[row].GreaterThan(d(200)) {
			continue
		}
		first := resp.Cells[row*cols].NetProfitPerAcre
		for col := 1; col < cols; col++ {
			got := resp.Cells[row*cols+col].NetProfitPerAcre
			if !got.Equal(first) {
				t.Fatalf("fully marketed row %d varies with price: %s vs %s", row, first, got)
			}
		}
	}
}

func TestRun_IndemnitiesNonNegative(t *testing.T) {
	pol := rpPolicy()
	pol.HasSco = true
	pol.HasEco = true
	pol.EcoLevel = 95
	pol.ScoPremiumPerAcre = d(8)
	pol.EcoPremiumPerAcre = d(12)

	resp, err := Run(Input{
		Farm:   testFarm(),
		Costs:  testCosts(),
		Policy: pol,
		CountySimulation: &model.CountyYieldSimulation{
			ExpectedCountyYield:  d(200),
			SimulatedCountyYield: d(150),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range resp.Cells {
		if c.InsuranceIndemnity.IsNegative() || c.ScoIndemnity.IsNegative() || c.EcoIndemnity.IsNegative() {
			t.Fatalf("negative indemnity at yield=%s price=%s: base=%s sco=%s eco=%s",
				c.YieldBuAcre, c.PriceBu, c.InsuranceIndemnity, c.ScoIndemnity, c.EcoIndemnity)
		}
		// Endorsement premiums are charged in every cell.
		if !c.InsurancePremiumCost.Equal(d(40)) {
			t.Fatalf("premium cost: want 40, got %s", c.InsurancePremiumCost)
		}
	}
}

func TestRun_ZeroAPH(t *testing.T) {
	farm := testFarm()
	farm.APH = d(0)

	resp, err := Run(Input{Farm: farm, Costs: testCosts(), Policy: rpPolicy()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range resp.Cells {
		if !c.InsuranceIndemnity.IsZero() || !c.ScoIndemnity.IsZero() || !c.EcoIndemnity.IsZero() {
			t.Fatalf("zero APH must zero all indemnities, got base=%s sco=%s eco=%s",
				c.InsuranceIndemnity, c.ScoIndemnity, c.EcoIndemnity)
		}
	}
	if !resp.Summary.GuaranteePerAcre.IsZero() {
		t.Errorf("zero APH guarantee should be zero, got %s", resp.Summary.GuaranteePerAcre)
	}
}

func TestRun_Deterministic(t *testing.T) {
	in := Input{
		Farm:     testFarm(),
		Costs:    testCosts(),
		Marketed: model.MarketedPosition{BushelsPerAcre: d(60), WeightedAvgPrice: d(4.80)},
		Policy:   rpPolicy(),
		CountySimulation: &model.CountyYieldSimulation{
			ExpectedCountyYield:  d(195),
			SimulatedCountyYield: d(170),
		},
	}

	r1, err := Run(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := Run(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b1, _ := json.Marshal(r1)
	b2, _ := json.Marshal(r2)
	if string(b1) != string(b2) {
		t.Error("identical inputs must produce bit-identical output")
	}
}

func TestRun_Summary(t *testing.T) {
	in := Input{
		Farm:     testFarm(),
		Costs:    testCosts(),
		Marketed: model.MarketedPosition{BushelsPerAcre: d(80), WeightedAvgPrice: d(4.80)},
		Policy:   rpPolicy(),
	}
	resp, err := Run(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := resp.Summary
	if !s.BreakEvenPrice.Equal(d(3.50)) {
		t.Errorf("break-even: want 700/200 = 3.50, got %s", s.BreakEvenPrice)
	}
	if !s.GuaranteePerAcre.Equal(d(720)) {
		t.Errorf("guarantee: want 200×0.80×4.50 = 720, got %s", s.GuaranteePerAcre)
	}
	if !s.PctMarketed.Equal(d(40)) {
		t.Errorf("pct marketed: want 40, got %s", s.PctMarketed)
	}
	if !s.TotalCostPerAcre.Equal(d(700)) {
		t.Errorf("total cost: want 700, got %s", s.TotalCostPerAcre)
	}
	if s.ProjectedScenario == nil {
		t.Fatal("expected a projected scenario cell")
	}
	// The grid contains the exact projected yield/price point.
	if !s.ProjectedScenario.YieldBuAcre.Equal(d(200)) || !s.ProjectedScenario.PriceBu.Equal(d(4.50)) {
		t.Errorf("projected scenario should be (200, 4.50), got (%s, %s)",
			s.ProjectedScenario.YieldBuAcre, s.ProjectedScenario.PriceBu)
	}
}

func TestRun_ZeroProjectedYieldSummaryGuards(t *testing.T) {
	farm := testFarm()
	farm.APH = d(0)
	farm.ProjectedYield = d(0)

	resp, err := Run(Input{Farm: farm, Costs: testCosts()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Summary.BreakEvenPrice.IsZero() {
		t.Errorf("break-even must be zero at zero yield, got %s", resp.Summary.BreakEvenPrice)
	}
	if !resp.Summary.PctMarketed.IsZero() {
		t.Errorf("pct marketed must be zero at zero yield, got %s", resp.Summary.PctMarketed)
	}
	for _, c := range resp.Cells {
		if !c.GrossRevenuePerAcre.IsZero() {
			t.Fatalf("zero anchors must produce zero revenue, got %s", c.GrossRevenuePerAcre)
		}
	}
}

// --- Validation tests ---

func TestRun_ValidationFailures(t *testing.T) {
	badCosts := testCosts()
	badCosts.Seed = d(-10)

	badFarm := testFarm()
	badFarm.Acres = d(0)

	badCommodity := testFarm()
	badCommodity.Commodity = "RICE"

	badCoverage := rpPolicy()
	badCoverage.CoverageLevel = 82

	ecoNoLevel := rpPolicy()
	ecoNoLevel.HasEco = true

	overMarketed := model.MarketedPosition{BushelsPerAcre: d(250), WeightedAvgPrice: d(4.80)}

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"negative cost", Input{Farm: testFarm(), Costs: badCosts}, "seed"},
		{"zero acres", Input{Farm: badFarm, Costs: testCosts()}, "acres"},
		{"bad commodity", Input{Farm: badCommodity, Costs: testCosts()}, "commodity"},
		{"off-step coverage", Input{Farm: testFarm(), Costs: testCosts(), Policy: badCoverage}, "coverage_level"},
		{"eco without level", Input{Farm: testFarm(), Costs: testCosts(), Policy: ecoNoLevel}, "eco_level"},
		{"over-marketed", Input{Farm: testFarm(), Costs: testCosts(), Marketed: overMarketed}, "bushels_per_acre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Run(tt.in)
			if resp != nil {
				t.Fatal("expected no partial result on validation failure")
			}
			var fe *model.FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldError, got %v", err)
			}
			if fe.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, fe.Field)
			}
			if !errors.Is(err, model.ErrInvalidInput) {
				t.Error("FieldError should wrap ErrInvalidInput")
			}
		})
	}
}
