package scenario

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestYieldAxis_Shape(t *testing.T) {
	axis := YieldAxis(d(200), d(190))

	if len(axis) != YieldSteps {
		t.Fatalf("expected %d yield scenarios, got %d", YieldSteps, len(axis))
	}
	if !axis[0].Equal(d(120)) {
		t.Errorf("axis should start at -40%% of APH (120), got %s", axis[0])
	}
	if !axis[len(axis)-1].Equal(d(280)) {
		t.Errorf("axis should end at +40%% of APH (280), got %s", axis[len(axis)-1])
	}
	// The APH anchor sits exactly at the midpoint.
	if !axis[len(axis)/2].Equal(d(200)) {
		t.Errorf("axis midpoint should be the APH anchor 200, got %s", axis[len(axis)/2])
	}
}

func TestYieldAxis_Ascending(t *testing.T) {
	axis := YieldAxis(d(173.4), d(160))
	for i := 1; i < len(axis); i++ {
		if !axis[i].GreaterThan(axis[i-1]) {
			t.Fatalf("axis not ascending at %d: %s then %s", i, axis[i-1], axis[i])
		}
	}
}

func TestYieldAxis_FallsBackToProjectedYield(t *testing.T) {
	axis := YieldAxis(d(0), d(150))
	if !axis[len(axis)/2].Equal(d(150)) {
		t.Errorf("zero APH should anchor on projected yield 150, got %s", axis[len(axis)/2])
	}
}

func TestYieldAxis_AllZeroAnchors(t *testing.T) {
	axis := YieldAxis(d(0), d(0))
	if len(axis) != YieldSteps {
		t.Fatalf("expected %d scenarios, got %d", YieldSteps, len(axis))
	}
	for i, v := range axis {
		if !v.IsZero() {
			t.Errorf("scenario %d should be zero with no anchor, got %s", i, v)
		}
	}
}

func TestPriceAxis_Shape(t *testing.T) {
	axis := PriceAxis(d(4.50), model.CommodityCorn)

	if len(axis) != PriceSteps {
		t.Fatalf("expected %d price scenarios, got %d", PriceSteps, len(axis))
	}
	if !axis[0].Equal(d(3.15)) {
		t.Errorf("axis should start at -30%% (3.15), got %s", axis[0])
	}
	if !axis[len(axis)/2].Equal(d(4.50)) {
		t.Errorf("axis midpoint should be the projected price 4.50, got %s", axis[len(axis)/2])
	}
	if !axis[len(axis)-1].Equal(d(5.85)) {
		t.Errorf("axis should end at +30%% (5.85), got %s", axis[len(axis)-1])
	}
}

func TestPriceAxis_CommodityDefaults(t *testing.T) {
	tests := []struct {
		commodity model.Commodity
		anchor    float64
	}{
		{model.CommodityCorn, 4.50},
		{model.CommoditySoybeans, 11.00},
		{model.CommodityWheat, 6.50},
	}
	for _, tt := range tests {
		axis := PriceAxis(decimal.Zero, tt.commodity)
		mid := axis[len(axis)/2]
		if !mid.Equal(d(tt.anchor)) {
			t.Errorf("%s default anchor should be %v, got %s", tt.commodity, tt.anchor, mid)
		}
	}
}

func TestAxes_Deterministic(t *testing.T) {
	y1 := YieldAxis(d(187.3), d(175))
	y2 := YieldAxis(d(187.3), d(175))
	p1 := PriceAxis(d(4.62), model.CommodityCorn)
	p2 := PriceAxis(d(4.62), model.CommodityCorn)

	for i := range y1 {
		if !y1[i].Equal(y2[i]) {
			t.Errorf("yield axis not deterministic at %d: %s vs %s", i, y1[i], y2[i])
		}
	}
	for i := range p1 {
		if !p1[i].Equal(p2[i]) {
			t.Errorf("price axis not deterministic at %d: %s vs %s", i, p1[i], p2[i])
		}
	}
}

func TestPriceAxis_RoundedToCents(t *testing.T) {
	axis := PriceAxis(d(4.63), model.CommodityCorn)
	for _, p := range axis {
		if p.Exponent() < -2 {
			t.Errorf("price %s not rounded to cents", p)
		}
	}
}
