package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary and yield values are stored as NUMERIC for exact decimal
// precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

func (s *PostgresStore) CreateFarm(ctx context.Context, f *model.Farm) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO farms (id, name, acres, aph, projected_yield, commodity, crop_year, created_at)
		 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6, $7, $8)`,
		f.ID, f.Name,
		f.Acres.String(), f.APH.String(), f.ProjectedYield.String(),
		string(f.Commodity), f.CropYear, f.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetFarm(ctx context.Context, id string) (*model.Farm, error) {
	var f model.Farm
	var acres, aph, projYield, commodity string

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, acres::TEXT, aph::TEXT, projected_yield::TEXT, commodity, crop_year, created_at
		 FROM farms WHERE id = $1`, id).
		Scan(&f.ID, &f.Name, &acres, &aph, &projYield, &commodity, &f.CropYear, &f.CreatedAt)
	if err != nil {
		return nil, notFound(err, "farm", id)
	}

	f.Acres, _ = decimal.NewFromString(acres)
	f.APH, _ = decimal.NewFromString(aph)
	f.ProjectedYield, _ = decimal.NewFromString(projYield)
	f.Commodity = model.Commodity(commodity)

	return &f, nil
}

func (s *PostgresStore) ListFarms(ctx context.Context) ([]model.Farm, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, acres::TEXT, aph::TEXT, projected_yield::TEXT, commodity, crop_year, created_at
		 FROM farms ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farms []model.Farm
	for rows.Next() {
		var f model.Farm
		var acres, aph, projYield, commodity string
		if err := rows.Scan(&f.ID, &f.Name, &acres, &aph, &projYield,
			&commodity, &f.CropYear, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Acres, _ = decimal.NewFromString(acres)
		f.APH, _ = decimal.NewFromString(aph)
		f.ProjectedYield, _ = decimal.NewFromString(projYield)
		f.Commodity = model.Commodity(commodity)
		farms = append(farms, f)
	}
	return farms, rows.Err()
}

func (s *PostgresStore) UpsertCosts(ctx context.Context, farmID string, c model.CostBreakdown) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cost_breakdowns
		    (farm_id, fertilizer, chemical, seed, land_rent, equipment_loan, land_loan, operating_interest, other)
		 VALUES ($1, $2::NUMERIC, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC)
		 ON CONFLICT (farm_id) DO UPDATE SET
		    fertilizer = EXCLUDED.fertilizer,
		    chemical = EXCLUDED.chemical,
		    seed = EXCLUDED.seed,
		    land_rent = EXCLUDED.land_rent,
		    equipment_loan = EXCLUDED.equipment_loan,
		    land_loan = EXCLUDED.land_loan,
		    operating_interest = EXCLUDED.operating_interest,
		    other = EXCLUDED.other`,
		farmID,
		c.Fertilizer.String(), c.Chemical.String(), c.Seed.String(), c.LandRent.String(),
		c.EquipmentLoan.String(), c.LandLoan.String(), c.OperatingInterest.String(), c.Other.String(),
	)
	return err
}

func (s *PostgresStore) GetCosts(ctx context.Context, farmID string) (*model.CostBreakdown, error) {
	var c model.CostBreakdown
	var fert, chem, seed, rent, equip, land, oper, other string

	err := s.pool.QueryRow(ctx,
		`SELECT farm_id, fertilizer::TEXT, chemical::TEXT, seed::TEXT, land_rent::TEXT,
		        equipment_loan::TEXT, land_loan::TEXT, operating_interest::TEXT, other::TEXT
		 FROM cost_breakdowns WHERE farm_id = $1`, farmID).
		Scan(&c.FarmID, &fert, &chem, &seed, &rent, &equip, &land, &oper, &other)
	if err != nil {
		return nil, notFound(err, "costs for farm", farmID)
	}

	c.Fertilizer, _ = decimal.NewFromString(fert)
	c.Chemical, _ = decimal.NewFromString(chem)
	c.Seed, _ = decimal.NewFromString(seed)
	c.LandRent, _ = decimal.NewFromString(rent)
	c.EquipmentLoan, _ = decimal.NewFromString(equip)
	c.LandLoan, _ = decimal.NewFromString(land)
	c.OperatingInterest, _ = decimal.NewFromString(oper)
	c.Other, _ = decimal.NewFromString(other)

	return &c, nil
}

func (s *PostgresStore) UpsertMarketedPosition(ctx context.Context, farmID string, m model.MarketedPosition) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO marketed_positions (farm_id, bushels_per_acre, weighted_avg_price)
		 VALUES ($1, $2::NUMERIC, $3::NUMERIC)
		 ON CONFLICT (farm_id) DO UPDATE SET
		    bushels_per_acre = EXCLUDED.bushels_per_acre,
		    weighted_avg_price = EXCLUDED.weighted_avg_price`,
		farmID, m.BushelsPerAcre.String(), m.WeightedAvgPrice.String(),
	)
	return err
}

func (s *PostgresStore) GetMarketedPosition(ctx context.Context, farmID string) (*model.MarketedPosition, error) {
	var m model.MarketedPosition
	var bushels, price string

	err := s.pool.QueryRow(ctx,
		`SELECT farm_id, bushels_per_acre::TEXT, weighted_avg_price::TEXT
		 FROM marketed_positions WHERE farm_id = $1`, farmID).
		Scan(&m.FarmID, &bushels, &price)
	if err != nil {
		return nil, notFound(err, "marketed position for farm", farmID)
	}

	m.BushelsPerAcre, _ = decimal.NewFromString(bushels)
	m.WeightedAvgPrice, _ = decimal.NewFromString(price)

	return &m, nil
}

func (s *PostgresStore) UpsertPolicy(ctx context.Context, p *model.InsurancePolicy) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO insurance_policies
		    (id, farm_id, plan_type, coverage_level, projected_price, volatility_factor,
		     premium_per_acre, has_sco, has_eco, eco_level, sco_premium_per_acre, eco_premium_per_acre, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8, $9, $10, $11::NUMERIC, $12::NUMERIC, $13)
		 ON CONFLICT (farm_id) DO UPDATE SET
		    plan_type = EXCLUDED.plan_type,
		    coverage_level = EXCLUDED.coverage_level,
		    projected_price = EXCLUDED.projected_price,
		    volatility_factor = EXCLUDED.volatility_factor,
		    premium_per_acre = EXCLUDED.premium_per_acre,
		    has_sco = EXCLUDED.has_sco,
		    has_eco = EXCLUDED.has_eco,
		    eco_level = EXCLUDED.eco_level,
		    sco_premium_per_acre = EXCLUDED.sco_premium_per_acre,
		    eco_premium_per_acre = EXCLUDED.eco_premium_per_acre`,
		p.ID, p.FarmID, string(p.PlanType), p.CoverageLevel,
		p.ProjectedPrice.String(), p.VolatilityFactor.String(), p.PremiumPerAcre.String(),
		p.HasSco, p.HasEco, p.EcoLevel,
		p.ScoPremiumPerAcre.String(), p.EcoPremiumPerAcre.String(),
		p.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetPolicy(ctx context.Context, farmID string) (*model.InsurancePolicy, error) {
	var p model.InsurancePolicy
	var planType, projPrice, volatility, premium, scoPremium, ecoPremium string

	err := s.pool.QueryRow(ctx,
		`SELECT id, farm_id, plan_type, coverage_level, projected_price::TEXT, volatility_factor::TEXT,
		        premium_per_acre::TEXT, has_sco, has_eco, eco_level,
		        sco_premium_per_acre::TEXT, eco_premium_per_acre::TEXT, created_at
		 FROM insurance_policies WHERE farm_id = $1`, farmID).
		Scan(&p.ID, &p.FarmID, &planType, &p.CoverageLevel, &projPrice, &volatility,
			&premium, &p.HasSco, &p.HasEco, &p.EcoLevel,
			&scoPremium, &ecoPremium, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "policy for farm", farmID)
	}

	p.PlanType = model.PlanType(planType)
	p.ProjectedPrice, _ = decimal.NewFromString(projPrice)
	p.VolatilityFactor, _ = decimal.NewFromString(volatility)
	p.PremiumPerAcre, _ = decimal.NewFromString(premium)
	p.ScoPremiumPerAcre, _ = decimal.NewFromString(scoPremium)
	p.EcoPremiumPerAcre, _ = decimal.NewFromString(ecoPremium)

	return &p, nil
}

func (s *PostgresStore) DeletePolicy(ctx context.Context, farmID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM insurance_policies WHERE farm_id = $1`, farmID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("policy for farm %s: %w", farmID, ErrNotFound)
	}
	return nil
}
