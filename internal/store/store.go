// Package store defines the persistence interface for the profit engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
//
// The engine itself only reads these records; writes come from the HTTP
// layer's farm/cost/marketed/policy endpoints.
package store

import (
	"context"
	"errors"

	"github.com/agromargin/profit-engine/internal/model"
)

// ErrNotFound is returned when a requested record does not exist. Missing
// cost, marketed, or policy records are normal for a freshly created farm —
// callers translate this into the engine's "absent input" semantics.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Farm snapshots ---

	// CreateFarm persists a new farm record.
	CreateFarm(ctx context.Context, farm *model.Farm) error

	// GetFarm retrieves a farm by its ID.
	GetFarm(ctx context.Context, id string) (*model.Farm, error)

	// ListFarms returns all farms.
	ListFarms(ctx context.Context) ([]model.Farm, error)

	// --- Per-acre cost breakdowns (one per farm) ---

	// UpsertCosts creates or replaces a farm's cost breakdown.
	UpsertCosts(ctx context.Context, farmID string, costs model.CostBreakdown) error

	// GetCosts retrieves a farm's cost breakdown.
	GetCosts(ctx context.Context, farmID string) (*model.CostBreakdown, error)

	// --- Marketed positions (one per farm) ---

	// UpsertMarketedPosition creates or replaces a farm's marketed summary.
	UpsertMarketedPosition(ctx context.Context, farmID string, pos model.MarketedPosition) error

	// GetMarketedPosition retrieves a farm's marketed summary.
	GetMarketedPosition(ctx context.Context, farmID string) (*model.MarketedPosition, error)

	// --- Insurance policies (zero or one per farm per year) ---

	// UpsertPolicy creates or replaces a farm's insurance policy.
	UpsertPolicy(ctx context.Context, policy *model.InsurancePolicy) error

	// GetPolicy retrieves a farm's insurance policy.
	GetPolicy(ctx context.Context, farmID string) (*model.InsurancePolicy, error)

	// DeletePolicy removes a farm's insurance policy. Deletion simply
	// removes it from future engine inputs.
	DeletePolicy(ctx context.Context, farmID string) error
}
