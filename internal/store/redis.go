package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agromargin/profit-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary. Engine inputs are read
// far more often than they change — every matrix computation re-reads them.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateFarm(ctx context.Context, f *model.Farm) error {
	if err := s.primary.CreateFarm(ctx, f); err != nil {
		return err
	}
	s.cacheSet(ctx, farmKey(f.ID), f)
	return nil
}

func (s *CachedStore) UpsertCosts(ctx context.Context, farmID string, c model.CostBreakdown) error {
	if err := s.primary.UpsertCosts(ctx, farmID, c); err != nil {
		return err
	}
	s.rdb.Del(ctx, costsKey(farmID))
	return nil
}

func (s *CachedStore) UpsertMarketedPosition(ctx context.Context, farmID string, m model.MarketedPosition) error {
	if err := s.primary.UpsertMarketedPosition(ctx, farmID, m); err != nil {
		return err
	}
	s.rdb.Del(ctx, marketedKey(farmID))
	return nil
}

func (s *CachedStore) UpsertPolicy(ctx context.Context, p *model.InsurancePolicy) error {
	if err := s.primary.UpsertPolicy(ctx, p); err != nil {
		return err
	}
	s.rdb.Del(ctx, policyKey(p.FarmID))
	return nil
}

func (s *CachedStore) DeletePolicy(ctx context.Context, farmID string) error {
	if err := s.primary.DeletePolicy(ctx, farmID); err != nil {
		return err
	}
	s.rdb.Del(ctx, policyKey(farmID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetFarm(ctx context.Context, id string) (*model.Farm, error) {
	if data, err := s.rdb.Get(ctx, farmKey(id)).Bytes(); err == nil {
		var f model.Farm
		if json.Unmarshal(data, &f) == nil {
			return &f, nil
		}
	}

	f, err := s.primary.GetFarm(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, farmKey(id), f)
	return f, nil
}

func (s *CachedStore) GetCosts(ctx context.Context, farmID string) (*model.CostBreakdown, error) {
	if data, err := s.rdb.Get(ctx, costsKey(farmID)).Bytes(); err == nil {
		var c model.CostBreakdown
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	c, err := s.primary.GetCosts(ctx, farmID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, costsKey(farmID), c)
	return c, nil
}

func (s *CachedStore) GetMarketedPosition(ctx context.Context, farmID string) (*model.MarketedPosition, error) {
	if data, err := s.rdb.Get(ctx, marketedKey(farmID)).Bytes(); err == nil {
		var m model.MarketedPosition
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMarketedPosition(ctx, farmID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, marketedKey(farmID), m)
	return m, nil
}

func (s *CachedStore) GetPolicy(ctx context.Context, farmID string) (*model.InsurancePolicy, error) {
	if data, err := s.rdb.Get(ctx, policyKey(farmID)).Bytes(); err == nil {
		var p model.InsurancePolicy
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := s.primary.GetPolicy(ctx, farmID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, policyKey(farmID), p)
	return p, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListFarms(ctx context.Context) ([]model.Farm, error) {
	return s.primary.ListFarms(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheSet(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func farmKey(id string) string       { return fmt.Sprintf("farm:%s", id) }
func costsKey(farmID string) string  { return fmt.Sprintf("costs:%s", farmID) }
func marketedKey(fid string) string  { return fmt.Sprintf("marketed:%s", fid) }
func policyKey(farmID string) string { return fmt.Sprintf("policy:%s", farmID) }
