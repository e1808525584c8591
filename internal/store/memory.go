package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/agromargin/profit-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	farms    map[string]*model.Farm
	costs    map[string]*model.CostBreakdown
	marketed map[string]*model.MarketedPosition
	policies map[string]*model.InsurancePolicy
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		farms:    make(map[string]*model.Farm),
		costs:    make(map[string]*model.CostBreakdown),
		marketed: make(map[string]*model.MarketedPosition),
		policies: make(map[string]*model.InsurancePolicy),
	}
}

func (s *MemoryStore) CreateFarm(_ context.Context, farm *model.Farm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.farms[farm.ID]; exists {
		return fmt.Errorf("farm %s already exists", farm.ID)
	}

	// Store a copy to avoid external mutation.
	copy := *farm
	s.farms[farm.ID] = &copy
	return nil
}

func (s *MemoryStore) GetFarm(_ context.Context, id string) (*model.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.farms[id]
	if !ok {
		return nil, fmt.Errorf("farm %s: %w", id, ErrNotFound)
	}
	copy := *f
	return &copy, nil
}

func (s *MemoryStore) ListFarms(_ context.Context) ([]model.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	farms := make([]model.Farm, 0, len(s.farms))
	for _, f := range s.farms {
		farms = append(farms, *f)
	}
	return farms, nil
}

func (s *MemoryStore) UpsertCosts(_ context.Context, farmID string, costs model.CostBreakdown) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.farms[farmID]; !ok {
		return fmt.Errorf("farm %s: %w", farmID, ErrNotFound)
	}
	costs.FarmID = farmID
	s.costs[farmID] = &costs
	return nil
}

func (s *MemoryStore) GetCosts(_ context.Context, farmID string) (*model.CostBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.costs[farmID]
	if !ok {
		return nil, fmt.Errorf("costs for farm %s: %w", farmID, ErrNotFound)
	}
	copy := *c
	return &copy, nil
}

func (s *MemoryStore) UpsertMarketedPosition(_ context.Context, farmID string, pos model.MarketedPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.farms[farmID]; !ok {
		return fmt.Errorf("farm %s: %w", farmID, ErrNotFound)
	}
	pos.FarmID = farmID
	s.marketed[farmID] = &pos
	return nil
}

func (s *MemoryStore) GetMarketedPosition(_ context.Context, farmID string) (*model.MarketedPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.marketed[farmID]
	if !ok {
		return nil, fmt.Errorf("marketed position for farm %s: %w", farmID, ErrNotFound)
	}
	copy := *m
	return &copy, nil
}

func (s *MemoryStore) UpsertPolicy(_ context.Context, policy *model.InsurancePolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.farms[policy.FarmID]; !ok {
		return fmt.Errorf("farm %s: %w", policy.FarmID, ErrNotFound)
	}
	copy := *policy
	s.policies[policy.FarmID] = &copy
	return nil
}

func (s *MemoryStore) GetPolicy(_ context.Context, farmID string) (*model.InsurancePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[farmID]
	if !ok {
		return nil, fmt.Errorf("policy for farm %s: %w", farmID, ErrNotFound)
	}
	copy := *p
	return &copy, nil
}

func (s *MemoryStore) DeletePolicy(_ context.Context, farmID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[farmID]; !ok {
		return fmt.Errorf("policy for farm %s: %w", farmID, ErrNotFound)
	}
	delete(s.policies, farmID)
	return nil
}
