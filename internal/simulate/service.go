// Package simulate provides the HTTP handlers for managing farm inputs
// (snapshots, costs, marketed positions, insurance policies) and running
// profit matrix computations over them.
//
// All monetary values use shopspring/decimal — never float64 for money.
package simulate

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromargin/profit-engine/internal/metrics"
	"github.com/agromargin/profit-engine/internal/model"
	"github.com/agromargin/profit-engine/internal/profit"
	"github.com/agromargin/profit-engine/internal/store"
)

// Service handles farm input management and matrix computation. The engine
// itself is pure; the service owns all I/O around it.
type Service struct {
	store store.Store
	wsHub *WSHub // optional WebSocket hub for change broadcasts
}

// NewService creates a new simulation service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, hub *WSHub) *Service {
	return &Service{store: st, wsHub: hub}
}

// --- Request/Response types ---

// CreateFarmRequest is the JSON body for farm creation.
type CreateFarmRequest struct {
	Name           string          `json:"name"`
	Acres          decimal.Decimal `json:"acres"`
	APH            decimal.Decimal `json:"aph"`
	ProjectedYield decimal.Decimal `json:"projected_yield"`
	Commodity      model.Commodity `json:"commodity"`
	CropYear       int             `json:"crop_year"`
}

// PutPolicyRequest is the JSON body for policy create/update.
type PutPolicyRequest struct {
	PlanType          model.PlanType  `json:"plan_type"`
	CoverageLevel     int             `json:"coverage_level"`
	ProjectedPrice    decimal.Decimal `json:"projected_price"`
	VolatilityFactor  decimal.Decimal `json:"volatility_factor"`
	PremiumPerAcre    decimal.Decimal `json:"premium_per_acre"`
	HasSco            bool            `json:"has_sco"`
	HasEco            bool            `json:"has_eco"`
	EcoLevel          int             `json:"eco_level"`
	ScoPremiumPerAcre decimal.Decimal `json:"sco_premium_per_acre"`
	EcoPremiumPerAcre decimal.Decimal `json:"eco_premium_per_acre"`
}

// MatrixRequest is the optional JSON body for stored-input matrix runs.
type MatrixRequest struct {
	CountySimulation *model.CountyYieldSimulation `json:"county_simulation,omitempty"`
}

// SimulateRequest is the JSON body for the stateless simulation endpoint:
// the full engine input supplied inline, nothing read from the store.
type SimulateRequest struct {
	Farm             model.Farm                   `json:"farm"`
	Costs            model.CostBreakdown          `json:"costs"`
	Marketed         model.MarketedPosition       `json:"marketed_position"`
	Policy           *model.InsurancePolicy       `json:"policy,omitempty"`
	CountySimulation *model.CountyYieldSimulation `json:"county_simulation,omitempty"`
}

// --- HTTP Handlers ---

// CreateFarm handles POST /api/v1/farms
func (s *Service) CreateFarm(w http.ResponseWriter, r *http.Request) {
	var req CreateFarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	farm := model.Farm{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Acres:          req.Acres,
		APH:            req.APH,
		ProjectedYield: req.ProjectedYield,
		Commodity:      req.Commodity,
		CropYear:       req.CropYear,
		CreatedAt:      time.Now().UTC(),
	}

	if err := model.ValidateFarm(farm); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.store.CreateFarm(r.Context(), &farm); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("farm created",
		"id", farm.ID,
		"commodity", farm.Commodity,
		"acres", farm.Acres.String(),
		"aph", farm.APH.String(),
	)

	writeJSON(w, http.StatusCreated, farm)
}

// ListFarms handles GET /api/v1/farms
func (s *Service) ListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := s.store.ListFarms(r.Context())
	if err != nil {
		writeError(w, "failed to list farms", http.StatusInternalServerError)
		return
	}
	if farms == nil {
		farms = []model.Farm{}
	}
	writeJSON(w, http.StatusOK, farms)
}

// GetFarm handles GET /api/v1/farms/{farmID}
func (s *Service) GetFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := s.store.GetFarm(r.Context(), chi.URLParam(r, "farmID"))
	if err != nil {
		writeError(w, "farm not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

// PutCosts handles PUT /api/v1/farms/{farmID}/costs
func (s *Service) PutCosts(w http.ResponseWriter, r *http.Request) {
	farmID := chi.URLParam(r, "farmID")

	var costs model.CostBreakdown
	if err := json.NewDecoder(r.Body).Decode(&costs); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := model.ValidateCosts(costs); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.store.UpsertCosts(r.Context(), farmID, costs); err != nil {
		writeStoreError(w, err)
		return
	}

	s.broadcastInputsChanged(farmID, "costs")
	costs.FarmID = farmID
	writeJSON(w, http.StatusOK, costs)
}

// GetCosts handles GET /api/v1/farms/{farmID}/costs
func (s *Service) GetCosts(w http.ResponseWriter, r *http.Request) {
	costs, err := s.store.GetCosts(r.Context(), chi.URLParam(r, "farmID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

// PutMarketedPosition handles PUT /api/v1/farms/{farmID}/marketed
func (s *Service) PutMarketedPosition(w http.ResponseWriter, r *http.Request) {
	farmID := chi.URLParam(r, "farmID")

	var pos model.MarketedPosition
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Marketed bushels are bounded by the farm's projected yield.
	farm, err := s.store.GetFarm(r.Context(), farmID)
	if err != nil {
		writeError(w, "farm not found", http.StatusNotFound)
		return
	}

	if err := model.ValidateMarketedPosition(pos, farm.ProjectedYield); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.store.UpsertMarketedPosition(r.Context(), farmID, pos); err != nil {
		writeStoreError(w, err)
		return
	}

	s.broadcastInputsChanged(farmID, "marketed_position")
	pos.FarmID = farmID
	writeJSON(w, http.StatusOK, pos)
}

// GetMarketedPosition handles GET /api/v1/farms/{farmID}/marketed
func (s *Service) GetMarketedPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.store.GetMarketedPosition(r.Context(), chi.URLParam(r, "farmID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// PutPolicy handles PUT /api/v1/farms/{farmID}/policy
func (s *Service) PutPolicy(w http.ResponseWriter, r *http.Request) {
	farmID := chi.URLParam(r, "farmID")

	var req PutPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	policy := model.InsurancePolicy{
		ID:                uuid.New().String(),
		FarmID:            farmID,
		PlanType:          req.PlanType,
		CoverageLevel:     req.CoverageLevel,
		ProjectedPrice:    req.ProjectedPrice,
		VolatilityFactor:  req.VolatilityFactor,
		PremiumPerAcre:    req.PremiumPerAcre,
		HasSco:            req.HasSco,
		HasEco:            req.HasEco,
		EcoLevel:          req.EcoLevel,
		ScoPremiumPerAcre: req.ScoPremiumPerAcre,
		EcoPremiumPerAcre: req.EcoPremiumPerAcre,
		CreatedAt:         time.Now().UTC(),
	}

	if err := model.ValidatePolicy(&policy); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.store.UpsertPolicy(r.Context(), &policy); err != nil {
		writeStoreError(w, err)
		return
	}

	metrics.PoliciesUpserted.Inc()
	slog.Info("policy upserted",
		"farm", farmID,
		"plan", policy.PlanType,
		"coverage", policy.CoverageLevel,
		"projected_price", policy.ProjectedPrice.String(),
	)

	s.broadcastInputsChanged(farmID, "policy")
	writeJSON(w, http.StatusOK, policy)
}

// GetPolicy handles GET /api/v1/farms/{farmID}/policy
func (s *Service) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.store.GetPolicy(r.Context(), chi.URLParam(r, "farmID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// DeletePolicy handles DELETE /api/v1/farms/{farmID}/policy
// The engine treats the resulting absence as "no insurance".
func (s *Service) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	farmID := chi.URLParam(r, "farmID")

	if err := s.store.DeletePolicy(r.Context(), farmID); err != nil {
		writeStoreError(w, err)
		return
	}

	slog.Info("policy deleted", "farm", farmID)
	s.broadcastInputsChanged(farmID, "policy")
	w.WriteHeader(http.StatusNoContent)
}

// ComputeMatrix handles POST /api/v1/farms/{farmID}/matrix
// Resolves stored inputs for the farm, optionally overlays a county-yield
// simulation from the request body, and runs the engine.
func (s *Service) ComputeMatrix(w http.ResponseWriter, r *http.Request) {
	farmID := chi.URLParam(r, "farmID")

	var req MatrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	farm, err := s.store.GetFarm(ctx, farmID)
	if err != nil {
		writeError(w, "farm not found", http.StatusNotFound)
		return
	}

	in := profit.Input{Farm: *farm, CountySimulation: req.CountySimulation}

	// Missing cost/marketed records mean zero inputs; a missing policy
	// means no insurance. Only unexpected store failures abort.
	costs, err := s.store.GetCosts(ctx, farmID)
	switch {
	case err == nil:
		in.Costs = *costs
	case !errors.Is(err, store.ErrNotFound):
		writeError(w, "failed to load costs", http.StatusInternalServerError)
		return
	}

	pos, err := s.store.GetMarketedPosition(ctx, farmID)
	switch {
	case err == nil:
		in.Marketed = *pos
	case !errors.Is(err, store.ErrNotFound):
		writeError(w, "failed to load marketed position", http.StatusInternalServerError)
		return
	}

	policy, err := s.store.GetPolicy(ctx, farmID)
	switch {
	case err == nil:
		in.Policy = policy
	case !errors.Is(err, store.ErrNotFound):
		writeError(w, "failed to load policy", http.StatusInternalServerError)
		return
	}

	s.runAndRespond(w, in)
}

// Simulate handles POST /api/v1/simulate
// Stateless: the full engine input arrives inline and nothing is persisted,
// including the computed result.
func (s *Service) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.runAndRespond(w, profit.Input{
		Farm:             req.Farm,
		Costs:            req.Costs,
		Marketed:         req.Marketed,
		Policy:           req.Policy,
		CountySimulation: req.CountySimulation,
	})
}

// runAndRespond executes the engine and writes the result or the typed
// validation failure.
func (s *Service) runAndRespond(w http.ResponseWriter, in profit.Input) {
	plan := "NONE"
	if in.Policy != nil {
		plan = string(in.Policy.PlanType)
	}

	start := time.Now()
	resp, err := profit.Run(in)
	if err != nil {
		var fe *model.FieldError
		if errors.As(err, &fe) {
			metrics.ValidationRejections.WithLabelValues(fe.Field).Inc()
			writeValidationError(w, err)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metrics.SimulationsTotal.WithLabelValues(plan).Inc()
	metrics.SimulationLatency.WithLabelValues(plan).Observe(time.Since(start).Seconds())
	metrics.GridCellsComputed.Add(float64(len(resp.Cells)))

	slog.Info("matrix computed",
		"farm", in.Farm.ID,
		"plan", plan,
		"cells", len(resp.Cells),
		"break_even", resp.Summary.BreakEvenPrice.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:           "matrix_computed",
			FarmID:         in.Farm.ID,
			Plan:           plan,
			BreakEvenPrice: resp.Summary.BreakEvenPrice.String(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) broadcastInputsChanged(farmID, what string) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.Broadcast(WSMessage{
		Type:   "inputs_changed",
		FarmID: farmID,
		Detail: what,
	})
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationError writes a 400 naming the offending field.
func writeValidationError(w http.ResponseWriter, err error) {
	var fe *model.FieldError
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fe.Message,
			"field": fe.Field,
		})
		return
	}
	writeError(w, err.Error(), http.StatusBadRequest)
}

// writeStoreError maps store failures to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeError(w, err.Error(), http.StatusInternalServerError)
}
