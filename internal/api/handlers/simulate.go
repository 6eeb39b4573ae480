// Package handlers implements the HTTP API: simulations run
// in-process and synchronously, the handlers only translate between
// JSON and the runner.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"p2p-market-sim/internal/api/models"
	"p2p-market-sim/internal/config"
	"p2p-market-sim/internal/dataset"
	"p2p-market-sim/internal/sim"
)

// SimulateHandler handles simulation requests
type SimulateHandler struct {
	cache *dataset.ResponseCache
}

// NewSimulateHandler creates a new simulate handler. cache may be nil,
// which disables response memoization.
func NewSimulateHandler(cache *dataset.ResponseCache) *SimulateHandler {
	return &SimulateHandler{cache: cache}
}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	if req.Options.IncludeDecisions {
		req.Config.Spec.InstrumentDecisions = true
	}

	key := requestKey(req)
	if cached, ok := h.cache.Get(key); ok {
		if resp, ok := cached.(*models.SimulateResponse); ok {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	spec, err := buildSpec(req.Config)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_BATTERY",
				Message: err.Error(),
			},
		})
		return
	}

	res, err := sim.RunCell(spec)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_SPEC",
				Message: err.Error(),
			},
		})
		return
	}

	resp := buildResponse(res, req.Options)
	h.cache.Set(key, resp)
	c.JSON(http.StatusOK, resp)
}

// CompareSimulations handles POST /api/v1/simulate/compare
func (h *SimulateHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, variation := range req.Variations {
		merged := mergeConfig(req.BaseConfig, variation.Config)

		spec, err := buildSpec(merged)
		if err != nil {
			log.Warn().Err(err).Str("variation", variation.Name).Msg("skipping variation")
			continue
		}
		res, err := sim.RunCell(spec)
		if err != nil {
			log.Warn().Err(err).Str("variation", variation.Name).Msg("skipping variation")
			continue
		}

		comparison = append(comparison, models.ComparisonResult{
			Name:    variation.Name,
			Summary: buildSummary(res),
		})
	}

	c.JSON(http.StatusOK, models.CompareResponse{Comparison: comparison})
}

// Helper methods

// requestKey canonicalizes the request so formatting differences hash
// alike.
func requestKey(req models.SimulateRequest) string {
	raw, _ := json.Marshal(req)
	return dataset.CacheKey(raw)
}

// buildSpec resolves the battery preset and attaches it to the spec.
func buildSpec(cfg models.SimulateConfig) (sim.CellSpec, error) {
	spec := cfg.Spec

	batt := config.BatteryConfig{
		Name:                cfg.Battery.Name,
		CapacityKWh:         cfg.Battery.CapacityKWh,
		PowerKW:             cfg.Battery.PowerKW,
		RoundTripEfficiency: cfg.Battery.RoundTripEfficiency,
		MinSOC:              cfg.Battery.MinSOC,
		InitialSOC:          cfg.Battery.InitialSOC,
	}
	if cfg.BatteryFile != "" {
		loaded, err := config.LoadBatteryPreset(cfg.BatteryFile)
		if err != nil {
			return sim.CellSpec{}, fmt.Errorf("failed to load battery preset %q: %w", cfg.BatteryFile, err)
		}
		// Merge: battery file is base, request config is override.
		batt = config.MergeBattery(loaded, batt)
	}
	if batt.Enabled() {
		params := batt.ToModelParams()
		spec.Battery = &params
		spec.BatteryInitialSOC = batt.InitialSOC
	}
	return spec, nil
}

// mergeConfig overlays a variation's non-zero fields onto the base.
func mergeConfig(base, override models.SimulateConfig) models.SimulateConfig {
	merged := base
	merged.Spec = mergeSpec(base.Spec, override.Spec)
	if override.BatteryFile != "" {
		merged.BatteryFile = override.BatteryFile
	}
	if override.Battery.Name != "" {
		merged.Battery.Name = override.Battery.Name
	}
	if override.Battery.CapacityKWh != 0 {
		merged.Battery.CapacityKWh = override.Battery.CapacityKWh
	}
	if override.Battery.PowerKW != 0 {
		merged.Battery.PowerKW = override.Battery.PowerKW
	}
	if override.Battery.RoundTripEfficiency != 0 {
		merged.Battery.RoundTripEfficiency = override.Battery.RoundTripEfficiency
	}
	if override.Battery.MinSOC != 0 {
		merged.Battery.MinSOC = override.Battery.MinSOC
	}
	if override.Battery.InitialSOC != 0 {
		merged.Battery.InitialSOC = override.Battery.InitialSOC
	}
	return merged
}

func mergeSpec(base, o sim.CellSpec) sim.CellSpec {
	m := base
	if o.N != 0 {
		m.N = o.N
	}
	if o.Agent != "" {
		m.Agent = o.Agent
	}
	if o.Mode != "" {
		m.Mode = o.Mode
	}
	if o.Tau != 0 {
		m.Tau = o.Tau
	}
	if o.K != 0 {
		m.K = o.K
	}
	if len(o.HeteroTau) > 0 {
		m.HeteroTau = o.HeteroTau
	}
	if len(o.HeteroK) > 0 {
		m.HeteroK = o.HeteroK
	}
	if o.OptimizerMode != "" {
		m.OptimizerMode = o.OptimizerMode
	}
	if o.Epsilon != 0 {
		m.Epsilon = o.Epsilon
	}
	if len(o.ArmsCents) > 0 {
		m.ArmsCents = o.ArmsCents
	}
	if o.Intervals != 0 {
		m.Intervals = o.Intervals
	}
	if o.Seed != 0 {
		m.Seed = o.Seed
	}
	if o.Mechanism != "" {
		m.Mechanism = o.Mechanism
	}
	if o.FeederCapKW != 0 {
		m.FeederCapKW = o.FeederCapKW
	}
	if o.InfoSet != "" {
		m.InfoSet = o.InfoSet
	}
	if o.StepMinutes != 0 {
		m.StepMinutes = o.StepMinutes
	}
	if o.Tick != 0 {
		m.Tick = o.Tick
	}
	if o.StartHour != 0 {
		m.StartHour = o.StartHour
	}
	if o.PriceSigma != 0 {
		m.PriceSigma = o.PriceSigma
	}
	if o.BuyMarkup != 0 {
		m.BuyMarkup = o.BuyMarkup
	}
	if o.SellDiscount != 0 {
		m.SellDiscount = o.SellDiscount
	}
	if o.RetailPrice != 0 {
		m.RetailPrice = o.RetailPrice
	}
	if o.InstrumentDecisions {
		m.InstrumentDecisions = true
	}
	return m
}

func buildResponse(res *sim.CellResult, opts models.SimulateOptions) *models.SimulateResponse {
	resp := &models.SimulateResponse{
		Status:  "completed",
		RunID:   res.RunID,
		Tag:     res.Spec.Tag(),
		Summary: buildSummary(res),
	}
	if opts.IncludeIntervals {
		resp.Intervals = convertIntervals(res.Intervals)
	}
	if opts.IncludeDecisions {
		resp.Decisions = convertDecisions(res.Decisions)
	}
	return resp
}

func buildSummary(res *sim.CellResult) models.SimulationSummary {
	s := models.SimulationSummary{
		Intervals: len(res.Intervals),
		TradedKWh: res.TradedKWh,
		PostedKWh: res.PostedKWh,
		MeanW:     res.MeanW(),
		MeanWHat:  res.MeanWHat(),
	}
	for _, row := range res.Intervals {
		s.Trades += row.Trades
		s.UnservedKWh += row.UnservedKWh
		s.CurtailedKWh += row.CurtailedKWh
	}
	return s
}

func convertIntervals(rows []sim.IntervalRow) []models.IntervalMetrics {
	out := make([]models.IntervalMetrics, len(rows))
	for i, r := range rows {
		out[i] = models.IntervalMetrics{
			T:             r.T,
			Trades:        r.Trades,
			TradedKWh:     r.TradedKWh,
			PostedBuyKWh:  r.PostedBuyKWh,
			PostedSellKWh: r.PostedSellKWh,
			UnservedKWh:   r.UnservedKWh,
			CurtailedKWh:  r.CurtailedKWh,
			PriceMean:     r.PriceMean,
			PriceVar:      r.PriceVar,
			W:             r.W,
			WBound:        r.WBound,
			WHat:          r.WHat,
		}
	}
	return out
}

func convertDecisions(rows []sim.DecisionRow) []models.DecisionRecord {
	out := make([]models.DecisionRecord, len(rows))
	for i, r := range rows {
		out[i] = models.DecisionRecord{
			T:            r.T,
			AgentID:      r.AgentID,
			AgentType:    r.AgentType,
			ActionType:   r.ActionType,
			Price:        r.Price,
			Qty:          r.Qty,
			OffersSeen:   r.OffersSeen,
			SolverCalls:  r.SolverCalls,
			LearnerSteps: r.LearnerSteps,
			WallMs:       r.WallMs,
			MemMB:        r.MemMB,
		}
	}
	return out
}
