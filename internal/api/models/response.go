package models

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	Status    string            `json:"status"`
	RunID     string            `json:"run_id"`
	Tag       string            `json:"tag"`
	Summary   SimulationSummary `json:"summary"`
	Intervals []IntervalMetrics `json:"intervals,omitempty"`
	Decisions []DecisionRecord  `json:"decisions,omitempty"`
}

// SimulationSummary contains aggregated run results
type SimulationSummary struct {
	Intervals    int     `json:"intervals"`
	Trades       int     `json:"trades"`
	TradedKWh    float64 `json:"traded_kwh"`
	PostedKWh    float64 `json:"posted_kwh"`
	UnservedKWh  float64 `json:"unserved_kwh"`
	CurtailedKWh float64 `json:"curtailed_kwh"`
	MeanW        float64 `json:"mean_w"`
	MeanWHat     float64 `json:"mean_w_hat"`
}

// IntervalMetrics represents one interval of a run
type IntervalMetrics struct {
	T             int     `json:"t"`
	Trades        int     `json:"trades"`
	TradedKWh     float64 `json:"traded_kwh"`
	PostedBuyKWh  float64 `json:"posted_buy_kwh"`
	PostedSellKWh float64 `json:"posted_sell_kwh"`
	UnservedKWh   float64 `json:"unserved_kwh"`
	CurtailedKWh  float64 `json:"curtailment_kwh"`
	PriceMean     float64 `json:"price_mean"`
	PriceVar      float64 `json:"price_var"`
	W             float64 `json:"W"`
	WBound        float64 `json:"W_bound"`
	WHat          float64 `json:"W_hat"`
}

// DecisionRecord represents one instrumented agent decision
type DecisionRecord struct {
	T            int     `json:"t"`
	AgentID      string  `json:"agent_id"`
	AgentType    string  `json:"agent_type"`
	ActionType   string  `json:"action_type"`
	Price        float64 `json:"price_cperkwh,omitempty"`
	Qty          float64 `json:"qty_kwh,omitempty"`
	OffersSeen   int     `json:"offers_seen"`
	SolverCalls  int     `json:"solver_calls"`
	LearnerSteps int     `json:"learner_steps"`
	WallMs       float64 `json:"wall_ms"`
	MemMB        float64 `json:"mem_mb"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string            `json:"name"`
	Summary SimulationSummary `json:"summary"`
}

// AgentInfo represents information about an agent type
type AgentInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes an agent parameter
type ParameterInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "float", "int", "string", "list"
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// BatteryInfo represents information about a battery preset
type BatteryInfo struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	File  string       `json:"file"`
	Specs BatterySpecs `json:"specs"`
}

// BatterySpecs contains battery specifications
type BatterySpecs struct {
	CapacityKWh float64 `json:"capacity_kwh"`
	PowerKW     float64 `json:"power_kw"`
}

// DatasetInfo represents information about a stored profile dataset
type DatasetInfo struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	GeneratedAt string `json:"generated_at"`
	Seed        int64  `json:"seed"`
	StepMinutes int    `json:"step_minutes"`
	Households  int    `json:"households"`
}

// ProfilePreview represents one synthesized household
type ProfilePreview struct {
	Seed          int64     `json:"seed"`
	Index         int       `json:"index"`
	HouseholdSeed int64     `json:"household_seed"`
	StepMinutes   int       `json:"step_minutes"`
	PVNameplateKW float64   `json:"pv_nameplate_kw,omitempty"`
	HasEV         bool      `json:"has_ev"`
	LoadKWh       []float64 `json:"load_kwh"`
	PVKWh         []float64 `json:"pv_kwh,omitempty"`
	EVChargeKW    []float64 `json:"ev_charge_kw,omitempty"`
	TotalLoadKWh  float64   `json:"total_load_kwh"`
	TotalPVKWh    float64   `json:"total_pv_kwh"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
