// Package sim runs experiment cells: one population, mechanism and seed
// combination stepped over a fixed number of intervals, with welfare
// metrics per interval and optional per-decision instrumentation.
package sim

import (
	"fmt"
	"strconv"

	"p2p-market-sim/internal/agent"
	"p2p-market-sim/internal/clearing"
	"p2p-market-sim/internal/model"
)

// Market mechanisms a cell can run.
const (
	MechanismCDA  = "cda"
	MechanismCall = "call"
)

// DefaultBatteryInitialSOC is the state of charge households start
// with when a battery preset leaves it unset. Mid-day starts want a
// half-charged unit, not the empty one a dawn start would imply.
const DefaultBatteryInitialSOC = 0.5

// CellSpec pins down one experiment cell. Zero-valued knobs mean
// "default", so the zero spec plus N and Agent is already runnable.
type CellSpec struct {
	N     int    `json:"N" yaml:"N"`
	Agent string `json:"agent" yaml:"agent"`

	// Satisficer search rule and parameters. HeteroTau/HeteroK, when
	// set, cycle through the population and override Tau/K per agent.
	Mode      string    `json:"mode,omitempty" yaml:"mode"`
	Tau       float64   `json:"tau,omitempty" yaml:"tau"`
	K         int       `json:"K,omitempty" yaml:"K"`
	HeteroTau []float64 `json:"hetero_tau,omitempty" yaml:"hetero_tau"`
	HeteroK   []int     `json:"hetero_K,omitempty" yaml:"hetero_K"`

	// OptimizerMode is "single" or "greedy"; empty means greedy.
	OptimizerMode string `json:"optimizer_mode,omitempty" yaml:"optimizer_mode"`

	// Learner knobs; zero values select the agent package defaults.
	Epsilon   float64   `json:"epsilon,omitempty" yaml:"epsilon"`
	ArmsCents []float64 `json:"arms_cents,omitempty" yaml:"arms_cents"`

	Intervals int   `json:"intervals" yaml:"intervals"`
	Seed      int64 `json:"seed" yaml:"seed"`

	Mechanism   string  `json:"mechanism" yaml:"mechanism"`
	FeederCapKW float64 `json:"feeder_cap_kw,omitempty" yaml:"feeder_cap_kw"`
	InfoSet     string  `json:"info_set" yaml:"info_set"`

	StepMinutes int     `json:"step_minutes,omitempty" yaml:"step_minutes"`
	Tick        float64 `json:"tick,omitempty" yaml:"tick"`

	// StartHour maps interval 0 onto the profile clock, so short runs
	// land in daylight by default instead of the flat midnight hours.
	StartHour float64 `json:"start_hour,omitempty" yaml:"start_hour"`

	// Quote pricing. Zero values fall back to the prosumer defaults:
	// retail 16.3 c/kWh, one cent markup and discount, sigma 0.5.
	PriceSigma   float64 `json:"price_sigma,omitempty" yaml:"price_sigma"`
	BuyMarkup    float64 `json:"buy_markup,omitempty" yaml:"buy_markup"`
	SellDiscount float64 `json:"sell_discount,omitempty" yaml:"sell_discount"`
	RetailPrice  float64 `json:"retail_price,omitempty" yaml:"retail_price"`

	// Battery, when set, attaches one per household. It is filled in
	// from a battery preset, never parsed out of this struct directly.
	Battery           *model.BatteryParams `json:"-" yaml:"-"`
	BatteryInitialSOC float64              `json:"-" yaml:"-"`

	InstrumentDecisions bool `json:"instrument_decisions,omitempty" yaml:"instrument_decisions"`
}

func (s CellSpec) withDefaults() CellSpec {
	if s.Intervals <= 0 {
		s.Intervals = 12
	}
	if s.Mechanism == "" {
		s.Mechanism = MechanismCDA
	}
	if s.InfoSet == "" {
		s.InfoSet = string(clearing.InfoBook)
	}
	if s.StepMinutes <= 0 {
		s.StepMinutes = 5
	}
	if s.Tick == 0 {
		s.Tick = model.DefaultTickCPerKWh
	}
	if s.StartHour <= 0 {
		s.StartHour = 12
	}
	if s.OptimizerMode == "" {
		s.OptimizerMode = "greedy"
	}
	if s.Battery != nil && s.BatteryInitialSOC <= 0 {
		s.BatteryInitialSOC = DefaultBatteryInitialSOC
	}
	return s
}

func (s CellSpec) validate() error {
	if s.Mechanism != MechanismCDA && s.Mechanism != MechanismCall {
		return fmt.Errorf("unknown mechanism %q", s.Mechanism)
	}
	switch clearing.InfoSet(s.InfoSet) {
	case clearing.InfoBook, clearing.InfoTicker:
	default:
		return fmt.Errorf("unknown info set %q", s.InfoSet)
	}
	return nil
}

// Tag names the cell and its output files after its coordinates:
// N{n}_{agent}_{mode|na}_tau{tau|na}_K{k|na}_s{seed}.
func (s CellSpec) Tag() string {
	mode := s.Mode
	if mode == "" {
		mode = "na"
	}
	tau := "na"
	if s.Tau > 0 {
		tau = strconv.FormatFloat(s.Tau, 'f', -1, 64)
	}
	k := "na"
	if s.K > 0 {
		k = strconv.Itoa(s.K)
	}
	return fmt.Sprintf("N%d_%s_%s_tau%s_K%s_s%d", s.N, s.Agent, mode, tau, k, s.Seed)
}

// agentConfig translates the cell spec into a population config.
func (s CellSpec) agentConfig() agent.SetConfig {
	params := agent.DefaultProsumerParams()
	if s.RetailPrice > 0 {
		params.RetailPrice = s.RetailPrice
	}
	if s.BuyMarkup > 0 {
		params.BuyMarkup = s.BuyMarkup
	}
	if s.SellDiscount > 0 {
		params.SellDiscount = s.SellDiscount
	}
	if s.PriceSigma > 0 {
		params.QuoteSigma = s.PriceSigma
	}
	return agent.SetConfig{
		Type:              s.Agent,
		N:                 s.N,
		Mode:              s.Mode,
		Tau:               s.Tau,
		K:                 s.K,
		HeteroTau:         s.HeteroTau,
		HeteroK:           s.HeteroK,
		OptimizerMode:     s.OptimizerMode,
		Epsilon:           s.Epsilon,
		ArmsCents:         s.ArmsCents,
		Seed:              s.Seed,
		Params:            params,
		MakeProfiles:      s.makeProfiles,
		Battery:           s.Battery,
		BatteryInitialSOC: s.BatteryInitialSOC,
	}
}

// IntervalRow is one interval of cell output, the shape of one
// interval_metrics CSV line.
type IntervalRow struct {
	T             int
	Trades        int
	TradedKWh     float64
	PostedBuyKWh  float64
	PostedSellKWh float64
	UnservedKWh   float64
	CurtailedKWh  float64
	PriceMean     float64
	PriceVar      float64
	W             float64
	WBound        float64
	WHat          float64
}

// DecisionRow is one instrumented agent decision. MemMB is sampled once
// per interval and stamped on every decision of that interval.
type DecisionRow struct {
	RunID        string
	T            int
	AgentID      string
	AgentType    string
	ActionType   string
	Price        float64
	Qty          float64
	OffersSeen   int
	SolverCalls  int
	LearnerSteps int
	WallMs       float64
	MemMB        float64
}

// CellResult is everything one run produced, in memory. CSV and
// manifest writing are separate steps so callers that only want the
// rows never touch disk.
type CellResult struct {
	Spec  CellSpec
	RunID string

	Intervals []IntervalRow
	Decisions []DecisionRow

	PostedKWh float64
	TradedKWh float64
}

// MeanW averages realized welfare across the run's intervals.
func (r *CellResult) MeanW() float64 {
	if len(r.Intervals) == 0 {
		return 0
	}
	var sum float64
	for _, row := range r.Intervals {
		sum += row.W
	}
	return sum / float64(len(r.Intervals))
}

// MeanWHat averages efficiency across the run's intervals.
func (r *CellResult) MeanWHat() float64 {
	if len(r.Intervals) == 0 {
		return 0
	}
	var sum float64
	for _, row := range r.Intervals {
		sum += row.WHat
	}
	return sum / float64(len(r.Intervals))
}

// RunRecord is the manifest entry for one completed cell.
type RunRecord struct {
	RunID       string  `json:"run_id"`
	N           int     `json:"N"`
	Agent       string  `json:"agent"`
	Mode        string  `json:"mode,omitempty"`
	Tau         float64 `json:"tau,omitempty"`
	K           int     `json:"K,omitempty"`
	Seed        int64   `json:"seed"`
	Intervals   int     `json:"intervals"`
	Mechanism   string  `json:"mechanism"`
	FeederCapKW float64 `json:"feeder_cap_kw,omitempty"`
	InfoSet     string  `json:"info_set"`
	PostedKWh   float64 `json:"posted_kwh"`
	TradedKWh   float64 `json:"traded_kwh"`
	IntervalCSV string  `json:"interval_csv"`
	DecisionCSV string  `json:"decision_csv,omitempty"`
}

// Record summarizes the run for the manifest. decisionCSV may be empty.
func (r *CellResult) Record(intervalCSV, decisionCSV string) RunRecord {
	s := r.Spec
	return RunRecord{
		RunID:       r.RunID,
		N:           s.N,
		Agent:       s.Agent,
		Mode:        s.Mode,
		Tau:         s.Tau,
		K:           s.K,
		Seed:        s.Seed,
		Intervals:   s.Intervals,
		Mechanism:   s.Mechanism,
		FeederCapKW: s.FeederCapKW,
		InfoSet:     s.InfoSet,
		PostedKWh:   r.PostedKWh,
		TradedKWh:   r.TradedKWh,
		IntervalCSV: intervalCSV,
		DecisionCSV: decisionCSV,
	}
}
