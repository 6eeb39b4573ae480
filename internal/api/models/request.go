package models

import "p2p-market-sim/internal/sim"

// SimulateRequest represents the request body for running one cell
type SimulateRequest struct {
	Config  SimulateConfig  `json:"config" binding:"required"`
	Options SimulateOptions `json:"options,omitempty"`
}

// SimulateConfig contains the cell spec and battery configuration
type SimulateConfig struct {
	Spec        sim.CellSpec  `json:"spec"`
	BatteryFile string        `json:"battery_file,omitempty"`
	Battery     BatteryConfig `json:"battery,omitempty"`
}

// BatteryConfig defines battery parameters
type BatteryConfig struct {
	Name                string  `json:"name,omitempty"`
	CapacityKWh         float64 `json:"capacity_kwh"`
	PowerKW             float64 `json:"power_kw"`
	RoundTripEfficiency float64 `json:"round_trip_efficiency"`
	MinSOC              float64 `json:"min_soc"`
	InitialSOC          float64 `json:"initial_soc,omitempty"`
}

// SimulateOptions contains optional simulate parameters
type SimulateOptions struct {
	IncludeIntervals bool `json:"include_intervals,omitempty"` // default: false
	IncludeDecisions bool `json:"include_decisions,omitempty"` // implies instrumentation
}

// CompareRequest represents a request to compare multiple cells
type CompareRequest struct {
	BaseConfig SimulateConfig      `json:"base_config" binding:"required"`
	Variations []SimulateVariation `json:"variations" binding:"required"`
}

// SimulateVariation defines a variation to run
type SimulateVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config SimulateConfig `json:"config"`
}

// ProfilePreviewRequest asks for one synthesized household
type ProfilePreviewRequest struct {
	Seed        int64 `json:"seed"`
	Index       int   `json:"index,omitempty"`
	StepMinutes int   `json:"step_minutes,omitempty"` // default: 5
	HorizonDays int   `json:"horizon_days,omitempty"` // default: 1
}
