// Package config loads experiment configuration from YAML, with
// battery presets in separate files merged under the experiment's own
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"p2p-market-sim/internal/model"
	"p2p-market-sim/internal/sim"
)

// Config is the on-disk experiment configuration shape (YAML).
type Config struct {
	Sweep sim.SweepConfig `yaml:"sweep"`

	// Optional: load battery parameters from a separate YAML (e.g.
	// examples/batteries/*.yaml). If both BatteryFile and Battery are
	// provided, Battery overrides BatteryFile.
	BatteryFile string        `yaml:"battery_file"`
	Battery     BatteryConfig `yaml:"battery"`

	// Out is the results directory; the --out flag overrides it.
	Out string `yaml:"out"`
}

type BatteryConfig struct {
	Name                string  `yaml:"name"`
	CapacityKWh         float64 `yaml:"capacity_kwh"`
	PowerKW             float64 `yaml:"power_kw"`
	RoundTripEfficiency float64 `yaml:"round_trip_efficiency"`
	MinSOC              float64 `yaml:"min_soc"`
	InitialSOC          float64 `yaml:"initial_soc"`
}

// Enabled reports whether the config describes an actual battery, as
// opposed to the zero value an absent battery section parses into.
func (b BatteryConfig) Enabled() bool {
	return b.CapacityKWh > 0 || b.PowerKW > 0
}

func (b BatteryConfig) ToModelParams() model.BatteryParams {
	return model.BatteryParams{
		CapacityKWh:         b.CapacityKWh,
		PowerKW:             b.PowerKW,
		RoundTripEfficiency: b.RoundTripEfficiency,
		MinSOC:              b.MinSOC,
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	// If initial_soc is not provided, default it to the runner's
	// half-charged start.
	if c.Battery.Enabled() && c.Battery.InitialSOC == 0 {
		c.Battery.InitialSOC = sim.DefaultBatteryInitialSOC
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	// If battery_file is set, load it and merge in any explicit overrides from c.Battery.
	if c.BatteryFile != "" {
		batteryPath := c.BatteryFile
		if !filepath.IsAbs(batteryPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), batteryPath)
			if _, err := os.Stat(cand); err == nil {
				batteryPath = cand
			}
		}
		loaded, err := loadBatteryFile(batteryPath)
		if err != nil {
			return nil, err
		}
		c.Battery = MergeBattery(loaded, c.Battery)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Sweep.Agent == "" {
		return errors.New("sweep.agent is required")
	}
	if _, err := c.Sweep.Cells(); err != nil {
		return fmt.Errorf("sweep config invalid: %w", err)
	}
	if c.Battery.Enabled() {
		// Validate battery params by constructing a model.Battery.
		if _, err := model.NewBattery(c.Battery.ToModelParams(), c.Battery.InitialSOC); err != nil {
			return fmt.Errorf("battery config invalid: %w", err)
		}
	}
	return nil
}

// ToSweep returns the sweep config with the battery preset attached.
func (c *Config) ToSweep() sim.SweepConfig {
	s := c.Sweep
	if c.Battery.Enabled() {
		params := c.Battery.ToModelParams()
		s.Battery = &params
		s.BatteryInitialSOC = c.Battery.InitialSOC
	}
	return s
}

type batteryFileWrapper struct {
	Battery BatteryConfig `yaml:"battery"`
}

func loadBatteryFile(path string) (BatteryConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return BatteryConfig{}, err
	}
	var w batteryFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return BatteryConfig{}, err
	}
	return w.Battery, nil
}

// LoadBatteryPreset loads a preset by bare name ("home_5kw") or path
// from the battery directory.
func LoadBatteryPreset(name string) (BatteryConfig, error) {
	path := name
	if filepath.Ext(path) == "" {
		path += ".yaml"
	}
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(DefaultBatteryDir(), path)
		}
	}
	return loadBatteryFile(path)
}

// MergeBattery overlays non-zero fields from override onto base.
// This is used when loading a battery file and then applying overrides from the request.
func MergeBattery(base, override BatteryConfig) BatteryConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityKWh != 0 {
		out.CapacityKWh = override.CapacityKWh
	}
	if override.PowerKW != 0 {
		out.PowerKW = override.PowerKW
	}
	if override.RoundTripEfficiency != 0 {
		out.RoundTripEfficiency = override.RoundTripEfficiency
	}
	// Note: min_soc is allowed to be 0 in theory, but our configs use non-zero values.
	if override.MinSOC != 0 {
		out.MinSOC = override.MinSOC
	}
	if override.InitialSOC != 0 {
		out.InitialSOC = override.InitialSOC
	}
	return out
}

// DefaultBatteryDir returns the battery preset directory, BATTERY_DIR
// if set.
func DefaultBatteryDir() string {
	if dir := os.Getenv("BATTERY_DIR"); dir != "" {
		return dir
	}
	return "./examples/batteries"
}

// DefaultResultsDir returns the results directory, RESULTS_DIR if set.
func DefaultResultsDir() string {
	if dir := os.Getenv("RESULTS_DIR"); dir != "" {
		return dir
	}
	return "./results"
}
