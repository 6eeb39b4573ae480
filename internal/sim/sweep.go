package sim

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"p2p-market-sim/internal/agent"
	"p2p-market-sim/internal/model"
)

// SweepConfig expands into a grid of cells: band sweeps N x tau, the
// k modes sweep N x K, every other population sweeps N alone. Each
// grid point runs Seeds times with seeds 1000, 1001, ...
type SweepConfig struct {
	Agent string `json:"agent" yaml:"agent"`
	Mode  string `json:"mode,omitempty" yaml:"mode"`

	Ns   []int     `json:"N" yaml:"N"`
	Taus []float64 `json:"tau,omitempty" yaml:"tau"`
	Ks   []int     `json:"K,omitempty" yaml:"K"`

	Seeds     int `json:"seeds" yaml:"seeds"`
	Intervals int `json:"intervals" yaml:"intervals"`

	Mechanism   string  `json:"mechanism" yaml:"mechanism"`
	FeederCapKW float64 `json:"feeder_cap_kw,omitempty" yaml:"feeder_cap_kw"`
	InfoSet     string  `json:"info_set" yaml:"info_set"`

	HeteroTau []float64 `json:"hetero_tau,omitempty" yaml:"hetero_tau"`
	HeteroK   []int     `json:"hetero_K,omitempty" yaml:"hetero_K"`

	PriceSigma    float64 `json:"price_sigma,omitempty" yaml:"price_sigma"`
	BuyMarkup     float64 `json:"buy_markup,omitempty" yaml:"buy_markup"`
	SellDiscount  float64 `json:"sell_discount,omitempty" yaml:"sell_discount"`
	RetailPrice   float64 `json:"retail_price,omitempty" yaml:"retail_price"`
	OptimizerMode string  `json:"optimizer_mode,omitempty" yaml:"optimizer_mode"`

	InstrumentDecisions bool `json:"instrument_decisions,omitempty" yaml:"instrument_decisions"`

	// Parallelism caps concurrent cells; zero means GOMAXPROCS.
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism"`

	// Battery applies to every household in every cell. It is set
	// programmatically from a battery preset, never from this struct's
	// own YAML or JSON form.
	Battery           *model.BatteryParams `json:"-" yaml:"-"`
	BatteryInitialSOC float64              `json:"-" yaml:"-"`
}

// gridPoint is one (tau, K) coordinate of the sweep grid.
type gridPoint struct {
	tau float64
	k   int
}

// Cells expands the grid into runnable cell specs. Population-level
// validation stays with BuildAgents; only the grid shape is checked
// here.
func (c SweepConfig) Cells() ([]CellSpec, error) {
	if len(c.Ns) == 0 {
		return nil, errors.New("sweep needs at least one N")
	}
	seeds := c.Seeds
	if seeds <= 0 {
		seeds = 5
	}

	var points []gridPoint
	switch {
	case c.Agent == agent.TypeSatisficer && c.Mode == "band":
		if len(c.Taus) == 0 && len(c.HeteroTau) == 0 {
			return nil, errors.New("band sweep needs tau values")
		}
		for _, tau := range c.Taus {
			points = append(points, gridPoint{tau: tau})
		}
	case c.Agent == agent.TypeSatisficer && (c.Mode == "k_search" || c.Mode == "k_greedy"):
		if len(c.Ks) == 0 && len(c.HeteroK) == 0 {
			return nil, errors.New("k_search and k_greedy sweeps need K values")
		}
		for _, k := range c.Ks {
			points = append(points, gridPoint{k: k})
		}
	case c.Agent == agent.TypeSatisficer:
		return nil, fmt.Errorf("unknown satisficer mode %q", c.Mode)
	}
	if len(points) == 0 {
		// Single-point grids (optimizer, zi, learner, hetero-only).
		points = append(points, gridPoint{})
	}

	var cells []CellSpec
	for _, n := range c.Ns {
		for _, pt := range points {
			for s := 0; s < seeds; s++ {
				cells = append(cells, CellSpec{
					N:                   n,
					Agent:               c.Agent,
					Mode:                c.Mode,
					Tau:                 pt.tau,
					K:                   pt.k,
					HeteroTau:           c.HeteroTau,
					HeteroK:             c.HeteroK,
					OptimizerMode:       c.OptimizerMode,
					Intervals:           c.Intervals,
					Seed:                int64(1000 + s),
					Mechanism:           c.Mechanism,
					FeederCapKW:         c.FeederCapKW,
					InfoSet:             c.InfoSet,
					PriceSigma:          c.PriceSigma,
					BuyMarkup:           c.BuyMarkup,
					SellDiscount:        c.SellDiscount,
					RetailPrice:         c.RetailPrice,
					Battery:             c.Battery,
					BatteryInitialSOC:   c.BatteryInitialSOC,
					InstrumentDecisions: c.InstrumentDecisions,
				})
			}
		}
	}
	return cells, nil
}

// Sweep runs every cell in the grid, each into its own tag-named
// subdirectory of outDir, then writes the manifest. Cells share no
// state, so they run concurrently up to the configured parallelism.
func Sweep(ctx context.Context, cfg SweepConfig, outDir string, log zerolog.Logger) ([]RunRecord, error) {
	cells, err := cfg.Cells()
	if err != nil {
		return nil, err
	}

	limit := cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	records := make([]RunRecord, len(cells))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, spec := range cells {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			began := time.Now()

			res, err := RunCell(spec)
			if err != nil {
				return err
			}
			cellDir := filepath.Join(outDir, spec.Tag())
			intervalCSV, decisionCSV, err := WriteCellCSVs(res, cellDir)
			if err != nil {
				return fmt.Errorf("cell %s: %w", spec.Tag(), err)
			}
			records[i] = res.Record(intervalCSV, decisionCSV)

			log.Info().
				Str("cell", spec.Tag()).
				Float64("traded_kwh", res.TradedKWh).
				Float64("mean_w_hat", res.MeanWHat()).
				Dur("took", time.Since(began)).
				Msg("cell finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := WriteManifest(outDir, cfg, records); err != nil {
		return nil, err
	}
	log.Info().Int("runs", len(records)).Str("out", outDir).Msg("sweep complete")
	return records, nil
}
