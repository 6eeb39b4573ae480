package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"p2p-market-sim/internal/analysis"
	"p2p-market-sim/internal/config"
	"p2p-market-sim/internal/sim"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --agent satisficer --mode band --tau 5 --n 20 --out results/run")
	fmt.Println("  cli sweep --config examples/band_sweep.yaml --out results/band")
	fmt.Println("  cli sweep --agent satisficer --mode band --N 10,20 --tau 1,2,5 --seeds 5 --out results/band")
	fmt.Println("  cli rank --dir results/band")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run writes interval_metrics_<tag>.csv, plus decision_metrics_<tag>.csv with --instrument-decisions")
	fmt.Println("  - sweep expands a YAML config (or the grid flags) into a cell grid and writes manifest.json at the end")
	fmt.Println("  - rank reads a sweep directory back and prints runs and cells by efficiency")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	agentType := fs.String("agent", "zi", "Agent population: optimizer, satisficer, zi or learner")
	mode := fs.String("mode", "", "Satisficer search rule: band, k_search or k_greedy")
	n := fs.Int("n", 20, "Number of households")
	tau := fs.Float64("tau", 0, "Band halfwidth in percent of the own quote (band mode)")
	k := fs.Int("k", 0, "Offers inspected before settling (k modes)")
	intervals := fs.Int("intervals", 288, "Number of intervals")
	seed := fs.Int64("seed", 1000, "Base RNG seed")
	mechanism := fs.String("mechanism", "cda", "Clearing mechanism: cda or call")
	feederCap := fs.Float64("feeder-cap", 0, "Feeder limit in kW for batch clearing (0=unlimited)")
	infoSet := fs.String("info-set", "book", "Information set shown to agents: book or ticker")
	priceSigma := fs.Float64("price-sigma", 0, "Quote price noise sigma in cents (0=default)")
	buyMarkup := fs.Float64("buy-markup", 0, "Buy quote markup in cents (0=default)")
	sellDiscount := fs.Float64("sell-discount", 0, "Sell quote discount in cents (0=default)")
	optimizerMode := fs.String("optimizer-mode", "", "Optimizer fill mode: single or greedy")
	instrument := fs.Bool("instrument-decisions", false, "Record per-decision metrics")
	battery := fs.String("battery", "", "Battery preset name or path (optional)")
	outDir := fs.String("out", config.DefaultResultsDir(), "Output directory")
	_ = fs.Parse(args)

	spec := sim.CellSpec{
		N:                   *n,
		Agent:               *agentType,
		Mode:                *mode,
		Tau:                 *tau,
		K:                   *k,
		Intervals:           *intervals,
		Seed:                *seed,
		Mechanism:           *mechanism,
		FeederCapKW:         *feederCap,
		InfoSet:             *infoSet,
		PriceSigma:          *priceSigma,
		BuyMarkup:           *buyMarkup,
		SellDiscount:        *sellDiscount,
		OptimizerMode:       *optimizerMode,
		InstrumentDecisions: *instrument,
	}

	if *battery != "" {
		batt, err := config.LoadBatteryPreset(*battery)
		if err != nil {
			log.Fatal().Err(err).Str("battery", *battery).Msg("failed to load battery preset")
		}
		if batt.Enabled() {
			params := batt.ToModelParams()
			spec.Battery = &params
			spec.BatteryInitialSOC = batt.InitialSOC
		}
	}

	res, err := sim.RunCell(spec)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}

	intervalCSV, decisionCSV, err := sim.WriteCellCSVs(res, *outDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write results")
	}

	fmt.Printf("Wrote %d interval rows to %s\n", len(res.Intervals), intervalCSV)
	if decisionCSV != "" {
		fmt.Printf("Wrote %d decision rows to %s\n", len(res.Decisions), decisionCSV)
	}
	fmt.Printf("Posted %.1f kWh, traded %.1f kWh, mean W_hat=%.3f\n",
		res.PostedKWh, res.TradedKWh, res.MeanWHat())
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML sweep config (omit to build the grid from flags)")
	agentType := fs.String("agent", "zi", "Agent population (flag-built grids)")
	mode := fs.String("mode", "", "Satisficer search rule (flag-built grids)")
	ns := fs.String("N", "20", "Comma-separated population sizes (flag-built grids)")
	taus := fs.String("tau", "", "Comma-separated band halfwidths in percent (flag-built grids)")
	ks := fs.String("K", "", "Comma-separated offer budgets (flag-built grids)")
	seeds := fs.Int("seeds", 5, "Seeds per grid point (flag-built grids)")
	intervals := fs.Int("intervals", 288, "Number of intervals (flag-built grids)")
	mechanism := fs.String("mechanism", "cda", "Clearing mechanism: cda or call (flag-built grids)")
	infoSet := fs.String("info-set", "book", "Information set shown to agents: book or ticker (flag-built grids)")
	instrument := fs.Bool("instrument-decisions", false, "Record per-decision metrics (flag-built grids)")
	outDir := fs.String("out", "", "Output directory (default: the config's out, else RESULTS_DIR)")
	parallelism := fs.Int("parallelism", 0, "Max concurrent cells (0=GOMAXPROCS)")
	_ = fs.Parse(args)

	var sweepCfg sim.SweepConfig
	var cfgOut string
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		sweepCfg = cfg.ToSweep()
		cfgOut = cfg.Out
	} else {
		nList, err := intList(*ns)
		if err != nil {
			log.Fatal().Err(err).Str("flag", "N").Msg("bad grid values")
		}
		tauList, err := floatList(*taus)
		if err != nil {
			log.Fatal().Err(err).Str("flag", "tau").Msg("bad grid values")
		}
		kList, err := intList(*ks)
		if err != nil {
			log.Fatal().Err(err).Str("flag", "K").Msg("bad grid values")
		}
		sweepCfg = sim.SweepConfig{
			Agent:               *agentType,
			Mode:                *mode,
			Ns:                  nList,
			Taus:                tauList,
			Ks:                  kList,
			Seeds:               *seeds,
			Intervals:           *intervals,
			Mechanism:           *mechanism,
			InfoSet:             *infoSet,
			InstrumentDecisions: *instrument,
		}
	}
	if *parallelism > 0 {
		sweepCfg.Parallelism = *parallelism
	}

	dir := *outDir
	if dir == "" {
		dir = cfgOut
	}
	if dir == "" {
		dir = config.DefaultResultsDir()
	}

	records, err := sim.Sweep(context.Background(), sweepCfg, dir, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep failed")
	}
	fmt.Printf("Completed %d runs, manifest at %s\n", len(records), filepath.Join(dir, "manifest.json"))
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	dir := fs.String("dir", config.DefaultResultsDir(), "Sweep output directory holding a manifest.json")
	frontier := fs.Bool("frontier", false, "Also print the efficiency/latency Pareto frontier")
	_ = fs.Parse(args)

	m, err := sim.LoadManifest(filepath.Join(*dir, "manifest.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load manifest")
	}

	runs, err := analysis.SummarizeManifest(m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to summarize runs")
	}

	ranked := analysis.RankByEfficiency(runs)
	fmt.Printf("%-4s %-38s %-7s %-11s %-8s %-8s\n", "rank", "cell", "trades", "traded_kwh", "mean_W", "W_hat")
	for i, r := range ranked {
		fmt.Printf("%-4d %-38s %-7d %-11.1f %-8.2f %-8.3f\n",
			i+1, runTag(r.Record), r.Summary.Trades, r.Summary.TradedKWh,
			r.Summary.MeanW, r.Summary.MeanWHat)
	}

	cells := analysis.AggregateCells(runs)
	fmt.Println()
	fmt.Printf("%-5s %-11s %-9s %-5s %-4s %-6s %-7s %-17s %-8s\n",
		"N", "agent", "mode", "tau", "K", "seeds", "W_hat", "95% CI", "wall_ms")
	for _, cell := range cells {
		fmt.Printf("%-5d %-11s %-9s %-5s %-4s %-6d %-7.3f [%6.3f, %6.3f]  %-8.3f\n",
			cell.Key.N, cell.Key.Agent, orNA(cell.Key.Mode),
			tauLabel(cell.Key.Tau), kLabel(cell.Key.K),
			cell.Seeds, cell.MeanWHat, cell.WHatLo, cell.WHatHi, cell.MeanWallMs)
	}

	if *frontier {
		front := analysis.ParetoFrontier(cells)
		fmt.Println()
		fmt.Println("efficiency/latency frontier:")
		for _, cell := range front {
			fmt.Printf("  N%d %s mode=%s tau=%s K=%s W_hat=%.3f wall_ms=%.3f\n",
				cell.Key.N, cell.Key.Agent, orNA(cell.Key.Mode),
				tauLabel(cell.Key.Tau), kLabel(cell.Key.K),
				cell.MeanWHat, cell.MeanWallMs)
		}
	}
}

// runTag rebuilds the cell tag a run was written under.
func runTag(rec sim.RunRecord) string {
	return sim.CellSpec{
		N: rec.N, Agent: rec.Agent, Mode: rec.Mode,
		Tau: rec.Tau, K: rec.K, Seed: rec.Seed,
	}.Tag()
}

func intList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func floatList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func orNA(s string) string {
	if s == "" {
		return "na"
	}
	return s
}

func tauLabel(tau float64) string {
	if tau <= 0 {
		return "na"
	}
	return strconv.FormatFloat(tau, 'g', -1, 64)
}

func kLabel(k int) string {
	if k <= 0 {
		return "na"
	}
	return strconv.Itoa(k)
}
