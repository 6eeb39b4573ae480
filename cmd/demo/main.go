package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"p2p-market-sim/internal/agent"
	"p2p-market-sim/internal/clearing"
	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/metrics"
	"p2p-market-sim/internal/model"
	"p2p-market-sim/internal/profile"
)

// Demo:
// - Synthesize a small mixed neighborhood, a few households per agent type
// - Step the continuous double auction over a lunchtime hour
// - Print one metrics line per interval to show how the pieces fit together
func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	n := flag.Int("n", 3, "Households per agent type")
	intervals := flag.Int("intervals", 12, "Number of 5-minute intervals")
	seed := flag.Int64("seed", 42, "Base RNG seed")
	flag.Parse()

	types := []string{agent.TypeOptimizer, agent.TypeSatisficer, agent.TypeZI, agent.TypeLearner}
	perType := *n

	var agents []agent.Agent
	for ti, typ := range types {
		cfg := agent.SetConfig{
			Type:         typ,
			N:            perType,
			Seed:         *seed + int64(ti),
			Params:       agent.DefaultProsumerParams(),
			MakeProfiles: makeProfiles(*seed, ti*perType),
		}
		if typ == agent.TypeSatisficer {
			cfg.Mode = "band"
			cfg.Tau = 5
		}
		built, err := agent.BuildAgents(cfg)
		if err != nil {
			log.Fatal().Err(err).Str("type", typ).Msg("failed to build agents")
		}
		agents = append(agents, built...)
	}

	eng := clearing.NewEngine(market.New())
	eng.InfoSet = clearing.InfoBook
	eng.StepMinutes = 5

	fmt.Printf("Mixed population: %d households (%d per type), %d intervals from noon\n\n",
		len(agents), *n, *intervals)
	fmt.Printf("%-3s %-7s %-11s %-11s %-8s %-8s %-8s\n",
		"t", "trades", "posted_kwh", "traded_kwh", "price", "W", "W_hat")

	var totalPosted, totalTraded, totalW float64
	for t := 0; t < *intervals; t++ {
		r, err := eng.StepInterval(t, agents)
		if err != nil {
			log.Fatal().Err(err).Int("t", t).Msg("interval failed")
		}

		mean, _ := metrics.PriceStats(r.TradesDetail)
		w := metrics.QuoteWelfare(r.TradesDetail)
		bids := append(append([]model.Order(nil), r.BookBidsStart...), r.PostedBids...)
		asks := append(append([]model.Order(nil), r.BookAsksStart...), r.PostedAsks...)
		bound, _ := metrics.PlannerBound(bids, asks, metrics.BoundOptions{})

		fmt.Printf("%-3d %-7d %-11.2f %-11.2f %-8.2f %-8.3f %-8.3f\n",
			t, r.Trades, r.PostedKWh, r.TradedKWh, mean, w, metrics.Efficiency(w, bound))

		totalPosted += r.PostedKWh
		totalTraded += r.TradedKWh
		totalW += w
	}

	fmt.Printf("\nDone. Posted %.1f kWh, traded %.1f kWh, total W=%.2f c\n",
		totalPosted, totalTraded, totalW)
}

// makeProfiles synthesizes one household per agent index, cut so that
// interval 0 lands at noon. offset keeps the households distinct across
// the per-type populations.
func makeProfiles(seed int64, offset int) func(i int, _ int64) model.ProfileSet {
	return func(i int, _ int64) model.ProfileSet {
		rng := rand.New(rand.NewSource(profile.HouseholdSeed(seed, offset+i)))
		opts := profile.DefaultHouseholdOptions().WithHorizon(24*60, 5)
		ps := profile.Household(rng, opts).Profiles

		const noonSlot = 12 * 12
		ps.LoadKWh = cut(ps.LoadKWh, noonSlot)
		ps.PVKWh = cut(ps.PVKWh, noonSlot)
		ps.EVChargeKW = cut(ps.EVChargeKW, noonSlot)
		return ps
	}
}

func cut(xs []float64, from int) []float64 {
	if from >= len(xs) {
		return nil
	}
	return xs[from:]
}
