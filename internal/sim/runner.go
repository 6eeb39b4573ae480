package sim

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"

	"p2p-market-sim/internal/agent"
	"p2p-market-sim/internal/clearing"
	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/metrics"
	"p2p-market-sim/internal/model"
	"p2p-market-sim/internal/profile"
)

// RunCell builds the population and book the spec describes and steps
// the chosen mechanism over its intervals, one metrics row each.
// Results stay in memory; pair with WriteCellCSVs for the on-disk
// artifacts.
func RunCell(spec CellSpec) (*CellResult, error) {
	spec = spec.withDefaults()
	if err := spec.validate(); err != nil {
		return nil, err
	}

	agents, err := agent.BuildAgents(spec.agentConfig())
	if err != nil {
		return nil, err
	}

	res := &CellResult{
		Spec:  spec,
		RunID: uuid.NewString(),
	}

	book := market.NewWithTick(spec.Tick)
	eng := clearing.NewEngine(book)
	eng.InfoSet = clearing.InfoSet(spec.InfoSet)
	eng.FeederLimitKW = spec.FeederCapKW
	eng.StepMinutes = spec.StepMinutes

	var memMB float64
	if spec.InstrumentDecisions {
		eng.Observer = func(t int, a agent.Agent, act model.Action, wall time.Duration) {
			res.Decisions = append(res.Decisions, DecisionRow{
				RunID:        res.RunID,
				T:            t,
				AgentID:      a.ID(),
				AgentType:    a.Type(),
				ActionType:   string(act.Type),
				Price:        act.Price,
				Qty:          act.Qty,
				OffersSeen:   act.OffersSeen,
				SolverCalls:  act.SolverCalls,
				LearnerSteps: act.LearnerSteps,
				WallMs:       float64(wall.Nanoseconds()) / 1e6,
				MemMB:        memMB,
			})
		}
	}

	for t := 0; t < spec.Intervals; t++ {
		if spec.InstrumentDecisions {
			memMB = heapMB()
		}
		var (
			ir   clearing.Result
			serr error
		)
		if spec.Mechanism == MechanismCall {
			ir, serr = eng.StepIntervalCall(t, agents)
		} else {
			ir, serr = eng.StepInterval(t, agents)
		}
		if serr != nil {
			return nil, fmt.Errorf("cell %s: %w", spec.Tag(), serr)
		}
		res.Intervals = append(res.Intervals, intervalRow(ir))
		res.PostedKWh += ir.PostedKWh
		res.TradedKWh += ir.TradedKWh
	}
	return res, nil
}

// intervalRow derives the metrics row for one clearing result. The
// planner bound runs uncapped over the interval-start book plus
// everything posted this interval, so efficiency reports what the
// mechanism extracted from the quotes it was actually shown.
func intervalRow(r clearing.Result) IntervalRow {
	mean, variance := metrics.PriceStats(r.TradesDetail)
	w := metrics.QuoteWelfare(r.TradesDetail)

	bids := append(append([]model.Order(nil), r.BookBidsStart...), r.PostedBids...)
	asks := append(append([]model.Order(nil), r.BookAsksStart...), r.PostedAsks...)
	bound, _ := metrics.PlannerBound(bids, asks, metrics.BoundOptions{})

	return IntervalRow{
		T:             r.Interval,
		Trades:        r.Trades,
		TradedKWh:     r.TradedKWh,
		PostedBuyKWh:  r.PostedBuyKWh,
		PostedSellKWh: r.PostedSellKWh,
		UnservedKWh:   math.Max(0, r.PostedBuyKWh-r.TradedKWh),
		CurtailedKWh:  math.Max(0, r.PostedSellKWh-r.TradedKWh),
		PriceMean:     mean,
		PriceVar:      variance,
		W:             w,
		WBound:        bound,
		WHat:          metrics.Efficiency(w, bound),
	}
}

// makeProfiles synthesizes one household per agent. The horizon always
// covers at least a full profile day, then the series are cut so index
// 0 is the spec's StartHour.
func (s CellSpec) makeProfiles(i int, _ int64) model.ProfileSet {
	rng := rand.New(rand.NewSource(profile.HouseholdSeed(s.Seed, i)))

	startSlot := int(s.StartHour * 60 / float64(s.StepMinutes))
	horizon := (startSlot + s.Intervals) * s.StepMinutes
	if horizon < 24*60 {
		horizon = 24 * 60
	}

	opts := profile.DefaultHouseholdOptions().WithHorizon(horizon, s.StepMinutes)
	ps := profile.Household(rng, opts).Profiles
	ps.LoadKWh = tail(ps.LoadKWh, startSlot)
	ps.PVKWh = tail(ps.PVKWh, startSlot)
	ps.EVChargeKW = tail(ps.EVChargeKW, startSlot)
	return ps
}

func tail(xs []float64, from int) []float64 {
	if from >= len(xs) {
		return nil
	}
	return xs[from:]
}

// heapMB reads the current heap allocation in MiB.
func heapMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.Alloc) / (1 << 20)
}
