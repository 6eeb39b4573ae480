package analysis

import (
	"math"
	"math/rand"
	"sort"
)

// CellKey identifies one grid cell of a sweep. Runs that differ only
// by seed share a key.
type CellKey struct {
	N     int
	Agent string
	Mode  string
	Tau   float64
	K     int
}

// CellAggregate pools a cell's runs across seeds. The efficiency CI is
// a percentile bootstrap over the per-run means; the compute means are
// zero when the sweep was not instrumented.
type CellAggregate struct {
	Key   CellKey
	Seeds int

	MeanWHat float64
	WHatLo   float64
	WHatHi   float64

	MeanWallMs      float64
	MeanOffersSeen  float64
	MeanSolverCalls float64
}

const (
	bootstrapSamples = 1000
	bootstrapAlpha   = 0.05
)

// AggregateCells groups runs by cell and averages across seeds.
// Output is ordered by N, agent, mode, tau, K.
func AggregateCells(runs []RankedRun) []CellAggregate {
	groups := make(map[CellKey][]RankedRun)
	var keys []CellKey
	for _, r := range runs {
		k := CellKey{
			N:     r.Record.N,
			Agent: r.Record.Agent,
			Mode:  r.Record.Mode,
			Tau:   r.Record.Tau,
			K:     r.Record.K,
		}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]CellAggregate, 0, len(keys))
	for _, k := range keys {
		cell := groups[k]
		agg := CellAggregate{Key: k, Seeds: len(cell)}
		wHats := make([]float64, 0, len(cell))
		for _, r := range cell {
			wHats = append(wHats, r.Summary.MeanWHat)
			agg.MeanWHat += r.Summary.MeanWHat
			agg.MeanWallMs += r.Decisions.MeanWallMs
			agg.MeanOffersSeen += r.Decisions.MeanOffersSeen
			agg.MeanSolverCalls += r.Decisions.MeanSolverCalls
		}
		n := float64(len(cell))
		agg.MeanWHat /= n
		agg.MeanWallMs /= n
		agg.MeanOffersSeen /= n
		agg.MeanSolverCalls /= n
		agg.WHatLo, agg.WHatHi = bootstrapCI(wHats, bootstrapSamples, bootstrapAlpha, 0)
		out = append(out, agg)
	}
	return out
}

func (k CellKey) less(o CellKey) bool {
	if k.N != o.N {
		return k.N < o.N
	}
	if k.Agent != o.Agent {
		return k.Agent < o.Agent
	}
	if k.Mode != o.Mode {
		return k.Mode < o.Mode
	}
	if k.Tau != o.Tau {
		return k.Tau < o.Tau
	}
	return k.K < o.K
}

// ParetoFrontier keeps the cells no other cell strictly dominates on
// (higher mean efficiency, lower mean wall time). Call it on
// instrumented sweeps; without wall times every cell ties at zero cost.
func ParetoFrontier(cells []CellAggregate) []CellAggregate {
	var out []CellAggregate
	for i, c := range cells {
		dominated := false
		for j, o := range cells {
			if i == j {
				continue
			}
			if o.MeanWHat >= c.MeanWHat && o.MeanWallMs <= c.MeanWallMs &&
				(o.MeanWHat > c.MeanWHat || o.MeanWallMs < c.MeanWallMs) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, c)
		}
	}
	return out
}

// bootstrapCI is a seeded percentile bootstrap over the sample mean.
func bootstrapCI(values []float64, nBoot int, alpha float64, seed int64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	rng := rand.New(rand.NewSource(seed))
	boots := make([]float64, 0, nBoot)
	for b := 0; b < nBoot; b++ {
		var sum float64
		for range values {
			sum += values[rng.Intn(len(values))]
		}
		boots = append(boots, sum/float64(len(values)))
	}
	sort.Float64s(boots)
	return percentileSorted(boots, alpha/2), percentileSorted(boots, 1-alpha/2)
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
