package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/sim"
)

func rankedRun(n int, agent string, seed int64, wHat, wallMs float64) RankedRun {
	return RankedRun{
		Record:    sim.RunRecord{N: n, Agent: agent, Seed: seed},
		Summary:   RunSummary{MeanWHat: wHat},
		Decisions: DecisionSummary{MeanWallMs: wallMs},
	}
}

func TestAggregateCells(t *testing.T) {
	runs := []RankedRun{
		rankedRun(4, "satisficer", 1000, 0.5, 1.0),
		rankedRun(4, "satisficer", 1001, 0.7, 3.0),
		rankedRun(2, "optimizer", 1000, 0.9, 5.0),
	}
	runs[0].Record.Mode = "band"
	runs[0].Record.Tau = 2
	runs[1].Record.Mode = "band"
	runs[1].Record.Tau = 2

	cells := AggregateCells(runs)
	require.Len(t, cells, 2)

	// Ordered by N first.
	opt := cells[0]
	assert.Equal(t, CellKey{N: 2, Agent: "optimizer"}, opt.Key)
	assert.Equal(t, 1, opt.Seeds)
	assert.InDelta(t, 0.9, opt.MeanWHat, 1e-12)
	assert.Equal(t, opt.MeanWHat, opt.WHatLo)
	assert.Equal(t, opt.MeanWHat, opt.WHatHi)

	sat := cells[1]
	assert.Equal(t, CellKey{N: 4, Agent: "satisficer", Mode: "band", Tau: 2}, sat.Key)
	assert.Equal(t, 2, sat.Seeds)
	assert.InDelta(t, 0.6, sat.MeanWHat, 1e-12)
	assert.InDelta(t, 2.0, sat.MeanWallMs, 1e-12)

	// Bootstrap means resample {0.5, 0.7}, so the CI stays inside them.
	assert.GreaterOrEqual(t, sat.WHatLo, 0.5)
	assert.LessOrEqual(t, sat.WHatHi, 0.7)
	assert.LessOrEqual(t, sat.WHatLo, sat.WHatHi)
}

func TestAggregateCellsIsDeterministic(t *testing.T) {
	runs := []RankedRun{
		rankedRun(4, "zi", 1000, 0.4, 0),
		rankedRun(4, "zi", 1001, 0.6, 0),
	}
	a := AggregateCells(runs)
	b := AggregateCells(runs)
	assert.Equal(t, a, b)
}

func TestParetoFrontier(t *testing.T) {
	cells := []CellAggregate{
		{Key: CellKey{Agent: "optimizer"}, MeanWHat: 0.9, MeanWallMs: 10},
		{Key: CellKey{Agent: "satisficer"}, MeanWHat: 0.8, MeanWallMs: 5},
		{Key: CellKey{Agent: "zi"}, MeanWHat: 0.7, MeanWallMs: 20},
	}

	front := ParetoFrontier(cells)
	require.Len(t, front, 2)
	assert.Equal(t, "optimizer", front[0].Key.Agent)
	assert.Equal(t, "satisficer", front[1].Key.Agent)
}

func TestParetoFrontierKeepsTies(t *testing.T) {
	cells := []CellAggregate{
		{Key: CellKey{Agent: "a"}, MeanWHat: 0.8, MeanWallMs: 5},
		{Key: CellKey{Agent: "b"}, MeanWHat: 0.8, MeanWallMs: 5},
	}

	front := ParetoFrontier(cells)
	assert.Len(t, front, 2)
}

func TestBootstrapCIConstantSample(t *testing.T) {
	lo, hi := bootstrapCI([]float64{2.5, 2.5, 2.5}, 200, 0.05, 0)
	assert.Equal(t, 2.5, lo)
	assert.Equal(t, 2.5, hi)

	lo, hi = bootstrapCI(nil, 200, 0.05, 0)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestPercentileSorted(t *testing.T) {
	xs := []float64{1, 2, 3, 4}

	assert.Zero(t, percentileSorted(nil, 0.5))
	assert.Equal(t, 1.0, percentileSorted(xs, 0))
	assert.Equal(t, 4.0, percentileSorted(xs, 1))
	assert.InDelta(t, 2.5, percentileSorted(xs, 0.5), 1e-12)
	assert.InDelta(t, 1.75, percentileSorted(xs, 0.25), 1e-12)
}
