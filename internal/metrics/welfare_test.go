package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

func TestQuoteWelfare(t *testing.T) {
	trades := []model.Trade{
		{Qty: 0.5, BidPrice: 17, AskPrice: 15},
		{Qty: 0.5, BidPrice: 18, AskPrice: 16},
	}
	assert.InDelta(t, 2.0, QuoteWelfare(trades), 1e-9)
	assert.Zero(t, QuoteWelfare(nil))
}

func TestPlannerBoundSimpleCross(t *testing.T) {
	bids := []model.Order{{Price: 17, Qty: 0.5, Side: model.Buy}}
	asks := []model.Order{{Price: 15, Qty: 0.5, Side: model.Sell}}

	bound, traded := PlannerBound(bids, asks, BoundOptions{})
	assert.InDelta(t, 1.0, bound, 1e-9)
	assert.InDelta(t, 0.5, traded, 1e-9)
}

func TestPlannerBoundPairsBestFirst(t *testing.T) {
	bids := []model.Order{
		{Price: 16, Qty: 0.5, Side: model.Buy},
		{Price: 18, Qty: 0.5, Side: model.Buy},
	}
	asks := []model.Order{
		{Price: 17, Qty: 0.5, Side: model.Sell},
		{Price: 15, Qty: 0.5, Side: model.Sell},
	}

	// Only 18x15 is worth pairing: (18-15)*0.5.
	bound, traded := PlannerBound(bids, asks, BoundOptions{})
	assert.InDelta(t, 1.5, bound, 1e-9)
	assert.InDelta(t, 0.5, traded, 1e-9)
}

func TestPlannerBoundDominatesRealizedWelfare(t *testing.T) {
	bids := []model.Order{
		{ID: 1, Price: 18, Qty: 0.5, Side: model.Buy, Owner: "b1", Seq: 1},
		{ID: 2, Price: 16, Qty: 0.7, Side: model.Buy, Owner: "b2", Seq: 2},
		{ID: 3, Price: 15, Qty: 0.4, Side: model.Buy, Owner: "b3", Seq: 3},
	}
	asks := []model.Order{
		{ID: 4, Price: 14, Qty: 0.6, Side: model.Sell, Owner: "s1", Seq: 4},
		{ID: 5, Price: 15.5, Qty: 0.5, Side: model.Sell, Owner: "s2", Seq: 5},
		{ID: 6, Price: 17, Qty: 0.3, Side: model.Sell, Owner: "s3", Seq: 6},
	}

	res := market.MatchBatch(bids, asks, market.BatchOptions{})
	w := QuoteWelfare(res.Trades)
	bound, _ := PlannerBound(bids, asks, BoundOptions{})

	assert.GreaterOrEqual(t, bound+1e-9, w)
	assert.Greater(t, bound, 0.0)
}

func TestPlannerBoundFeederCap(t *testing.T) {
	bids := []model.Order{{Price: 17, Qty: 1.0, Side: model.Buy}}
	asks := []model.Order{{Price: 15, Qty: 1.0, Side: model.Sell}}

	bound, traded := PlannerBound(bids, asks, BoundOptions{FeederLimitKW: 6, StepMinutes: 5})
	assert.InDelta(t, 2.0*0.5, bound, 1e-9)
	assert.InDelta(t, 0.5, traded, 1e-9)
}

func TestEfficiency(t *testing.T) {
	assert.InDelta(t, 0.8, Efficiency(0.8, 1.0), 1e-9)
	assert.Zero(t, Efficiency(0.5, 0))
	assert.Zero(t, Efficiency(0.5, -1))
}

func TestPriceStats(t *testing.T) {
	trades := []model.Trade{
		{Price: 15},
		{Price: 17},
	}
	mean, variance := PriceStats(trades)
	assert.InDelta(t, 16.0, mean, 1e-9)
	assert.InDelta(t, 1.0, variance, 1e-9)

	mean, variance = PriceStats(nil)
	assert.Zero(t, mean)
	assert.Zero(t, variance)
}
