package agent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

func TestZIQuoteBounds(t *testing.T) {
	z := NewZIConstrained("zi_0", 42)

	for i := 0; i < 200; i++ {
		q, ok := z.MakeQuote(i)
		require.True(t, ok)
		assert.GreaterOrEqual(t, q.Price, ziPriceMin)
		assert.LessOrEqual(t, q.Price, ziPriceMax)
		// One-decimal grid.
		assert.InDelta(t, math.RoundToEven(q.Price*10)/10, q.Price, 1e-9)
		assert.InDelta(t, ziQtyKWh, q.Qty, 1e-9)
		assert.Contains(t, []model.Side{model.Buy, model.Sell}, q.Side)
	}
}

func TestZIAlwaysPosts(t *testing.T) {
	z := NewZIConstrained("zi_0", 42)

	act := z.Decide(market.Snapshot{}, 0)
	assert.Equal(t, model.ActionPost, act.Type)
	assert.InDelta(t, ziQtyKWh, act.Qty, 1e-9)
}

func TestZISeededReplay(t *testing.T) {
	a := NewZIConstrained("zi_0", 7)
	b := NewZIConstrained("zi_0", 7)

	for i := 0; i < 50; i++ {
		qa, _ := a.MakeQuote(i)
		qb, _ := b.MakeQuote(i)
		assert.Equal(t, qa, qb)
	}
}
