package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/market"
	"p2p-market-sim/internal/model"
)

func quietParams() ProsumerParams {
	p := DefaultProsumerParams()
	p.QuoteSigma = 0
	return p
}

func TestProsumerQuotesNetPosition(t *testing.T) {
	profiles := model.ProfileSet{
		StepMinutes: 5,
		LoadKWh:     []float64{1.0, 0.2},
		PVKWh:       []float64{0.2, 1.0},
	}
	p := NewProsumer("prosumer_0", 1, profiles, quietParams())

	q, ok := p.MakeQuote(0)
	require.True(t, ok)
	assert.Equal(t, model.Buy, q.Side)
	assert.InDelta(t, 0.8, q.Qty, 1e-9)
	assert.InDelta(t, 16.3+1.0, q.Price, 1e-9)

	q, ok = p.MakeQuote(1)
	require.True(t, ok)
	assert.Equal(t, model.Sell, q.Side)
	assert.InDelta(t, 0.8, q.Qty, 1e-9)
	assert.InDelta(t, 16.3-1.0, q.Price, 1e-9)
}

func TestProsumerQuoteMemoizedPerInterval(t *testing.T) {
	profiles := model.ProfileSet{StepMinutes: 5, LoadKWh: []float64{1.0, 1.0}}
	p := NewProsumer("prosumer_0", 1, profiles, DefaultProsumerParams())

	first, ok := p.MakeQuote(0)
	require.True(t, ok)
	again, ok2 := p.MakeQuote(0)
	require.True(t, ok2)
	assert.Equal(t, first, again)
}

func TestProsumerNoPositionNoQuote(t *testing.T) {
	p := NewProsumer("prosumer_0", 1, model.ProfileSet{}, quietParams())

	_, ok := p.MakeQuote(0)
	assert.False(t, ok)

	act := p.Decide(market.Snapshot{}, 0)
	assert.Equal(t, model.ActionNone, act.Type)
}

func TestProsumerDecidePostsQuote(t *testing.T) {
	profiles := model.ProfileSet{StepMinutes: 5, LoadKWh: []float64{0.8}}
	p := NewProsumer("prosumer_0", 1, profiles, quietParams())

	act := p.Decide(market.Snapshot{}, 0)
	assert.Equal(t, model.ActionPost, act.Type)
	assert.Equal(t, model.Buy, act.Side)
	assert.InDelta(t, 0.8, act.Qty, 1e-9)
	assert.InDelta(t, 17.3, act.Price, 1e-9)
}

func TestProsumerBatteryCoversPartOfDeficit(t *testing.T) {
	profiles := model.ProfileSet{StepMinutes: 5, LoadKWh: []float64{1.0}}
	p := NewProsumer("prosumer_0", 1, profiles, quietParams())
	b, err := model.NewBattery(model.DefaultBatteryParams(), 0.5)
	require.NoError(t, err)
	p.AttachBattery(b)

	// 1 kWh over 5 min asks for 12 kW; the 5 kW rating covers 5/12 kWh.
	q, ok := p.MakeQuote(0)
	require.True(t, ok)
	assert.Equal(t, model.Buy, q.Side)
	assert.InDelta(t, 1.0-5.0/12, q.Qty, 1e-9)
	assert.Less(t, b.State.SOC, 0.5)
}

func TestProsumerBatteryAbsorbsSurplus(t *testing.T) {
	profiles := model.ProfileSet{StepMinutes: 5, PVKWh: []float64{0.3}}
	p := NewProsumer("prosumer_0", 1, profiles, quietParams())
	b, err := model.NewBattery(model.DefaultBatteryParams(), 0.5)
	require.NoError(t, err)
	p.AttachBattery(b)

	// 0.3 kWh surplus over 5 min is 3.6 kW, inside the rating, so the
	// battery absorbs it all and nothing is quoted.
	_, ok := p.MakeQuote(0)
	assert.False(t, ok)
	assert.Greater(t, b.State.SOC, 0.5)
}
