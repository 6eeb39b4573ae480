package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2p-market-sim/internal/model"
)

func flatProfiles(i int, seed int64) model.ProfileSet {
	return model.ProfileSet{StepMinutes: 5, LoadKWh: []float64{0.5, 0.5, 0.5}}
}

func TestBuildAgentsIDsAndTypes(t *testing.T) {
	agents, err := BuildAgents(SetConfig{
		Type:         TypeOptimizer,
		N:            3,
		Seed:         42,
		Params:       quietParams(),
		MakeProfiles: flatProfiles,
	})
	require.NoError(t, err)
	require.Len(t, agents, 3)
	for i, a := range agents {
		assert.Equal(t, fmt.Sprintf("optimizer_%d", i), a.ID())
		assert.Equal(t, "optimizer", a.Type())
	}
}

func TestBuildAgentsSeedsAreSpread(t *testing.T) {
	s0 := agentSeed(42, 0)
	s1 := agentSeed(42, 1)
	assert.NotEqual(t, s0, s1)
	assert.GreaterOrEqual(t, s0, int64(0))

	// Different cell seeds give different streams for the same index.
	assert.NotEqual(t, agentSeed(1000, 0), agentSeed(1001, 0))
}

func TestBuildAgentsSatisficerModes(t *testing.T) {
	for _, mode := range SatisficerModes() {
		cfg := SetConfig{
			Type:         TypeSatisficer,
			N:            1,
			Mode:         mode,
			Tau:          5,
			K:            2,
			Seed:         1,
			Params:       quietParams(),
			MakeProfiles: flatProfiles,
		}
		agents, err := BuildAgents(cfg)
		require.NoError(t, err, mode)
		s, ok := agents[0].(*Satisficer)
		require.True(t, ok)
		assert.Equal(t, mode, s.Rule().Name())
	}
}

func TestBuildAgentsSatisficerRequiresMode(t *testing.T) {
	_, err := BuildAgents(SetConfig{
		Type:         TypeSatisficer,
		N:            1,
		Seed:         1,
		Params:       quietParams(),
		MakeProfiles: flatProfiles,
	})
	assert.Error(t, err)
}

func TestBuildAgentsBandRequiresTau(t *testing.T) {
	_, err := BuildAgents(SetConfig{
		Type:         TypeSatisficer,
		N:            1,
		Mode:         "band",
		Seed:         1,
		Params:       quietParams(),
		MakeProfiles: flatProfiles,
	})
	assert.Error(t, err)
}

func TestBuildAgentsKModesRequireK(t *testing.T) {
	for _, mode := range []string{"k_search", "k_greedy"} {
		_, err := BuildAgents(SetConfig{
			Type:         TypeSatisficer,
			N:            1,
			Mode:         mode,
			Seed:         1,
			Params:       quietParams(),
			MakeProfiles: flatProfiles,
		})
		assert.Error(t, err, mode)
	}
}

func TestBuildAgentsHeteroKCycles(t *testing.T) {
	agents, err := BuildAgents(SetConfig{
		Type:         TypeSatisficer,
		N:            4,
		Mode:         "k_search",
		HeteroK:      []int{1, 3},
		Seed:         1,
		Params:       quietParams(),
		MakeProfiles: flatProfiles,
	})
	require.NoError(t, err)

	want := []int{1, 3, 1, 3}
	for i, a := range agents {
		rule := a.(*Satisficer).Rule().(KSearchRule)
		assert.Equal(t, want[i], rule.K)
	}
}

func TestBuildAgentsHeteroTauCycles(t *testing.T) {
	agents, err := BuildAgents(SetConfig{
		Type:         TypeSatisficer,
		N:            3,
		Mode:         "band",
		HeteroTau:    []float64{2, 8},
		Seed:         1,
		Params:       quietParams(),
		MakeProfiles: flatProfiles,
	})
	require.NoError(t, err)

	want := []float64{2, 8, 2}
	for i, a := range agents {
		rule := a.(*Satisficer).Rule().(BandRule)
		assert.Equal(t, want[i], rule.TauPercent)
	}
}

func TestBuildAgentsZINeedsNoProfiles(t *testing.T) {
	agents, err := BuildAgents(SetConfig{Type: TypeZI, N: 2, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, "zi", agents[0].Type())
}

func TestBuildAgentsRejectsUnknownType(t *testing.T) {
	_, err := BuildAgents(SetConfig{
		Type:         "daytrader",
		N:            1,
		Seed:         1,
		MakeProfiles: flatProfiles,
	})
	assert.Error(t, err)
}

func TestBuildAgentsRequiresProfiles(t *testing.T) {
	_, err := BuildAgents(SetConfig{Type: TypeOptimizer, N: 1, Seed: 1})
	assert.Error(t, err)
}

func TestBuildAgentsAttachesBatteries(t *testing.T) {
	params := model.DefaultBatteryParams()
	agents, err := BuildAgents(SetConfig{
		Type:              TypeOptimizer,
		N:                 1,
		Seed:              1,
		Params:            quietParams(),
		MakeProfiles:      flatProfiles,
		Battery:           &params,
		BatteryInitialSOC: 0.5,
	})
	require.NoError(t, err)

	o := agents[0].(*Optimizer)
	require.NotNil(t, o.battery)
	assert.InDelta(t, 0.5, o.battery.State.SOC, 1e-9)
}

func TestBuildAgentsRejectsBadBattery(t *testing.T) {
	params := model.DefaultBatteryParams()
	params.CapacityKWh = -1
	_, err := BuildAgents(SetConfig{
		Type:              TypeOptimizer,
		N:                 1,
		Seed:              1,
		Params:            quietParams(),
		MakeProfiles:      flatProfiles,
		Battery:           &params,
		BatteryInitialSOC: 0.5,
	})
	assert.Error(t, err)
}
