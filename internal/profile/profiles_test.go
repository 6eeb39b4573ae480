package profile

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHouseholdLoadDailyTotalInBand(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		load := HouseholdLoadKWh(rng, LoadOptions{})

		require.Len(t, load, 288)
		var total float64
		for _, v := range load {
			assert.GreaterOrEqual(t, v, 0.0)
			total += v
		}
		assert.Greater(t, total, 20.0, "seed %d", seed)
		assert.Less(t, total, 50.0, "seed %d", seed)
	}
}

func TestHouseholdLoadEveningPeakDominates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	load := HouseholdLoadKWh(rng, LoadOptions{NoiseSigma: 1e-9})

	// 19:00 beats 03:00 by construction once jitter is off.
	slotAt := func(hour float64) int { return int(hour * 12) }
	assert.Greater(t, load[slotAt(19)], load[slotAt(3)])
	assert.Greater(t, load[slotAt(8)], load[slotAt(3)])
}

func TestPVProfileRespectsNameplateAndBand(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		nameplate := SamplePVNameplateKW(rng)
		require.GreaterOrEqual(t, nameplate, 3.0)
		require.LessOrEqual(t, nameplate, 10.0)

		pv := PVProfileKWh(nameplate, rng, PVOptions{})
		require.Len(t, pv, 288)

		dtH := 5.0 / 60
		var total float64
		for _, v := range pv {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, nameplate*dtH+1e-9)
			total += v
		}
		// Daily yield within [0.12, 0.20] of nameplate-hours.
		assert.GreaterOrEqual(t, total, 0.12*nameplate*24, "seed %d", seed)
		assert.LessOrEqual(t, total, 0.20*nameplate*24, "seed %d", seed)
	}
}

func TestPVPeaksAtNoon(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pv := PVProfileKWh(5, rng, PVOptions{})

	noon := pv[12*12]
	assert.Greater(t, noon, pv[6*12])
	assert.Greater(t, noon, pv[18*12])
	// Effectively dark at midnight.
	assert.Less(t, pv[0], noon/100)
}

func TestEVChargeDeliversRequestedEnergy(t *testing.T) {
	ev := EVChargeProfileKW(EVOptions{})

	require.Len(t, ev, 288)
	dtH := 5.0 / 60
	var delivered float64
	for i, kw := range ev {
		assert.LessOrEqual(t, kw, 7.2+1e-9)
		delivered += kw * dtH
		if i < 19*12 {
			assert.Zero(t, kw, "slot %d before arrival", i)
		}
	}
	assert.InDelta(t, 10.0, delivered, 1e-9)
}

func TestEVChargeTruncatesAtHorizonEnd(t *testing.T) {
	// Arriving at 23:30 leaves 6 slots: 7.2 kW for 30 min = 3.6 kWh.
	ev := EVChargeProfileKW(EVOptions{ArrivalHour: 23.5, EnergyKWh: 10})

	dtH := 5.0 / 60
	var delivered float64
	for _, kw := range ev {
		delivered += kw * dtH
	}
	assert.InDelta(t, 3.6, delivered, 1e-9)
}

func TestHouseholdDeterministicPerSeed(t *testing.T) {
	opts := DefaultHouseholdOptions()

	a := Household(rand.New(rand.NewSource(11)), opts)
	b := Household(rand.New(rand.NewSource(11)), opts)
	assert.Equal(t, a, b)

	c := Household(rand.New(rand.NewSource(12)), opts)
	assert.NotEqual(t, a.Profiles.LoadKWh[0], c.Profiles.LoadKWh[0])
}

func TestHouseholdOwnershipProbabilities(t *testing.T) {
	opts := DefaultHouseholdOptions()
	opts.PVProbability = 1
	opts.EVProbability = 0

	hp := Household(rand.New(rand.NewSource(5)), opts)
	assert.Greater(t, hp.PVNameplateKW, 0.0)
	assert.NotEmpty(t, hp.Profiles.PVKWh)
	assert.False(t, hp.HasEV)
	assert.Empty(t, hp.Profiles.EVChargeKW)

	opts.PVProbability = 0
	opts.EVProbability = 1
	hp = Household(rand.New(rand.NewSource(5)), opts)
	assert.Zero(t, hp.PVNameplateKW)
	assert.True(t, hp.HasEV)
	assert.NotEmpty(t, hp.Profiles.EVChargeKW)
}

func TestHouseholdHorizonOverride(t *testing.T) {
	opts := DefaultHouseholdOptions().WithHorizon(60, 5)
	opts.PVProbability = 1

	hp := Household(rand.New(rand.NewSource(7)), opts)
	assert.Len(t, hp.Profiles.LoadKWh, 12)
	assert.Len(t, hp.Profiles.PVKWh, 12)
}
