package profile

import (
	"math/rand"

	"p2p-market-sim/internal/model"
)

// HouseholdOptions bundles the per-series options with the ownership
// probabilities. Build from DefaultHouseholdOptions and override.
type HouseholdOptions struct {
	Load LoadOptions
	PV   PVOptions
	EV   EVOptions

	PVProbability float64
	EVProbability float64
}

// DefaultHouseholdOptions: 70% of households have rooftop PV, 30% an EV.
func DefaultHouseholdOptions() HouseholdOptions {
	return HouseholdOptions{
		PVProbability: 0.7,
		EVProbability: 0.3,
	}
}

// WithHorizon sets all three series to the same horizon.
func (o HouseholdOptions) WithHorizon(minutes, stepMinutes int) HouseholdOptions {
	o.Load.Minutes = minutes
	o.Load.StepMinutes = stepMinutes
	o.PV.Minutes = minutes
	o.PV.StepMinutes = stepMinutes
	o.EV.Minutes = minutes
	o.EV.StepMinutes = stepMinutes
	return o
}

// householdSalt offsets household draws from quote-noise streams that
// reuse the same per-agent seed derivation.
const householdSalt = 7919

// HouseholdSeed derives household i's RNG seed from a base seed. Runs
// and stored datasets share this derivation, so a dataset generated
// from a seed holds the same households a run with that seed builds.
func HouseholdSeed(base int64, i int) int64 {
	return (base*1000003+int64(i))&0x7FFFFFFF + householdSalt
}

// HouseholdProfile is one synthesized household.
type HouseholdProfile struct {
	Profiles      model.ProfileSet
	PVNameplateKW float64 // zero when the household has no PV
	HasEV         bool
}

// Household draws one full household. The draw order is fixed (load, PV
// ownership, PV size and series, EV ownership and series) so a seed pins
// the whole household.
func Household(rng *rand.Rand, opts HouseholdOptions) HouseholdProfile {
	step := opts.Load.withDefaults().StepMinutes

	hp := HouseholdProfile{
		Profiles: model.ProfileSet{
			StepMinutes: step,
			LoadKWh:     HouseholdLoadKWh(rng, opts.Load),
		},
	}
	if rng.Float64() < opts.PVProbability {
		hp.PVNameplateKW = SamplePVNameplateKW(rng)
		hp.Profiles.PVKWh = PVProfileKWh(hp.PVNameplateKW, rng, opts.PV)
	}
	if rng.Float64() < opts.EVProbability {
		hp.HasEV = true
		ev := opts.EV
		// Spread arrivals over the evening and vary the charge request.
		ev.ArrivalHour = 17.5 + rng.Float64()*3
		ev.EnergyKWh = 6 + rng.Float64()*6
		hp.Profiles.EVChargeKW = EVChargeProfileKW(ev)
	}
	return hp
}
