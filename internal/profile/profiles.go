// Package profile synthesizes household time series: a diurnal load with
// morning and evening peaks, a midday PV bell, and an evening EV charge
// block. All draws come from the caller's RNG so a household is fully
// determined by its seed.
package profile

import (
	"math"
	"math/rand"

	"p2p-market-sim/internal/model"
)

const minutesPerDay = 24 * 60

// LoadOptions shapes the household consumption series.
type LoadOptions struct {
	Minutes     int     // horizon, default one day
	StepMinutes int     // default 5
	DailyKWh    float64 // default 30
	HeteroSigma float64 // lognormal household scale, default 0.2
	NoiseSigma  float64 // per-slot multiplicative jitter, default 0.05
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Minutes <= 0 {
		o.Minutes = minutesPerDay
	}
	if o.StepMinutes <= 0 {
		o.StepMinutes = 5
	}
	if o.DailyKWh <= 0 {
		o.DailyKWh = 30
	}
	if o.HeteroSigma <= 0 {
		o.HeteroSigma = 0.2
	}
	if o.NoiseSigma <= 0 {
		o.NoiseSigma = 0.05
	}
	return o
}

// HouseholdLoadKWh draws one household's per-interval consumption. The
// diurnal shape peaks around 08:00 and 19:00 and repeats daily; the
// household scale factor is lognormal, clamped to [0.75, 1.4] so daily
// totals stay within a plausible residential band.
func HouseholdLoadKWh(rng *rand.Rand, opts LoadOptions) []float64 {
	o := opts.withDefaults()
	steps := o.Minutes / o.StepMinutes
	dtH := float64(o.StepMinutes) / 60

	shape := make([]float64, steps)
	var sum float64
	for i := range shape {
		h := math.Mod(float64(i)*dtH, 24)
		v := 0.3 + 0.5*math.Exp(-sq(h-8)/6) + 0.7*math.Exp(-sq(h-19)/6)
		shape[i] = v
		sum += v
	}

	target := o.DailyKWh * float64(o.Minutes) / minutesPerDay
	factor := clamp(math.Exp(rng.NormFloat64()*o.HeteroSigma), 0.75, 1.4)

	out := make([]float64, steps)
	for i, v := range shape {
		x := v / sum * target * factor
		x *= 1 + o.NoiseSigma*rng.NormFloat64()
		if x < 0 {
			x = 0
		}
		out[i] = x
	}
	return out
}

// PVOptions shapes the solar generation series.
type PVOptions struct {
	Minutes        int
	StepMinutes    int
	CapacityFactor float64 // default 0.16
	WeatherSigma   float64 // day-scale output spread, default 0.15
}

func (o PVOptions) withDefaults() PVOptions {
	if o.Minutes <= 0 {
		o.Minutes = minutesPerDay
	}
	if o.StepMinutes <= 0 {
		o.StepMinutes = 5
	}
	if o.CapacityFactor <= 0 {
		o.CapacityFactor = 0.16
	}
	if o.WeatherSigma <= 0 {
		o.WeatherSigma = 0.15
	}
	return o
}

// SamplePVNameplateKW draws a rooftop system size in [3, 10] kW on a
// 0.1 kW grid.
func SamplePVNameplateKW(rng *rand.Rand) float64 {
	kw := 3 + rng.Float64()*7
	return math.Round(kw*10) / 10
}

// PVProfileKWh draws per-interval generation for a system of the given
// nameplate. Output follows a noon bell scaled so the daily total hits
// CapacityFactor * nameplate * 24h times a weather factor clamped to
// [0.8, 1.2]; no slot ever exceeds the nameplate.
func PVProfileKWh(nameplateKW float64, rng *rand.Rand, opts PVOptions) []float64 {
	o := opts.withDefaults()
	steps := o.Minutes / o.StepMinutes
	dtH := float64(o.StepMinutes) / 60

	bell := make([]float64, steps)
	var sum float64
	for i := range bell {
		h := math.Mod(float64(i)*dtH, 24)
		v := math.Exp(-sq(h-12) / 8)
		bell[i] = v
		sum += v
	}

	weather := clamp(1+rng.NormFloat64()*o.WeatherSigma, 0.8, 1.2)
	target := o.CapacityFactor * nameplateKW * 24 * float64(o.Minutes) / minutesPerDay * weather

	out := make([]float64, steps)
	slotCap := nameplateKW * dtH
	for i, v := range bell {
		x := v / sum * target
		if x > slotCap {
			x = slotCap
		}
		out[i] = x
	}
	return out
}

// EVOptions shapes the EV charging series.
type EVOptions struct {
	Minutes     int
	StepMinutes int
	ArrivalHour float64 // default 19:00
	EnergyKWh   float64 // default 10
	CircuitKW   float64 // default 7.2
}

func (o EVOptions) withDefaults() EVOptions {
	if o.Minutes <= 0 {
		o.Minutes = minutesPerDay
	}
	if o.StepMinutes <= 0 {
		o.StepMinutes = 5
	}
	if o.ArrivalHour <= 0 {
		o.ArrivalHour = 19
	}
	if o.EnergyKWh <= 0 {
		o.EnergyKWh = 10
	}
	if o.CircuitKW <= 0 {
		o.CircuitKW = 7.2
	}
	return o
}

// EVChargeProfileKW delivers EnergyKWh starting at ArrivalHour, at the
// circuit rating until the request is met. Values are average kW per
// interval.
func EVChargeProfileKW(opts EVOptions) []float64 {
	o := opts.withDefaults()
	steps := o.Minutes / o.StepMinutes
	dtH := float64(o.StepMinutes) / 60

	out := make([]float64, steps)
	arrival := int(o.ArrivalHour * 60 / float64(o.StepMinutes))
	remaining := o.EnergyKWh
	for i := arrival; i >= 0 && i < steps && remaining > 0; i++ {
		deliver := math.Min(o.CircuitKW*dtH, remaining)
		out[i] = deliver / dtH
		remaining -= deliver
	}
	return out
}

func sq(x float64) float64 { return x * x }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
