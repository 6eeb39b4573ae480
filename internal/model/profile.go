package model

// ProfileSet bundles one household's per-interval series. Slices may have
// different lengths; indexing past the end of any series reads zero, so a
// household with no EV simply has a nil EVChargeKW.
// Units:
// - LoadKWh, PVKWh: kWh per interval
// - EVChargeKW: average kW over the interval
type ProfileSet struct {
	StepMinutes int
	LoadKWh     []float64
	PVKWh       []float64
	EVChargeKW  []float64
}

// Intervals returns the longest series length.
func (p ProfileSet) Intervals() int {
	n := len(p.LoadKWh)
	if len(p.PVKWh) > n {
		n = len(p.PVKWh)
	}
	if len(p.EVChargeKW) > n {
		n = len(p.EVChargeKW)
	}
	return n
}

// StepHours returns the interval length in hours (5 minutes when unset).
func (p ProfileSet) StepHours() float64 {
	step := p.StepMinutes
	if step <= 0 {
		step = 5
	}
	return float64(step) / 60
}

// NetKWh is the household's net energy position for interval t:
// positive means it must buy, negative means it has surplus to sell.
func (p ProfileSet) NetKWh(t int) float64 {
	return at(p.LoadKWh, t) + at(p.EVChargeKW, t)*p.StepHours() - at(p.PVKWh, t)
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}
