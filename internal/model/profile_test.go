package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileSetNetKWh(t *testing.T) {
	p := ProfileSet{
		StepMinutes: 5,
		LoadKWh:     []float64{1.0, 0.2},
		PVKWh:       []float64{0.2, 1.0},
	}
	assert.InDelta(t, 0.8, p.NetKWh(0), 1e-9)
	assert.InDelta(t, -0.8, p.NetKWh(1), 1e-9)
	assert.Zero(t, p.NetKWh(2))
	assert.Zero(t, p.NetKWh(-1))
}

func TestProfileSetEVContribution(t *testing.T) {
	p := ProfileSet{
		StepMinutes: 5,
		LoadKWh:     []float64{0.5},
		EVChargeKW:  []float64{7.2},
	}
	// 7.2 kW over 5 minutes adds 0.6 kWh of demand.
	assert.InDelta(t, 0.5+0.6, p.NetKWh(0), 1e-9)
}

func TestProfileSetDefaults(t *testing.T) {
	p := ProfileSet{}
	assert.InDelta(t, 5.0/60, p.StepHours(), 1e-12)
	assert.Zero(t, p.Intervals())

	p = ProfileSet{LoadKWh: make([]float64, 4), PVKWh: make([]float64, 7)}
	assert.Equal(t, 7, p.Intervals())
}
