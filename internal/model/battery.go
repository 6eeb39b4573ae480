package model

import (
	"errors"
	"math"
)

// BatteryParams defines the physical parameters of a household battery.
// Units:
// - CapacityKWh: kWh
// - PowerKW: kW, shared limit for charging and discharging
// - RoundTripEfficiency: 0..1, split evenly between the charge and
//   discharge legs (each leg runs at sqrt of the round-trip value)
// - MinSOC: fraction 0..1 held back as reserve
type BatteryParams struct {
	CapacityKWh         float64
	PowerKW             float64
	RoundTripEfficiency float64
	MinSOC              float64
}

// DefaultBatteryParams mirrors a common residential unit (13.5 kWh / 5 kW).
func DefaultBatteryParams() BatteryParams {
	return BatteryParams{
		CapacityKWh:         13.5,
		PowerKW:             5.0,
		RoundTripEfficiency: 0.90,
		MinSOC:              0.10,
	}
}

// BatteryState captures mutable state.
type BatteryState struct {
	// SOC is the state of charge as a fraction [0,1].
	SOC float64
}

// Battery is a convenience wrapper bundling params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

func NewBattery(params BatteryParams, initialSOC float64) (*Battery, error) {
	b := &Battery{
		Params: params,
		State:  BatteryState{SOC: initialSOC},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Battery) Validate() error {
	p := b.Params
	if p.CapacityKWh <= 0 {
		return errors.New("CapacityKWh must be > 0")
	}
	if p.PowerKW <= 0 {
		return errors.New("PowerKW must be > 0")
	}
	if p.RoundTripEfficiency <= 0 || p.RoundTripEfficiency > 1 {
		return errors.New("RoundTripEfficiency must be in (0, 1]")
	}
	if p.MinSOC < 0 || p.MinSOC > 1 {
		return errors.New("MinSOC must be in [0, 1]")
	}
	if b.State.SOC < p.MinSOC || b.State.SOC > 1 {
		return errors.New("initial SOC must be within [MinSOC, 1]")
	}
	return nil
}

// BatteryFlows captures what happened in one battery step.
// Energy values are storage-side: EnergyInKWh is what landed in the cells
// after charge losses, EnergyOutKWh is what left the cells before
// discharge losses.
type BatteryFlows struct {
	ChargeKW     float64 // realized charge power (may be clipped)
	DischargeKW  float64 // realized discharge power (may be clipped)
	EnergyInKWh  float64
	EnergyOutKWh float64
	LossKWh      float64
	SOC          float64 // state of charge after the step
}

// Step advances the battery by one interval of dtHours given requested
// charge and discharge power at the meter. Requests are clipped by the
// power rating, by headroom to full, and by the MinSOC reserve. If both
// requests are positive the larger one wins (charge on ties).
func (b *Battery) Step(chargeKW, dischargeKW, dtHours float64) (BatteryFlows, error) {
	if chargeKW < 0 || dischargeKW < 0 {
		return BatteryFlows{}, errors.New("charge and discharge power must be >= 0")
	}
	if dtHours <= 0 {
		return BatteryFlows{}, errors.New("dtHours must be > 0")
	}

	if chargeKW > 0 && dischargeKW > 0 {
		if dischargeKW > chargeKW {
			chargeKW = 0
		} else {
			dischargeKW = 0
		}
	}
	chargeKW = math.Min(chargeKW, b.Params.PowerKW)
	dischargeKW = math.Min(dischargeKW, b.Params.PowerKW)

	etaLeg := math.Sqrt(b.Params.RoundTripEfficiency)
	stored := b.State.SOC * b.Params.CapacityKWh

	// Charging: meter energy shrinks by the charge-leg efficiency before
	// it lands in the cells, and headroom to full caps it.
	room := (1 - b.State.SOC) * b.Params.CapacityKWh
	energyIn := math.Min(chargeKW*dtHours*etaLeg, room)
	chargeActual := energyIn / (dtHours * etaLeg)
	lossCharge := chargeActual*dtHours - energyIn
	stored += energyIn

	// Discharging: the cells must supply more than the meter sees, and
	// the MinSOC reserve caps what may leave.
	available := math.Max(0, stored-b.Params.MinSOC*b.Params.CapacityKWh)
	energyOut := math.Min(dischargeKW*dtHours/etaLeg, available)
	dischargeActual := energyOut * etaLeg / dtHours
	lossDischarge := energyOut - dischargeActual*dtHours
	stored -= energyOut

	b.State.SOC = math.Min(1, math.Max(b.Params.MinSOC, stored/b.Params.CapacityKWh))

	return BatteryFlows{
		ChargeKW:     chargeActual,
		DischargeKW:  dischargeActual,
		EnergyInKWh:  energyIn,
		EnergyOutKWh: energyOut,
		LossKWh:      lossCharge + lossDischarge,
		SOC:          b.State.SOC,
	}, nil
}
