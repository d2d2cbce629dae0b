package model

import (
	"math"
	"time"
)

// TimeGrid is an ordered sequence of Slots equal-duration time slots.
type TimeGrid struct {
	Slots     int     // number of slots T
	StepHours float64 // slot duration Δt in hours
}

// NewTimeGrid returns a validated grid.
func NewTimeGrid(slots int, step time.Duration) (TimeGrid, error) {
	g := TimeGrid{Slots: slots, StepHours: step.Hours()}
	if err := g.Validate(); err != nil {
		return TimeGrid{}, err
	}
	return g, nil
}

// Validate checks T ≥ 1 and Δt > 0.
func (g TimeGrid) Validate() error {
	if g.Slots < 1 {
		return configErr("grid.slots", "must be at least 1, got %d", g.Slots)
	}
	if !(g.StepHours > 0) || !finite(g.StepHours) {
		return configErr("grid.step_hours", "must be positive, got %v", g.StepHours)
	}
	return nil
}

// StorageAsset describes one controllable storage unit. It is built once from
// configuration and never mutated by the optimizer. Energies are in kWh and
// powers in kW.
type StorageAsset struct {
	ID                  string  `json:"id"`
	SoCMin              float64 `json:"soc_min"`
	SoCMax              float64 `json:"soc_max"`
	InitialSoC          float64 `json:"initial_soc"`
	MaxChargeKW         float64 `json:"max_charge_kw"`
	MaxDischargeKW      float64 `json:"max_discharge_kw"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
}

// Lossless returns a copy with both efficiencies set to 1.
func (a StorageAsset) Lossless() StorageAsset {
	a.ChargeEfficiency = 1
	a.DischargeEfficiency = 1
	return a
}

// WithDefaults fills zero efficiencies with 1.
func (a StorageAsset) WithDefaults() StorageAsset {
	if a.ChargeEfficiency == 0 {
		a.ChargeEfficiency = 1
	}
	if a.DischargeEfficiency == 0 {
		a.DischargeEfficiency = 1
	}
	return a
}

// Frozen reports whether the asset can neither charge nor discharge.
func (a StorageAsset) Frozen() bool {
	return a.MaxChargeKW == 0 && a.MaxDischargeKW == 0
}

// Validate rejects assets the builder must not submit to a solver.
func (a StorageAsset) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"storage.soc_min", a.SoCMin},
		{"storage.soc_max", a.SoCMax},
		{"storage.initial_soc", a.InitialSoC},
		{"storage.max_charge_kw", a.MaxChargeKW},
		{"storage.max_discharge_kw", a.MaxDischargeKW},
	}
	for _, f := range fields {
		if !finite(f.v) {
			return configErr(f.name, "must be finite")
		}
	}
	if a.SoCMin > a.SoCMax {
		return configErr("storage.soc_min", "%v exceeds soc_max %v", a.SoCMin, a.SoCMax)
	}
	if a.InitialSoC < a.SoCMin || a.InitialSoC > a.SoCMax {
		return configErr("storage.initial_soc", "%v outside [%v, %v]", a.InitialSoC, a.SoCMin, a.SoCMax)
	}
	if a.MaxChargeKW < 0 {
		return configErr("storage.max_charge_kw", "must be non-negative")
	}
	if a.MaxDischargeKW < 0 {
		return configErr("storage.max_discharge_kw", "must be non-negative")
	}
	if !(a.ChargeEfficiency > 0 && a.ChargeEfficiency <= 1) {
		return configErr("storage.charge_efficiency", "must be in (0,1], got %v", a.ChargeEfficiency)
	}
	if !(a.DischargeEfficiency > 0 && a.DischargeEfficiency <= 1) {
		return configErr("storage.discharge_efficiency", "must be in (0,1], got %v", a.DischargeEfficiency)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
