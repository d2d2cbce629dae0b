package dispatch

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/dispatchopt/core/model"
)

// ScheduleTol is the tolerance applied to recomputed SoC bounds.
const ScheduleTol = 1e-6

// ErrScheduleDrift indicates that the SoC trajectory rebuilt from solved
// charge/discharge values leaves the asset's bounds.
var ErrScheduleDrift = errors.New("schedule drifted outside bounds")

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// ExtractStorage maps solved values back onto the grid. Charge and discharge
// are clamped to their box bounds to drop solver noise; SoC is recomputed
// with the regime's recurrence rather than read from the solver vector. In
// the lossless regime simultaneous charge and discharge cancel out, so only
// the net flow of each slot is kept.
func ExtractStorage(g model.TimeGrid, a model.StorageAsset, regime Regime, l StorageLayout, in StorageInputs, x []float64) (model.StorageSchedule, error) {
	if len(x) < l.NumVars() {
		return model.StorageSchedule{}, fmt.Errorf("extract: %d values for %d variables", len(x), l.NumVars())
	}
	if regime == RegimeLossless {
		a = a.Lossless()
	}
	s := model.StorageSchedule{
		AssetID:   a.ID,
		StepHours: g.StepHours,
		Slots:     make([]model.SlotDispatch, g.Slots),
	}
	soc := a.InitialSoC
	for t := 0; t < g.Slots; t++ {
		c := clamp(x[l.Charge(t)], 0, a.MaxChargeKW)
		d := clamp(x[l.Discharge(t)], 0, a.MaxDischargeKW)
		if regime == RegimeLossless {
			m := math.Min(c, d)
			c, d = c-m, d-m
		}
		soc = nextSoC(regime, a, g.StepHours, soc, c, d)
		if soc < a.SoCMin-ScheduleTol || soc > a.SoCMax+ScheduleTol {
			return model.StorageSchedule{}, fmt.Errorf("%w: slot %d soc %.6f not in [%v, %v]", ErrScheduleDrift, t, soc, a.SoCMin, a.SoCMax)
		}
		slot := model.SlotDispatch{Slot: t, ChargeKW: c, DischargeKW: d, SoC: soc}
		s.EnergyCharged += c * g.StepHours
		s.EnergyDischarged += d * g.StepHours
		switch regime {
		case RegimeLossless:
			s.Revenue += in.Price.At(t) * (d - c) * g.StepHours
		case RegimeEfficiency:
			slot.GridImportKW = math.Max(gridImport(in, t, c, d), 0)
			s.GridImport += slot.GridImportKW
		}
		s.Slots[t] = slot
	}
	s.FinalSoC = soc
	if regime == RegimeLossless {
		s.Objective = s.Revenue
	} else {
		s.Objective = s.GridImport
	}
	return s, nil
}

// ExtractFleet maps solved outputs onto units and derives cost and
// utilization aggregates.
func ExtractFleet(units []model.GenerationUnit, l FleetLayout, x []float64) (model.FleetSchedule, error) {
	if len(x) < l.NumVars() || len(units) != l.NumVars() {
		return model.FleetSchedule{}, fmt.Errorf("extract: %d values for %d units", len(x), len(units))
	}
	var f model.FleetSchedule
	f.Units = make([]model.UnitDispatch, len(units))
	for i, u := range units {
		out := clamp(x[l.Output(i)], u.MinKW, u.MaxKW)
		ud := model.UnitDispatch{
			ID:        u.ID,
			OutputKW:  out,
			MaxKW:     u.MaxKW,
			Cost:      u.Cost,
			TotalCost: out * u.Cost,
		}
		if u.MaxKW != 0 {
			ud.Utilization = out / u.MaxKW * 100
		}
		f.Units[i] = ud
		f.TotalPower += out
		f.TotalCost += ud.TotalCost
		f.TotalCapacity += u.MaxKW
	}
	if f.TotalPower != 0 {
		f.AverageCost = f.TotalCost / f.TotalPower
	}
	if f.TotalCapacity != 0 {
		f.CapacityUtilization = f.TotalPower / f.TotalCapacity * 100
	}
	return f, nil
}

// fleetScore evaluates the scalarised objective on an extracted schedule.
func fleetScore(units []model.GenerationUnit, w model.Weights, f model.FleetSchedule) float64 {
	capacity, maxCost := fleetNorms(units)
	var score float64
	if w.Load > 0 && capacity != 0 {
		score += w.Load * f.TotalPower / capacity
	}
	if w.Cost > 0 && maxCost != 0 {
		score -= w.Cost * f.TotalCost / maxCost
	}
	return score
}
