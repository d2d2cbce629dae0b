package dispatch

import (
	"fmt"
	"math"

	"github.com/kilianp07/dispatchopt/core/model"
	"github.com/kilianp07/dispatchopt/core/solver"
)

// StorageInputs bundles the exogenous series of one storage run. The lossless
// regime reads Price; the efficiency regime reads Demand and Generation.
type StorageInputs struct {
	Price      model.ExogenousSignal
	Demand     model.ExogenousSignal
	Generation model.ExogenousSignal
}

// nextSoC applies the regime's state-continuity equation for one slot.
func nextSoC(regime Regime, a model.StorageAsset, stepHours, prev, charge, discharge float64) float64 {
	if regime == RegimeLossless {
		return prev + charge - discharge
	}
	return prev + (charge*a.ChargeEfficiency-discharge/a.DischargeEfficiency)*stepHours
}

// gridImport is demand not covered by generation and net battery output.
func gridImport(in StorageInputs, t int, charge, discharge float64) float64 {
	return in.Demand.At(t) - (in.Generation.At(t) + discharge - charge)
}

func validateStorage(g model.TimeGrid, a model.StorageAsset, signals ...model.ExogenousSignal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	for _, s := range signals {
		if err := s.Validate(g); err != nil {
			return err
		}
	}
	return nil
}

func storageBounds(l StorageLayout, a model.StorageAsset) []solver.Bound {
	b := make([]solver.Bound, l.NumVars())
	for t := 0; t < l.slots; t++ {
		b[l.Charge(t)] = solver.Bound{Lower: 0, Upper: a.MaxChargeKW}
		b[l.Discharge(t)] = solver.Bound{Lower: 0, Upper: a.MaxDischargeKW}
		if l.hasSoC {
			b[l.SoC(t)] = solver.Bound{Lower: a.SoCMin, Upper: a.SoCMax}
		}
		if l.hasSlack {
			b[l.Slack(t)] = solver.Bound{Lower: 0, Upper: math.Inf(1)}
		}
	}
	return b
}

// continuity adds soc_t − soc_{t−1} − kc·charge_t + kd·discharge_t = 0 for
// every slot, with soc_{−1} moved to the right-hand side as the initial SoC.
func continuity(p *solver.LinearProgram, l StorageLayout, a model.StorageAsset, kc, kd float64) {
	for t := 0; t < l.slots; t++ {
		terms := []solver.Term{
			{Var: l.SoC(t), Coef: 1},
			{Var: l.Charge(t), Coef: -kc},
			{Var: l.Discharge(t), Coef: kd},
		}
		rhs := 0.0
		if t == 0 {
			rhs = a.InitialSoC
		} else {
			terms = append(terms, solver.Term{Var: l.SoC(t - 1), Coef: -1})
		}
		p.AddConstraint(solver.Constraint{
			Name:  fmt.Sprintf("soc_balance_%d", t),
			Terms: terms,
			Sense: solver.EQ,
			RHS:   rhs,
		})
	}
}

// BuildLossless builds the arbitrage linear program: maximise
// Σ price_t·(discharge_t − charge_t)·Δt subject to exact SoC balance. The
// program minimises the negated revenue.
func BuildLossless(g model.TimeGrid, a model.StorageAsset, price model.ExogenousSignal) (*solver.LinearProgram, StorageLayout, error) {
	a = a.Lossless()
	if err := validateStorage(g, a, price); err != nil {
		return nil, StorageLayout{}, err
	}
	l := StorageLayout{slots: g.Slots, hasSoC: true}
	p := &solver.LinearProgram{
		NumVars:   l.NumVars(),
		Objective: make([]float64, l.NumVars()),
		Bounds:    storageBounds(l, a),
	}
	for t := 0; t < g.Slots; t++ {
		w := price.At(t) * g.StepHours
		p.Objective[l.Charge(t)] = w
		p.Objective[l.Discharge(t)] = -w
	}
	continuity(p, l, a, 1, 1)
	return p, l, nil
}

// BuildEfficiencyLP builds the smooth reformulation of the efficiency regime:
// minimise Σ u_t with u_t ≥ 0 and u_t ≥ demand_t − generation_t −
// discharge_t + charge_t.
func BuildEfficiencyLP(g model.TimeGrid, a model.StorageAsset, in StorageInputs) (*solver.LinearProgram, StorageLayout, error) {
	if err := validateStorage(g, a, in.Demand, in.Generation); err != nil {
		return nil, StorageLayout{}, err
	}
	l := StorageLayout{slots: g.Slots, hasSoC: true, hasSlack: true}
	p := &solver.LinearProgram{
		NumVars:   l.NumVars(),
		Objective: make([]float64, l.NumVars()),
		Bounds:    storageBounds(l, a),
	}
	for t := 0; t < g.Slots; t++ {
		p.Objective[l.Slack(t)] = 1
	}
	continuity(p, l, a, a.ChargeEfficiency*g.StepHours, g.StepHours/a.DischargeEfficiency)
	for t := 0; t < g.Slots; t++ {
		p.AddConstraint(solver.Constraint{
			Name: fmt.Sprintf("grid_import_%d", t),
			Terms: []solver.Term{
				{Var: l.Charge(t), Coef: 1},
				{Var: l.Discharge(t), Coef: -1},
				{Var: l.Slack(t), Coef: -1},
			},
			Sense: solver.LE,
			RHS:   in.Generation.At(t) - in.Demand.At(t),
		})
	}
	return p, l, nil
}

// BuildEfficiencyNLP builds the non-smooth efficiency program over
// [charge…, discharge…]. SoC is derived from the recurrence and every bound
// is also expressed as an inequality g(x) ≥ 0. The projection repairs a point
// so that SoC stays within bounds slot by slot.
func BuildEfficiencyNLP(g model.TimeGrid, a model.StorageAsset, in StorageInputs) (*solver.NonlinearProgram, StorageLayout, error) {
	if err := validateStorage(g, a, in.Demand, in.Generation); err != nil {
		return nil, StorageLayout{}, err
	}
	l := StorageLayout{slots: g.Slots}
	step := g.StepHours

	socAt := func(x []float64, t int) float64 {
		soc := a.InitialSoC
		for k := 0; k <= t; k++ {
			soc = nextSoC(RegimeEfficiency, a, step, soc, x[l.Charge(k)], x[l.Discharge(k)])
		}
		return soc
	}

	ineq := make([]solver.Inequality, 0, 6*g.Slots)
	for t := 0; t < g.Slots; t++ {
		ci, di := l.Charge(t), l.Discharge(t)
		ineq = append(ineq,
			func(x []float64) float64 { return x[ci] },
			func(x []float64) float64 { return a.MaxChargeKW - x[ci] },
			func(x []float64) float64 { return x[di] },
			func(x []float64) float64 { return a.MaxDischargeKW - x[di] },
			func(x []float64) float64 { return socAt(x, t) - a.SoCMin },
			func(x []float64) float64 { return a.SoCMax - socAt(x, t) },
		)
	}

	p := &solver.NonlinearProgram{
		NumVars: l.NumVars(),
		Objective: func(x []float64) float64 {
			var total float64
			for t := 0; t < l.slots; t++ {
				total += math.Max(gridImport(in, t, x[l.Charge(t)], x[l.Discharge(t)]), 0)
			}
			return total
		},
		Inequalities: ineq,
		Bounds:       storageBounds(l, a),
		Initial:      make([]float64, l.NumVars()),
		Project: func(x []float64) []float64 {
			return repairSoC(l, a, step, x)
		},
	}
	return p, l, nil
}

// repairSoC walks the slots and trims charge or discharge so that the SoC
// trajectory never leaves [SoCMin, SoCMax]. x must already respect the power
// box bounds.
func repairSoC(l StorageLayout, a model.StorageAsset, step float64, x []float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	soc := a.InitialSoC
	for t := 0; t < l.slots; t++ {
		ci, di := l.Charge(t), l.Discharge(t)
		next := nextSoC(RegimeEfficiency, a, step, soc, y[ci], y[di])
		if next > a.SoCMax {
			y[ci] = math.Max(y[ci]-(next-a.SoCMax)/(a.ChargeEfficiency*step), 0)
		} else if next < a.SoCMin {
			y[di] = math.Max(y[di]-(a.SoCMin-next)*a.DischargeEfficiency/step, 0)
		}
		soc = nextSoC(RegimeEfficiency, a, step, soc, y[ci], y[di])
	}
	return y
}
