package dispatch

import (
	"github.com/kilianp07/dispatchopt/core/model"
	"github.com/kilianp07/dispatchopt/core/solver"
)

// fleetNorms returns Σ max_i and Σ max_i·cost_i, the denominators that make
// the load and cost terms comparable.
func fleetNorms(units []model.GenerationUnit) (capacity, maxCost float64) {
	for _, u := range units {
		capacity += u.MaxKW
		maxCost += u.MaxKW * u.Cost
	}
	return capacity, maxCost
}

// BuildFleet builds the scalarised single-snapshot program
//
//	score = w_load·Σp_i/Σmax_i − w_cost·Σp_i·cost_i/Σ(max_i·cost_i)
//
// maximised over p_i ∈ [min_i, max_i]. Lower bounds may be negative. The
// returned program minimises −score.
func BuildFleet(units []model.GenerationUnit, w model.Weights) (*solver.LinearProgram, FleetLayout, error) {
	if err := model.ValidateFleet(units); err != nil {
		return nil, FleetLayout{}, err
	}
	if err := w.Validate(); err != nil {
		return nil, FleetLayout{}, err
	}
	capacity, maxCost := fleetNorms(units)
	if w.Load > 0 && capacity == 0 {
		return nil, FleetLayout{}, &model.ConfigurationError{Field: "fleet.units", Reason: "total maximum capacity is zero"}
	}
	if w.Cost > 0 && maxCost == 0 {
		return nil, FleetLayout{}, &model.ConfigurationError{Field: "fleet.units", Reason: "total maximum cost is zero"}
	}

	l := FleetLayout{ids: make([]string, len(units))}
	p := &solver.LinearProgram{
		NumVars:   l.NumVars(),
		Objective: make([]float64, l.NumVars()),
		Bounds:    make([]solver.Bound, l.NumVars()),
	}
	for i, u := range units {
		l.ids[i] = u.ID
		var score float64
		if w.Load > 0 {
			score += w.Load / capacity
		}
		if w.Cost > 0 {
			score -= w.Cost * u.Cost / maxCost
		}
		p.Objective[l.Output(i)] = -score
		p.Bounds[l.Output(i)] = solver.Bound{Lower: u.MinKW, Upper: u.MaxKW}
	}
	return p, l, nil
}
