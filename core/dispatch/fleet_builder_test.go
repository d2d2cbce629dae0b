package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dispatchopt/core/model"
	"github.com/kilianp07/dispatchopt/core/solver"
)

func solveFleet(t *testing.T, units []model.GenerationUnit, w model.Weights) model.FleetSchedule {
	t.Helper()
	p, l, err := BuildFleet(units, w)
	require.NoError(t, err)
	sol, err := solver.Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	require.Equal(t, solver.StatusOptimal, sol.Status)
	f, err := ExtractFleet(units, l, sol.X)
	require.NoError(t, err)
	return f
}

func TestFleet_CostOnlyIdlesUnits(t *testing.T) {
	units := []model.GenerationUnit{
		{ID: "A", MinKW: 0, MaxKW: 10, Cost: 5},
		{ID: "B", MinKW: 0, MaxKW: 10, Cost: 1},
	}
	f := solveFleet(t, units, model.Weights{Load: 0, Cost: 1})
	out := f.Outputs()
	assert.InDelta(t, 0, out["A"], 1e-9)
	assert.InDelta(t, 0, out["B"], 1e-9)
	assert.InDelta(t, 0, f.TotalCost, 1e-9)
}

func TestFleet_LoadOnlyRunsFlatOut(t *testing.T) {
	units := []model.GenerationUnit{
		{ID: "A", MinKW: 2, MaxKW: 10, Cost: 5},
		{ID: "B", MinKW: 1, MaxKW: 4, Cost: 1},
	}
	f := solveFleet(t, units, model.Weights{Load: 1, Cost: 0})
	assert.InDelta(t, 14, f.TotalPower, 1e-9)
	assert.InDelta(t, 54, f.TotalCost, 1e-9)
	assert.InDelta(t, 100, f.CapacityUtilization, 1e-9)
	for _, u := range f.Units {
		assert.InDelta(t, 100, u.Utilization, 1e-9)
	}
}

// Each unit sits at a bound picked by the sign of its objective coefficient.
func TestFleet_DefaultPlantsBoundSelection(t *testing.T) {
	tests := []struct {
		name string
		w    model.Weights
		p20  float64
	}{
		{"load heavy", DefaultWeights, 500},
		{"cost heavy", model.Weights{Load: 0.3, Cost: 0.7}, -500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := DefaultPlants()
			capacity, maxCost := fleetNorms(units)
			f := solveFleet(t, units, tt.w)

			for i, u := range units {
				coef := tt.w.Load/capacity - tt.w.Cost*u.Cost/maxCost
				want := u.MinKW
				if coef > 0 {
					want = u.MaxKW
				}
				assert.InDelta(t, want, f.Units[i].OutputKW, 1e-6, "unit %s", u.ID)
			}
			assert.InDelta(t, tt.p20, f.Outputs()["P20"], 1e-6)

			var power, cost float64
			for _, u := range f.Units {
				power += u.OutputKW
				cost += u.TotalCost
			}
			assert.InDelta(t, power, f.TotalPower, 1e-9)
			assert.InDelta(t, cost, f.TotalCost, 1e-9)
			assert.InDelta(t, f.TotalCost/f.TotalPower, f.AverageCost, 1e-9)
		})
	}
}

func TestFleet_ScoreMatchesSolverObjective(t *testing.T) {
	units := DefaultPlants()
	p, l, err := BuildFleet(units, DefaultWeights)
	require.NoError(t, err)
	sol, err := solver.Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	f, err := ExtractFleet(units, l, sol.X)
	require.NoError(t, err)
	assert.InDelta(t, -sol.Objective, fleetScore(units, DefaultWeights, f), 1e-9)
}

func TestBuildFleet_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		units []model.GenerationUnit
		w     model.Weights
	}{
		{"empty", nil, DefaultWeights},
		{"duplicate ids", []model.GenerationUnit{{ID: "a", MaxKW: 1}, {ID: "a", MaxKW: 2}}, DefaultWeights},
		{"min above max", []model.GenerationUnit{{ID: "a", MinKW: 3, MaxKW: 1}}, DefaultWeights},
		{"negative weight", []model.GenerationUnit{{ID: "a", MaxKW: 1}}, model.Weights{Load: -1}},
		{"zero cost norm", []model.GenerationUnit{{ID: "a", MaxKW: 1, Cost: 0}}, model.Weights{Cost: 1}},
		{"zero capacity", []model.GenerationUnit{{ID: "a", MinKW: -1, MaxKW: 0}}, model.Weights{Load: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := BuildFleet(tt.units, tt.w)
			assert.ErrorIs(t, err, model.ErrInvalidConfig)
		})
	}
}
