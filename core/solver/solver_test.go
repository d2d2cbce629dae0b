package solver

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var nonNeg = Bound{Lower: 0, Upper: math.Inf(1)}

func TestSimplex_Optimal(t *testing.T) {
	// max x + y  s.t.  x + 2y ≤ 4, 3x + y ≤ 6
	p := &LinearProgram{
		NumVars:   2,
		Objective: []float64{-1, -1},
		Bounds:    []Bound{nonNeg, nonNeg},
	}
	p.AddConstraint(Constraint{Name: "c1", Terms: []Term{{0, 1}, {1, 2}}, Sense: LE, RHS: 4})
	p.AddConstraint(Constraint{Name: "c2", Terms: []Term{{0, 3}, {1, 1}}, Sense: LE, RHS: 6})

	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1.6, sol.X[0], 1e-6)
	assert.InDelta(t, 1.2, sol.X[1], 1e-6)
	assert.InDelta(t, -2.8, sol.Objective, 1e-6)
}

func TestSimplex_NegativeValues(t *testing.T) {
	p := &LinearProgram{
		NumVars:   2,
		Objective: []float64{1, 0},
		Bounds:    []Bound{{-10, 10}, {-5, 5}},
	}
	p.AddConstraint(Constraint{Terms: []Term{{0, 1}, {1, -1}}, Sense: EQ, RHS: -3})
	p.AddConstraint(Constraint{Terms: []Term{{1, 1}}, Sense: GE, RHS: 1})

	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, -2, sol.X[0], 1e-6)
	assert.InDelta(t, 1, sol.X[1], 1e-6)
}

func TestSimplex_Infeasible(t *testing.T) {
	p := &LinearProgram{NumVars: 1, Objective: []float64{1}, Bounds: []Bound{nonNeg}}
	p.AddConstraint(Constraint{Terms: []Term{{0, 1}}, Sense: LE, RHS: 1})
	p.AddConstraint(Constraint{Terms: []Term{{0, 1}}, Sense: GE, RHS: 2})

	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Nil(t, sol.X)
}

func TestSimplex_Unbounded(t *testing.T) {
	p := &LinearProgram{NumVars: 1, Objective: []float64{-1}, Bounds: []Bound{nonNeg}}

	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	assert.Equal(t, StatusUnbounded, sol.Status)
}

func TestSimplex_IterationLimit(t *testing.T) {
	p := &LinearProgram{
		NumVars:   2,
		Objective: []float64{-1, -1},
		Bounds:    []Bound{nonNeg, nonNeg},
	}
	p.AddConstraint(Constraint{Terms: []Term{{0, 1}, {1, 2}}, Sense: LE, RHS: 4})
	p.AddConstraint(Constraint{Terms: []Term{{0, 3}, {1, 1}}, Sense: LE, RHS: 6})

	sol, err := Simplex{MaxIterations: 1}.SolveLinear(p)
	assert.Equal(t, StatusError, sol.Status)
	var serr *SolverError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, RegimeLinear, serr.Regime)
	assert.ErrorIs(t, err, ErrIterationLimit)
}

func TestSimplex_BoundsWithoutRows(t *testing.T) {
	// Only bound flips are needed: bounds never become rows.
	p := &LinearProgram{
		NumVars:   4,
		Objective: []float64{-1, 2, -0.5, -3},
		Bounds: []Bound{
			{Lower: -500, Upper: 500},
			{Lower: -2, Upper: 7},
			{Lower: math.Inf(-1), Upper: 3},
			{Lower: 1, Upper: 1},
		},
	}
	tab, ok := standardForm(p)
	require.True(t, ok)
	assert.Zero(t, tab.m)

	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDeltaSlice(t, []float64{500, -2, 3, 1}, sol.X, 1e-9)
	assert.Equal(t, 1, sol.Iterations)
}

func TestSimplex_FreeAndUpperOnlyVariables(t *testing.T) {
	// min x − y  s.t.  x + y = 2, x free, y ≤ 5
	p := &LinearProgram{
		NumVars:   2,
		Objective: []float64{1, -1},
		Bounds:    []Bound{{math.Inf(-1), math.Inf(1)}, {math.Inf(-1), 5}},
	}
	p.AddConstraint(Constraint{Terms: []Term{{0, 1}, {1, 1}}, Sense: EQ, RHS: 2})
	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, -3, sol.X[0], 1e-9)
	assert.InDelta(t, 5, sol.X[1], 1e-9)
}

func TestSimplex_InvertedBounds(t *testing.T) {
	p := &LinearProgram{NumVars: 1, Objective: []float64{1}, Bounds: []Bound{{2, 1}}}
	sol, err := Simplex{}.SolveLinear(p)
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
}

// gonumOptimum solves the same program through lp.Convert and lp.Simplex,
// adding every finite bound as an inequality row.
func gonumOptimum(t *testing.T, p *LinearProgram) float64 {
	t.Helper()
	var rows [][]float64
	var h []float64
	add := func(r []float64, rhs float64) {
		rows = append(rows, r)
		h = append(h, rhs)
	}
	for _, c := range p.Constraints {
		r := make([]float64, p.NumVars)
		for _, term := range c.Terms {
			r[term.Var] += term.Coef
		}
		require.Equal(t, LE, c.Sense)
		add(r, c.RHS)
	}
	for i, b := range p.Bounds {
		up := make([]float64, p.NumVars)
		up[i] = 1
		add(up, b.Upper)
		lo := make([]float64, p.NumVars)
		lo[i] = -1
		add(lo, -b.Lower)
	}
	g := mat.NewDense(len(rows), p.NumVars, nil)
	for i, r := range rows {
		g.SetRow(i, r)
	}
	c := make([]float64, p.NumVars)
	copy(c, p.Objective)
	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	opt, _, err := lp.Simplex(cStd, aStd, bStd, 1e-10, nil)
	require.NoError(t, err)
	return opt
}

func TestSimplex_AgreesWithGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 17))
	for trial := 0; trial < 20; trial++ {
		n, m := 2+rng.IntN(4), 1+rng.IntN(4)
		p := &LinearProgram{NumVars: n, Objective: make([]float64, n), Bounds: make([]Bound, n)}
		for j := 0; j < n; j++ {
			p.Objective[j] = rng.Float64()*4 - 3
			lo := rng.Float64()*2 - 1
			p.Bounds[j] = Bound{Lower: lo, Upper: lo + 1 + rng.Float64()*5}
		}
		for i := 0; i < m; i++ {
			var terms []Term
			var atLower float64
			for j := 0; j < n; j++ {
				coef := rng.Float64()*2 - 0.5
				terms = append(terms, Term{Var: j, Coef: coef})
				atLower += coef * p.Bounds[j].Lower
			}
			// The lower corner stays feasible so both solvers reach an optimum.
			p.AddConstraint(Constraint{Terms: terms, Sense: LE, RHS: atLower + 1 + rng.Float64()*3})
		}

		sol, err := Simplex{}.SolveLinear(p)
		require.NoError(t, err, "trial %d", trial)
		require.Equal(t, StatusOptimal, sol.Status, "trial %d", trial)
		assert.InDelta(t, gonumOptimum(t, p), sol.Objective, 1e-6, "trial %d", trial)
	}
}

func TestLinearProgramValidate(t *testing.T) {
	cases := []*LinearProgram{
		{},
		{NumVars: 2, Objective: []float64{1}, Bounds: []Bound{nonNeg, nonNeg}},
		{NumVars: 1, Objective: []float64{1}},
		{NumVars: 1, Objective: []float64{1}, Bounds: []Bound{nonNeg},
			Constraints: []Constraint{{Name: "bad", Terms: []Term{{3, 1}}}}},
	}
	for i, p := range cases {
		assert.Error(t, p.Validate(), "case %d", i)
		sol, err := Simplex{}.SolveLinear(p)
		assert.Equal(t, StatusError, sol.Status)
		assert.Error(t, err)
	}
}

func TestNelderMead_BoundProjection(t *testing.T) {
	p := &NonlinearProgram{
		NumVars:   1,
		Objective: func(x []float64) float64 { return (x[0] - 3) * (x[0] - 3) },
		Bounds:    []Bound{{0, 2}},
		Initial:   []float64{0},
	}
	sol, err := NelderMead{}.SolveNonlinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 2, sol.X[0], 1e-3)
	assert.LessOrEqual(t, sol.X[0], 2.0)
	assert.InDelta(t, 1, sol.Objective, 1e-2)
}

func TestNelderMead_InactiveInequality(t *testing.T) {
	p := &NonlinearProgram{
		NumVars: 2,
		Objective: func(x []float64) float64 {
			return (x[0]-1)*(x[0]-1) + (x[1]-1)*(x[1]-1)
		},
		Inequalities: []Inequality{func(x []float64) float64 { return 5 - x[0] - x[1] }},
		Bounds:       []Bound{{-10, 10}, {-10, 10}},
		Initial:      []float64{0, 0},
	}
	sol, err := NelderMead{}.SolveNonlinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 1, sol.X[0], 1e-3)
	assert.InDelta(t, 1, sol.X[1], 1e-3)
}

func TestNelderMead_ProjectionHook(t *testing.T) {
	called := false
	p := &NonlinearProgram{
		NumVars:   1,
		Objective: func(x []float64) float64 { return -x[0] },
		Bounds:    []Bound{{0, 10}},
		Initial:   []float64{0},
		Project: func(x []float64) []float64 {
			called = true
			return []float64{math.Min(x[0], 4)}
		},
	}
	sol, err := NelderMead{}.SolveNonlinear(p)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	assert.True(t, called)
	assert.LessOrEqual(t, sol.X[0], 4.0)
	assert.InDelta(t, -4, sol.Objective, 1e-3)
}

func TestNelderMead_InvalidProgram(t *testing.T) {
	sol, err := NelderMead{}.SolveNonlinear(&NonlinearProgram{NumVars: 1, Bounds: []Bound{{0, 1}}, Initial: []float64{0}})
	assert.Equal(t, StatusError, sol.Status)
	var serr *SolverError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, RegimeNonlinear, serr.Regime)
}

func TestMaxViolation(t *testing.T) {
	p := &NonlinearProgram{
		NumVars:      2,
		Bounds:       []Bound{{0, 1}, {0, 1}},
		Inequalities: []Inequality{func(x []float64) float64 { return 1 - x[0] - x[1] }},
	}
	assert.Equal(t, 0.0, p.MaxViolation([]float64{0.5, 0.5}))
	assert.InDelta(t, 0.5, p.MaxViolation([]float64{1.5, 0}), 1e-12)
	assert.InDelta(t, 0.6, p.MaxViolation([]float64{0.8, 0.8}), 1e-12)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "optimal", StatusOptimal.String())
	assert.Equal(t, "infeasible", StatusInfeasible.String())
	assert.Equal(t, "unbounded", StatusUnbounded.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "linear", RegimeLinear.String())
	assert.Equal(t, "nonlinear", RegimeNonlinear.String())
}
