package solver

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	DefaultPenalty        = 1e3
	DefaultFeasibilityTol = 1e-6
	defaultMaxIterations  = 50000
	defaultStallIters     = 500
)

// NelderMead solves nonlinear programs with gonum's derivative-free
// Nelder–Mead method on a penalised objective. Box bounds are enforced by
// projection, inequalities by an exact L1 penalty. The result is a local
// optimum; no global optimality is claimed.
type NelderMead struct {
	Penalty        float64
	FeasibilityTol float64
	MaxIterations  int
	// InitialStep is the edge length of the starting simplex. Zero derives it
	// from the finite bound ranges.
	InitialStep float64
}

// SolveNonlinear implements NonlinearSolver. A final point that still breaks
// a constraint by more than FeasibilityTol is reported as infeasible.
func (s NelderMead) SolveNonlinear(p *NonlinearProgram) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{Status: StatusError}, &SolverError{Regime: RegimeNonlinear, Err: err}
	}
	mu := s.Penalty
	if mu <= 0 {
		mu = DefaultPenalty
	}
	tol := s.FeasibilityTol
	if tol <= 0 {
		tol = DefaultFeasibilityTol
	}
	iters := s.MaxIterations
	if iters <= 0 {
		iters = defaultMaxIterations
	}

	project := func(x []float64) []float64 {
		y := clampToBounds(x, p.Bounds)
		if p.Project != nil {
			y = p.Project(y)
		}
		return y
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			y := project(x)
			f := p.Objective(y)
			d := floats.Distance(x, y, 2)
			var viol float64
			for _, g := range p.Inequalities {
				if v := g(y); v < 0 {
					viol -= v
				}
			}
			return f + d*d + mu*viol
		},
	}
	settings := &optimize.Settings{
		MajorIterations: iters,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Iterations: defaultStallIters},
	}
	method := &optimize.NelderMead{SimplexSize: s.step(p.Bounds)}

	res, err := optimize.Minimize(problem, p.Initial, settings, method)
	if err != nil {
		return Solution{Status: StatusError}, &SolverError{Regime: RegimeNonlinear, Err: err}
	}
	x := project(res.X)
	if p.MaxViolation(x) > tol {
		return Solution{Status: StatusInfeasible, Iterations: res.MajorIterations}, nil
	}
	return Solution{
		Status:     StatusOptimal,
		X:          x,
		Objective:  p.Objective(x),
		Iterations: res.MajorIterations,
	}, nil
}

func (s NelderMead) step(bounds []Bound) float64 {
	if s.InitialStep > 0 {
		return s.InitialStep
	}
	var sum float64
	var n int
	for _, b := range bounds {
		r := b.Upper - b.Lower
		if r > 0 && !math.IsInf(r, 0) {
			sum += r
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return 0.25 * sum / float64(n)
}

func clampToBounds(x []float64, bounds []Bound) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = math.Min(math.Max(v, bounds[i].Lower), bounds[i].Upper)
	}
	return y
}
