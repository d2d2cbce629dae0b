// Package solver defines the boundary between the dispatch model builders and
// the numerical optimizers. A program is a flat decision vector whose slots are
// declared by the builder; an adapter returns a status and, only when the
// status is optimal, the variable values.
package solver

import (
	"errors"
	"fmt"
)

// Regime selects the mathematical structure handed to a solver.
type Regime int

const (
	RegimeLinear Regime = iota
	RegimeNonlinear
)

func (r Regime) String() string {
	switch r {
	case RegimeLinear:
		return "linear"
	case RegimeNonlinear:
		return "nonlinear"
	default:
		return "unknown"
	}
}

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Sense is the relation of a linear constraint row to its right-hand side.
type Sense int

const (
	EQ Sense = iota
	LE
	GE
)

// Term is one coefficient of a linear constraint row.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is a sparse linear row: Σ Coef·x[Var] (Sense) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Bound is a box bound on one variable. Infinite values leave that side free.
type Bound struct {
	Lower float64
	Upper float64
}

// LinearProgram minimises Objective·x subject to Constraints and Bounds.
type LinearProgram struct {
	NumVars     int
	Objective   []float64
	Constraints []Constraint
	Bounds      []Bound
}

// AddConstraint appends a row and returns its index.
func (p *LinearProgram) AddConstraint(c Constraint) int {
	p.Constraints = append(p.Constraints, c)
	return len(p.Constraints) - 1
}

// Validate checks that dimensions agree and variable indices are in range.
func (p *LinearProgram) Validate() error {
	if p.NumVars <= 0 {
		return errors.New("solver: program has no variables")
	}
	if len(p.Objective) != p.NumVars {
		return fmt.Errorf("solver: objective has %d coefficients for %d variables", len(p.Objective), p.NumVars)
	}
	if len(p.Bounds) != p.NumVars {
		return fmt.Errorf("solver: %d bounds for %d variables", len(p.Bounds), p.NumVars)
	}
	for i, c := range p.Constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= p.NumVars {
				return fmt.Errorf("solver: constraint %d (%s) references variable %d", i, c.Name, t.Var)
			}
		}
	}
	return nil
}

// Value evaluates Objective·x.
func (p *LinearProgram) Value(x []float64) float64 {
	var v float64
	for i, c := range p.Objective {
		v += c * x[i]
	}
	return v
}

// Inequality is a constraint function satisfied when it returns a value ≥ 0.
type Inequality func(x []float64) float64

// NonlinearProgram minimises Objective(x) subject to Inequalities and Bounds,
// starting from Initial. Project, when set, maps any point onto a point that
// satisfies the problem's own structural constraints; adapters evaluate and
// return projected points.
type NonlinearProgram struct {
	NumVars      int
	Objective    func(x []float64) float64
	Inequalities []Inequality
	Bounds       []Bound
	Initial      []float64
	Project      func(x []float64) []float64
}

// Validate checks that dimensions agree.
func (p *NonlinearProgram) Validate() error {
	if p.NumVars <= 0 {
		return errors.New("solver: program has no variables")
	}
	if p.Objective == nil {
		return errors.New("solver: objective is nil")
	}
	if len(p.Bounds) != p.NumVars {
		return fmt.Errorf("solver: %d bounds for %d variables", len(p.Bounds), p.NumVars)
	}
	if len(p.Initial) != p.NumVars {
		return fmt.Errorf("solver: initial guess has %d values for %d variables", len(p.Initial), p.NumVars)
	}
	return nil
}

// MaxViolation returns the largest amount by which x breaks a bound or an
// inequality, or 0 when x is feasible.
func (p *NonlinearProgram) MaxViolation(x []float64) float64 {
	var worst float64
	for i, b := range p.Bounds {
		worst = max(worst, b.Lower-x[i], x[i]-b.Upper)
	}
	for _, g := range p.Inequalities {
		worst = max(worst, -g(x))
	}
	return worst
}

// Solution is what an adapter returns. X and Objective are only meaningful
// when Status is StatusOptimal; callers must check Status first.
type Solution struct {
	Status     Status
	X          []float64
	Objective  float64
	Iterations int
}

// SolverError reports a failure of the adapter itself, as opposed to a
// well-defined infeasible or unbounded outcome.
type SolverError struct {
	Regime Regime
	Err    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%s solver: %v", e.Regime, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// LinearSolver solves linear programs. Infeasible and unbounded programs are
// reported through Solution.Status with a nil error.
type LinearSolver interface {
	SolveLinear(p *LinearProgram) (Solution, error)
}

// NonlinearSolver solves nonlinear programs.
type NonlinearSolver interface {
	SolveNonlinear(p *NonlinearProgram) (Solution, error)
}
