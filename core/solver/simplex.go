package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSimplexTol is the optimality tolerance on reduced costs.
const DefaultSimplexTol = 1e-9

const (
	pivotTol = 1e-9
	feasTol  = 1e-7
	// blandAfter is the number of consecutive degenerate pivots after which
	// entering and leaving columns are chosen by Bland's rule.
	blandAfter = 50
)

// ErrIterationLimit is wrapped in a SolverError when the pivot budget runs out.
var ErrIterationLimit = errors.New("simplex: iteration limit reached")

// Simplex solves linear programs with a bounded-variable primal simplex over
// a dense gonum tableau. Finite lower bounds shift variables to zero and
// finite upper bounds stay implicit, so box bounds never become rows. A first
// phase over artificial variables finds a feasible basis.
type Simplex struct {
	Tol float64
	// MaxIterations caps pivots and bound flips over both phases. Zero
	// selects 50·(rows+columns).
	MaxIterations int
}

// column is one non-negative tableau variable y. Structural columns map back
// through x[src] = shift[src] + sign·y.
type column struct {
	src        int
	sign       float64
	artificial bool
}

type tableau struct {
	m, n    int
	a       *mat.Dense // B⁻¹A
	beta    []float64  // values of the basic columns, by row
	upper   []float64
	atUpper []bool
	basis   []int // basic column of each row
	row     []int // row of each basic column, -1 when nonbasic
	cost    []float64
	d       []float64 // reduced costs
	cols    []column
	shift   []float64
	scale   float64 // largest right-hand side, at least 1
	iters   int
	limit   int
}

// SolveLinear implements LinearSolver.
func (s Simplex) SolveLinear(p *LinearProgram) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{Status: StatusError}, &SolverError{Regime: RegimeLinear, Err: err}
	}
	tol := s.Tol
	if tol <= 0 {
		tol = DefaultSimplexTol
	}
	t, ok := standardForm(p)
	if !ok {
		return Solution{Status: StatusInfeasible}, nil
	}
	t.limit = s.MaxIterations
	if t.limit <= 0 {
		t.limit = 50 * (t.m + t.n)
	}

	if t.hasArtificial() {
		for j, c := range t.cols {
			if c.artificial {
				t.cost[j] = 1
			}
		}
		t.price()
		if _, err := t.run(tol); err != nil {
			return Solution{Status: StatusError, Iterations: t.iters}, &SolverError{Regime: RegimeLinear, Err: err}
		}
		if t.infeasibility() > feasTol*t.scale {
			return Solution{Status: StatusInfeasible, Iterations: t.iters}, nil
		}
		t.dropArtificials()
	}

	for j, c := range t.cols {
		t.cost[j] = 0
		if !c.artificial && c.src >= 0 {
			t.cost[j] = c.sign * p.Objective[c.src]
		}
	}
	t.price()
	status, err := t.run(tol)
	if err != nil {
		return Solution{Status: StatusError, Iterations: t.iters}, &SolverError{Regime: RegimeLinear, Err: err}
	}
	if status != StatusOptimal {
		return Solution{Status: status, Iterations: t.iters}, nil
	}
	x := t.solution(p.NumVars)
	return Solution{Status: StatusOptimal, X: x, Objective: p.Value(x), Iterations: t.iters}, nil
}

// standardForm builds the tableau of A·y (+ slack) (+ artificial) = b with
// b ≥ 0 and every column non-negative. It reports false when a variable's
// bounds are inverted.
func standardForm(p *LinearProgram) (*tableau, bool) {
	t := &tableau{shift: make([]float64, p.NumVars), scale: 1}
	colsOf := make([][]int, p.NumVars)
	addCol := func(c column, upper float64) int {
		t.cols = append(t.cols, c)
		t.upper = append(t.upper, upper)
		return len(t.cols) - 1
	}
	for j, b := range p.Bounds {
		switch {
		case b.Lower > b.Upper:
			return nil, false
		case !math.IsInf(b.Lower, -1):
			t.shift[j] = b.Lower
			colsOf[j] = []int{addCol(column{src: j, sign: 1}, b.Upper-b.Lower)}
		case !math.IsInf(b.Upper, 1):
			t.shift[j] = b.Upper
			colsOf[j] = []int{addCol(column{src: j, sign: -1}, math.Inf(1))}
		default:
			colsOf[j] = []int{
				addCol(column{src: j, sign: 1}, math.Inf(1)),
				addCol(column{src: j, sign: -1}, math.Inf(1)),
			}
		}
	}
	structural := len(t.cols)

	type stdRow struct {
		coef  []float64
		rhs   float64
		slack float64 // coefficient of the row's slack, 0 for equalities
	}
	rows := make([]stdRow, len(p.Constraints))
	for i, c := range p.Constraints {
		r := stdRow{coef: make([]float64, structural), rhs: c.RHS}
		for _, term := range c.Terms {
			for _, k := range colsOf[term.Var] {
				r.coef[k] += term.Coef * t.cols[k].sign
			}
			r.rhs -= term.Coef * t.shift[term.Var]
		}
		switch c.Sense {
		case LE:
			r.slack = 1
		case GE:
			r.slack = -1
		}
		if r.rhs < 0 {
			floats.Scale(-1, r.coef)
			r.rhs, r.slack = -r.rhs, -r.slack
		}
		t.scale = math.Max(t.scale, r.rhs)
		rows[i] = r
	}

	// Slack columns first, then one artificial per row without a usable slack.
	t.m = len(rows)
	t.basis = make([]int, t.m)
	slackCol := make([]int, t.m)
	for i, r := range rows {
		slackCol[i] = -1
		if r.slack != 0 {
			slackCol[i] = addCol(column{src: -1}, math.Inf(1))
		}
	}
	for i, r := range rows {
		if r.slack > 0 {
			t.basis[i] = slackCol[i]
			continue
		}
		t.basis[i] = addCol(column{src: -1, artificial: true}, math.Inf(1))
	}

	t.n = len(t.cols)
	t.beta = make([]float64, t.m)
	t.atUpper = make([]bool, t.n)
	t.cost = make([]float64, t.n)
	t.d = make([]float64, t.n)
	t.row = make([]int, t.n)
	for j := range t.row {
		t.row[j] = -1
	}
	if t.m > 0 {
		t.a = mat.NewDense(t.m, t.n, nil)
		for i, r := range rows {
			raw := t.a.RawRowView(i)
			copy(raw, r.coef)
			if slackCol[i] >= 0 {
				raw[slackCol[i]] = r.slack
			}
			raw[t.basis[i]] = 1
			t.beta[i] = r.rhs
			t.row[t.basis[i]] = i
		}
	}
	return t, true
}

func (t *tableau) hasArtificial() bool {
	for _, c := range t.cols {
		if c.artificial {
			return true
		}
	}
	return false
}

// price recomputes the reduced costs d = c − c_B·B⁻¹A for the current costs.
func (t *tableau) price() {
	copy(t.d, t.cost)
	for i, b := range t.basis {
		if cb := t.cost[b]; cb != 0 {
			floats.AddScaled(t.d, -cb, t.a.RawRowView(i))
		}
	}
}

// entering picks a nonbasic column whose move improves the objective and the
// direction of that move: +1 up from the lower bound, -1 down from the upper.
func (t *tableau) entering(tol float64, bland bool) (int, float64) {
	best, dir, score := -1, 0.0, tol
	for j := 0; j < t.n; j++ {
		if t.row[j] >= 0 || t.upper[j] == 0 {
			continue
		}
		var s, dr float64
		switch {
		case !t.atUpper[j] && t.d[j] < -tol:
			s, dr = -t.d[j], 1
		case t.atUpper[j] && t.d[j] > tol:
			s, dr = t.d[j], -1
		default:
			continue
		}
		if bland {
			return j, dr
		}
		if s > score {
			best, dir, score = j, dr, s
		}
	}
	return best, dir
}

// run pivots until no column prices out. It returns StatusUnbounded when an
// improving direction has no blocking bound.
func (t *tableau) run(tol float64) (Status, error) {
	degenerate := 0
	for {
		k, dir := t.entering(tol, degenerate > blandAfter)
		if k < 0 {
			return StatusOptimal, nil
		}
		if t.iters >= t.limit {
			return StatusError, fmt.Errorf("%w after %d iterations", ErrIterationLimit, t.iters)
		}
		t.iters++

		theta, leave, toUpper := t.upper[k], -1, false
		for i := 0; i < t.m; i++ {
			alpha := dir * t.a.RawRowView(i)[k]
			b := t.basis[i]
			var r float64
			switch {
			case alpha > pivotTol:
				r = t.beta[i] / alpha
			case alpha < -pivotTol && !math.IsInf(t.upper[b], 1):
				r = (t.upper[b] - t.beta[i]) / -alpha
			default:
				continue
			}
			r = math.Max(r, 0)
			if r < theta || (r == theta && leave >= 0 && b < t.basis[leave]) {
				theta, leave, toUpper = r, i, alpha < 0
			}
		}
		if math.IsInf(theta, 1) {
			return StatusUnbounded, nil
		}
		if theta <= pivotTol {
			degenerate++
		} else {
			degenerate = 0
		}

		for i := 0; i < t.m; i++ {
			t.beta[i] -= dir * theta * t.a.RawRowView(i)[k]
		}
		if leave < 0 {
			t.atUpper[k] = dir > 0
			continue
		}
		value := theta
		if dir < 0 {
			value = t.upper[k] - theta
		}
		out := t.basis[leave]
		t.pivot(leave, k)
		t.beta[leave] = value
		t.atUpper[out] = toUpper
		t.atUpper[k] = false
		if math.IsNaN(value) {
			return StatusError, errors.New("simplex: numerical breakdown")
		}
	}
}

// pivot makes column k basic in row r.
func (t *tableau) pivot(r, k int) {
	pr := t.a.RawRowView(r)
	floats.Scale(1/pr[k], pr)
	pr[k] = 1
	for i := 0; i < t.m; i++ {
		if i == r {
			continue
		}
		row := t.a.RawRowView(i)
		if f := row[k]; f != 0 {
			floats.AddScaled(row, -f, pr)
			row[k] = 0
		}
	}
	if f := t.d[k]; f != 0 {
		floats.AddScaled(t.d, -f, pr)
		t.d[k] = 0
	}
	t.row[t.basis[r]] = -1
	t.basis[r] = k
	t.row[k] = r
}

func (t *tableau) infeasibility() float64 {
	var sum float64
	for i, b := range t.basis {
		if t.cols[b].artificial {
			sum += t.beta[i]
		}
	}
	return sum
}

// dropArtificials fixes every artificial at zero and pivots basic ones out
// where a real column can replace them. A row with no such column is
// redundant and keeps its artificial pinned at zero.
func (t *tableau) dropArtificials() {
	for j, c := range t.cols {
		if c.artificial {
			t.upper[j] = 0
		}
	}
	for i, b := range t.basis {
		if !t.cols[b].artificial {
			continue
		}
		raw := t.a.RawRowView(i)
		for k := 0; k < t.n; k++ {
			if t.row[k] >= 0 || t.cols[k].artificial || math.Abs(raw[k]) <= pivotTol {
				continue
			}
			value := 0.0
			if t.atUpper[k] {
				value = t.upper[k]
			}
			t.pivot(i, k)
			t.beta[i] = value
			t.atUpper[k] = false
			break
		}
	}
}

// solution maps tableau values back onto the program's variables.
func (t *tableau) solution(numVars int) []float64 {
	x := make([]float64, numVars)
	copy(x, t.shift)
	for j, c := range t.cols {
		if c.src < 0 {
			continue
		}
		var y float64
		switch {
		case t.row[j] >= 0:
			y = t.beta[t.row[j]]
		case t.atUpper[j]:
			y = t.upper[j]
		}
		x[c.src] += c.sign * y
	}
	return x
}
