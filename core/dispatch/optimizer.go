package dispatch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/dispatchopt/core/logger"
	"github.com/kilianp07/dispatchopt/core/metrics"
	"github.com/kilianp07/dispatchopt/core/monitoring"
	"github.com/kilianp07/dispatchopt/core/model"
	"github.com/kilianp07/dispatchopt/core/solver"
)

// stallTol is the relative improvement below which a local search counts as
// stalled.
const stallTol = 1e-6

// StorageProblem is one storage optimization request. Empty Regime or Method
// fall back to the optimizer configuration.
type StorageProblem struct {
	Grid   model.TimeGrid
	Asset  model.StorageAsset
	Regime Regime
	Method Method
	Inputs StorageInputs
	// Start is the wall-clock time of slot 0, used when recording slots.
	Start time.Time
}

// StorageResult reports the outcome of a storage run. Schedule is nil unless
// Status is optimal.
type StorageResult struct {
	RunID    string
	Regime   Regime
	Method   Method
	Status   solver.Status
	Schedule *model.StorageSchedule
	Duration time.Duration
}

// FleetProblem is one fleet snapshot request.
type FleetProblem struct {
	Units   []model.GenerationUnit
	Weights model.Weights
}

// FleetResult reports the outcome of a fleet run. Score is the scalarised
// objective value of the returned schedule.
type FleetResult struct {
	RunID    string
	Status   solver.Status
	Schedule *model.FleetSchedule
	Score    float64
	Duration time.Duration
}

// Optimizer runs validate, build, solve and extract for each request. Every
// call builds its own program so an Optimizer may be reused across runs.
type Optimizer struct {
	cfg       Config
	linear    solver.LinearSolver
	nonlinear solver.NonlinearSolver
	log       logger.Logger
	sink      metrics.MetricsSink
	now       func() time.Time
	newID     func() string
}

// NewOptimizer creates an optimizer from cfg. A nil sink or logger disables
// the corresponding output.
func NewOptimizer(cfg Config, sink metrics.MetricsSink, log logger.Logger) (*Optimizer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Optimizer{
		cfg:    cfg,
		linear: solver.Simplex{Tol: cfg.SimplexTol},
		nonlinear: solver.NelderMead{
			Penalty:        cfg.Penalty,
			FeasibilityTol: cfg.FeasibilityTol,
			MaxIterations:  cfg.MaxIterations,
		},
		log:   log,
		sink:  sink,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// storageRun is a built storage program ready to be handed to a solver.
type storageRun struct {
	layout      StorageLayout
	variables   int
	constraints int
	solve       func() (solver.Solution, error)
	// local is set for searches that stop at a local optimum; initial is the
	// objective at their starting point.
	local   bool
	initial float64
}

func (o *Optimizer) prepareStorage(p StorageProblem, regime Regime, method Method) (storageRun, error) {
	switch {
	case regime == RegimeLossless:
		prog, l, err := BuildLossless(p.Grid, p.Asset, p.Inputs.Price)
		if err != nil {
			return storageRun{}, err
		}
		return storageRun{layout: l, variables: prog.NumVars, constraints: len(prog.Constraints), solve: func() (solver.Solution, error) {
			return o.linear.SolveLinear(prog)
		}}, nil
	case regime == RegimeEfficiency && method == MethodSlackLP:
		prog, l, err := BuildEfficiencyLP(p.Grid, p.Asset, p.Inputs)
		if err != nil {
			return storageRun{}, err
		}
		return storageRun{layout: l, variables: prog.NumVars, constraints: len(prog.Constraints), solve: func() (solver.Solution, error) {
			return o.linear.SolveLinear(prog)
		}}, nil
	case regime == RegimeEfficiency && method == MethodNelderMead:
		prog, l, err := BuildEfficiencyNLP(p.Grid, p.Asset, p.Inputs)
		if err != nil {
			return storageRun{}, err
		}
		return storageRun{
			layout:      l,
			variables:   prog.NumVars,
			constraints: len(prog.Inequalities),
			solve: func() (solver.Solution, error) {
				return o.nonlinear.SolveNonlinear(prog)
			},
			local:   true,
			initial: prog.Objective(prog.Initial),
		}, nil
	case regime != RegimeLossless && regime != RegimeEfficiency:
		return storageRun{}, &model.ConfigurationError{Field: "solver.regime", Reason: fmt.Sprintf("unknown regime %q", regime)}
	default:
		return storageRun{}, &model.ConfigurationError{Field: "solver.method", Reason: fmt.Sprintf("unknown method %q", method)}
	}
}

// OptimizeStorage schedules one storage asset over the grid. Configuration
// errors are returned before any solver call. Infeasible and unbounded
// programs are reported through Status with a nil error.
func (o *Optimizer) OptimizeStorage(ctx context.Context, p StorageProblem) (StorageResult, error) {
	regime, method := p.Regime, p.Method
	if regime == "" {
		regime = o.cfg.Regime
	}
	if method == "" {
		method = o.cfg.Method
	}
	if regime == RegimeLossless {
		method = ""
	}
	res := StorageResult{RunID: o.newID(), Regime: regime, Method: method, Status: solver.StatusError}

	run, err := o.prepareStorage(p, regime, method)
	if err != nil {
		o.log.Errorf("storage run %s rejected: %v", res.RunID, err)
		return res, err
	}
	o.log.Debugw("storage program built", map[string]any{
		"run_id":      res.RunID,
		"regime":      string(regime),
		"method":      string(method),
		"variables":   run.variables,
		"constraints": run.constraints,
	})
	if err := ctx.Err(); err != nil {
		return res, err
	}

	start := o.now()
	sol, err := run.solve()
	res.Duration = o.now().Sub(start)
	res.Status = sol.Status
	if run.local && err == nil {
		o.logSearch(res.RunID, run.initial, sol)
	}
	if err != nil {
		res.Status = solver.StatusError
		o.record(res.RunID, "storage", regime, method, res.Status, 0, run.variables, run.constraints, res.Duration)
		o.log.Errorf("storage run %s failed: %v", res.RunID, err)
		monitoring.CaptureException(err, map[string]string{"run_id": res.RunID, "module": "dispatch", "formulation": "storage"})
		return res, err
	}
	if sol.Status != solver.StatusOptimal {
		o.record(res.RunID, "storage", regime, method, res.Status, 0, run.variables, run.constraints, res.Duration)
		o.log.Warnf("storage run %s finished %s", res.RunID, sol.Status)
		return res, nil
	}

	sched, err := ExtractStorage(p.Grid, p.Asset, regime, run.layout, p.Inputs, sol.X)
	if err != nil {
		res.Status = solver.StatusError
		o.record(res.RunID, "storage", regime, method, res.Status, 0, run.variables, run.constraints, res.Duration)
		return res, err
	}
	res.Schedule = &sched
	o.record(res.RunID, "storage", regime, method, res.Status, sched.Objective, run.variables, run.constraints, res.Duration)
	if rec, ok := o.sink.(metrics.StorageScheduleRecorder); ok {
		if err := rec.RecordStorageSchedule(metrics.StorageScheduleEvent{RunID: res.RunID, Start: p.Start, Schedule: sched}); err != nil {
			o.log.Warnf("record storage schedule: %v", err)
		}
	}
	o.log.Infow("storage run finished", map[string]any{
		"run_id":    res.RunID,
		"status":    res.Status.String(),
		"objective": sched.Objective,
		"final_soc": sched.FinalSoC,
		"duration":  res.Duration.String(),
	})
	return res, nil
}

// logSearch reports how far a local search moved from its starting point and
// warns when it did not move at all.
func (o *Optimizer) logSearch(id string, initial float64, sol solver.Solution) {
	fields := map[string]any{
		"run_id":            id,
		"status":            sol.Status.String(),
		"iterations":        sol.Iterations,
		"initial_objective": initial,
	}
	if sol.Status == solver.StatusOptimal {
		fields["objective"] = sol.Objective
		fields["improvement"] = initial - sol.Objective
	}
	o.log.Infow("local search finished", fields)
	if sol.Status == solver.StatusOptimal && initial-sol.Objective <= stallTol*math.Max(1, math.Abs(initial)) {
		o.log.Warnf("storage run %s: local search did not improve on its starting point after %d iterations (objective %.6g)", id, sol.Iterations, sol.Objective)
	}
}

// OptimizeFleet dispatches a generation fleet for one snapshot.
func (o *Optimizer) OptimizeFleet(ctx context.Context, p FleetProblem) (FleetResult, error) {
	res := FleetResult{RunID: o.newID(), Status: solver.StatusError}
	prog, l, err := BuildFleet(p.Units, p.Weights)
	if err != nil {
		o.log.Errorf("fleet run %s rejected: %v", res.RunID, err)
		return res, err
	}
	o.log.Debugw("fleet program built", map[string]any{
		"run_id": res.RunID,
		"units":  prog.NumVars,
	})
	if err := ctx.Err(); err != nil {
		return res, err
	}

	start := o.now()
	sol, err := o.linear.SolveLinear(prog)
	res.Duration = o.now().Sub(start)
	res.Status = sol.Status
	if err != nil {
		res.Status = solver.StatusError
		o.record(res.RunID, "fleet", "", "", res.Status, 0, prog.NumVars, len(prog.Constraints), res.Duration)
		o.log.Errorf("fleet run %s failed: %v", res.RunID, err)
		monitoring.CaptureException(err, map[string]string{"run_id": res.RunID, "module": "dispatch", "formulation": "fleet"})
		return res, err
	}
	if sol.Status != solver.StatusOptimal {
		o.record(res.RunID, "fleet", "", "", res.Status, 0, prog.NumVars, len(prog.Constraints), res.Duration)
		o.log.Warnf("fleet run %s finished %s", res.RunID, sol.Status)
		return res, nil
	}

	sched, err := ExtractFleet(p.Units, l, sol.X)
	if err != nil {
		res.Status = solver.StatusError
		return res, err
	}
	res.Score = fleetScore(p.Units, p.Weights, sched)
	sched.Objective = res.Score
	res.Schedule = &sched
	o.record(res.RunID, "fleet", "", "", res.Status, res.Score, prog.NumVars, len(prog.Constraints), res.Duration)
	if rec, ok := o.sink.(metrics.FleetScheduleRecorder); ok {
		if err := rec.RecordFleetSchedule(metrics.FleetScheduleEvent{RunID: res.RunID, Time: o.now(), Schedule: sched}); err != nil {
			o.log.Warnf("record fleet schedule: %v", err)
		}
	}
	o.log.Infow("fleet run finished", map[string]any{
		"run_id":      res.RunID,
		"score":       res.Score,
		"total_power": sched.TotalPower,
		"total_cost":  sched.TotalCost,
	})
	return res, nil
}

// record emits a RunEvent. Sink failures are logged and never fail a run.
func (o *Optimizer) record(id, formulation string, regime Regime, method Method, status solver.Status, objective float64, vars, cons int, d time.Duration) {
	err := o.sink.RecordRun(metrics.RunEvent{
		RunID:       id,
		Formulation: formulation,
		Regime:      string(regime),
		Method:      string(method),
		Status:      status.String(),
		Objective:   objective,
		Variables:   vars,
		Constraints: cons,
		Duration:    d,
		Time:        o.now(),
	})
	if err != nil {
		o.log.Warnf("record run %s: %v", id, err)
	}
}
