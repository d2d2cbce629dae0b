package scenarios

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/model"
	"github.com/kilianp07/dispatchopt/infra/logger"
	"github.com/kilianp07/dispatchopt/infra/metrics"
)

const defaultTolerance = 1e-6

// RunScenario solves the scenario with a fresh optimizer and checks every
// expectation it declares.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(metrics.PromConfig{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	opt, err := dispatch.NewOptimizer(dispatch.Config{}, sink, logger.NopLogger{})
	if err != nil {
		t.Fatalf("optimizer: %v", err)
	}
	tol := sc.Expected.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}

	var (
		status    string
		objective float64
		gridIn    float64
		finalSoC  float64
		outputs   map[string]float64
		runErr    error
	)
	ctx := context.Background()
	switch sc.Kind {
	case "storage":
		p, err := sc.StorageProblem()
		if err != nil {
			runErr = err
			break
		}
		res, err := opt.OptimizeStorage(ctx, p)
		runErr = err
		status = res.Status.String()
		if res.Schedule != nil {
			objective = res.Schedule.Objective
			gridIn = res.Schedule.GridImport
			finalSoC = res.Schedule.FinalSoC
		}
	case "fleet":
		res, err := opt.OptimizeFleet(ctx, sc.FleetProblem())
		runErr = err
		status = res.Status.String()
		objective = res.Score
		if res.Schedule != nil {
			outputs = res.Schedule.Outputs()
		}
	}

	exp := sc.Expected
	if exp.ConfigErr != "" {
		var cfgErr *model.ConfigurationError
		if !errors.As(runErr, &cfgErr) {
			t.Fatalf("expected configuration error on %s, got %v", exp.ConfigErr, runErr)
		}
		if cfgErr.Field != exp.ConfigErr {
			t.Fatalf("configuration error on %s, want %s", cfgErr.Field, exp.ConfigErr)
		}
		return
	}
	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	if status != exp.Status {
		t.Fatalf("status %s, want %s", status, exp.Status)
	}
	if n, err := testutil.GatherAndCount(reg, "optimization_runs_total"); err != nil || n != 1 {
		t.Errorf("runs series %d (%v), want 1", n, err)
	}
	if exp.Objective != nil && !near(objective, *exp.Objective, tol) {
		t.Errorf("objective %v, want %v", objective, *exp.Objective)
	}
	if exp.MaxImport != nil && gridIn > *exp.MaxImport+tol {
		t.Errorf("grid import %v exceeds %v", gridIn, *exp.MaxImport)
	}
	if exp.FinalSoC != nil && !near(finalSoC, *exp.FinalSoC, tol) {
		t.Errorf("final soc %v, want %v", finalSoC, *exp.FinalSoC)
	}
	for id, want := range exp.Outputs {
		if got, ok := outputs[id]; !ok || !near(got, want, tol) {
			t.Errorf("unit %s output %v, want %v", id, got, want)
		}
	}
}

func near(a, b, tol float64) bool {
	d := a - b
	return d <= tol && d >= -tol
}
