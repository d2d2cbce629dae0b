package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kilianp07/dispatchopt/app/plugins"
	"github.com/kilianp07/dispatchopt/config"
	"github.com/kilianp07/dispatchopt/core/dispatch"
	"github.com/kilianp07/dispatchopt/core/forecast"
	coremetrics "github.com/kilianp07/dispatchopt/core/metrics"
	"github.com/kilianp07/dispatchopt/core/model"
	"github.com/kilianp07/dispatchopt/core/monitoring"
	coremqtt "github.com/kilianp07/dispatchopt/core/mqtt"
	"github.com/kilianp07/dispatchopt/infra/logger"
	infmon "github.com/kilianp07/dispatchopt/infra/monitoring"
	"github.com/kilianp07/dispatchopt/infra/mqtt"
	"github.com/kilianp07/dispatchopt/pkg/dataset"
)

// ErrNotOptimal is returned when a run ends without an optimal schedule.
var ErrNotOptimal = errors.New("no optimal schedule")

// Service wires the configuration into an optimizer, its metrics sinks, the
// forecast source and the schedule publisher. Each Run call is one
// independent optimization.
type Service struct {
	cfg       *config.Config
	opt       *dispatch.Optimizer
	sink      coremetrics.MetricsSink
	forecast  forecast.Engine
	publisher coremqtt.SchedulePublisher
	log       logger.Logger
}

var newPublisher = func(cfg mqtt.Config) (coremqtt.SchedulePublisher, error) {
	return mqtt.NewPahoPublisher(cfg)
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := infmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	if _, off := mon.(monitoring.NopMonitor); off {
		mon = logger.NewMonitor("monitoring")
	}
	monitoring.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	engine, err := plugins.NewForecast(cfg)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	opt, err := dispatch.NewOptimizer(cfg.Solver, sink, logger.New("optimizer"))
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	var pub coremqtt.SchedulePublisher = coremqtt.NopPublisher{}
	if cfg.MQTT != nil {
		pub, err = newPublisher(*cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}
	return &Service{cfg: cfg, opt: opt, sink: sink, forecast: engine, publisher: pub, log: logg}, nil
}

// StorageOptions override the configured regime and method for one run.
type StorageOptions struct {
	Regime dispatch.Regime
	Method dispatch.Method
}

// RunStorage optimizes the configured asset over the configured grid, reports
// the schedule to w (or to the configured output path) and publishes it.
func (s *Service) RunStorage(ctx context.Context, opts StorageOptions, w io.Writer) (dispatch.StorageResult, error) {
	if s.cfg.Storage == nil {
		return dispatch.StorageResult{}, errors.New("no storage asset configured")
	}
	grid, err := s.cfg.Grid.TimeGrid()
	if err != nil {
		return dispatch.StorageResult{}, err
	}
	start, err := s.cfg.Grid.StartTime()
	if err != nil {
		return dispatch.StorageResult{}, err
	}
	regime := opts.Regime
	if regime == "" {
		regime = s.cfg.Solver.Regime
	}
	inputs, err := s.storageInputs(regime, grid.Slots)
	if err != nil {
		return dispatch.StorageResult{}, fmt.Errorf("forecast: %w", err)
	}

	res, err := s.opt.OptimizeStorage(ctx, dispatch.StorageProblem{
		Grid:   grid,
		Asset:  *s.cfg.Storage,
		Regime: regime,
		Method: opts.Method,
		Inputs: inputs,
		Start:  start,
	})
	if err != nil {
		return res, err
	}
	if res.Schedule == nil {
		return res, fmt.Errorf("storage run %s: %w: %s", res.RunID, ErrNotOptimal, res.Status)
	}

	rep, err := plugins.ReporterFor(s.cfg.Output.Format)
	if err != nil {
		return res, err
	}
	if err := s.report(w, func(out io.Writer) error { return rep.Storage(out, res, start) }); err != nil {
		return res, fmt.Errorf("report: %w", err)
	}
	s.publish(ctx, coremqtt.StorageMessage(res.RunID, start, *res.Schedule))
	return res, nil
}

// FleetOptions override the configured weights for one run.
type FleetOptions struct {
	Weights *model.Weights
}

// RunFleet dispatches the configured fleet for a single snapshot, reports the
// schedule and publishes it.
func (s *Service) RunFleet(ctx context.Context, opts FleetOptions, w io.Writer) (dispatch.FleetResult, error) {
	units, err := s.fleetUnits()
	if err != nil {
		return dispatch.FleetResult{}, err
	}
	weights := *s.cfg.Fleet.Weights
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	res, err := s.opt.OptimizeFleet(ctx, dispatch.FleetProblem{Units: units, Weights: weights})
	if err != nil {
		return res, err
	}
	if res.Schedule == nil {
		return res, fmt.Errorf("fleet run %s: %w: %s", res.RunID, ErrNotOptimal, res.Status)
	}

	rep, err := plugins.ReporterFor(s.cfg.Output.Format)
	if err != nil {
		return res, err
	}
	if err := s.report(w, func(out io.Writer) error { return rep.Fleet(out, res) }); err != nil {
		return res, fmt.Errorf("report: %w", err)
	}
	s.publish(ctx, coremqtt.FleetMessage(res.RunID, *res.Schedule))
	return res, nil
}

// Close flushes and closes the metrics sinks and disconnects the publisher.
func (s *Service) Close() error {
	var errs []error
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		errs = append(errs, f.Flush())
	}
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if d, ok := s.publisher.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	monitoring.Flush(2 * time.Second)
	return errors.Join(errs...)
}

// storageInputs draws the series the regime reads.
func (s *Service) storageInputs(regime dispatch.Regime, slots int) (dispatch.StorageInputs, error) {
	var in dispatch.StorageInputs
	var err error
	switch regime {
	case dispatch.RegimeEfficiency:
		if in.Demand, err = s.forecast.Series(model.SignalDemand, slots); err != nil {
			return in, err
		}
		in.Generation, err = s.forecast.Series(model.SignalGeneration, slots)
	default:
		in.Price, err = s.forecast.Series(model.SignalPrice, slots)
	}
	return in, err
}

func (s *Service) fleetUnits() ([]model.GenerationUnit, error) {
	switch {
	case s.cfg.Fleet.PlantsCSV != "":
		units, err := dataset.ReadPlantsFile(s.cfg.Fleet.PlantsCSV)
		if err != nil {
			return nil, fmt.Errorf("plants: %w", err)
		}
		return units, nil
	case len(s.cfg.Fleet.Units) > 0:
		return s.cfg.Fleet.Units, nil
	default:
		return dispatch.DefaultPlants(), nil
	}
}

// report writes to the configured output path when set, to w otherwise.
func (s *Service) report(w io.Writer, write func(io.Writer) error) error {
	if s.cfg.Output.Path == "" {
		return write(w)
	}
	f, err := os.Create(s.cfg.Output.Path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// publish hands the schedule to downstream controllers. A failed publish is
// logged; the schedule has already been reported.
func (s *Service) publish(ctx context.Context, msg coremqtt.ScheduleMessage) {
	if err := s.publisher.PublishSchedule(ctx, msg); err != nil {
		s.log.Errorf("publish %s schedule %s: %v", msg.Kind, msg.RunID, err)
	}
}
