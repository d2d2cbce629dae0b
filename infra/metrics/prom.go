package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/dispatchopt/core/metrics"
)

// PromConfig configures the Prometheus sink. A non-empty PushURL makes Flush
// push the collectors to a Pushgateway, which suits one-shot CLI runs that
// exit before any scrape.
type PromConfig struct {
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// PromSink records optimization runs in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	solve     *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	finalSoC  *prometheus.GaugeVec
	pusher    *push.Pusher
}

// NewPromSink registers optimizer metrics on the default Prometheus registerer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// Collectors already registered under the same name are reused. A nil
// registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimization_runs_total",
		Help: "Number of optimization runs by formulation and solver status",
	}, []string{"formulation", "status"}))
	if err != nil {
		return nil, err
	}
	solve, err := registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimization_solve_seconds",
		Help:    "Wall-clock time spent inside the solver",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"formulation", "regime"}))
	if err != nil {
		return nil, err
	}
	objective, err := registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimization_objective_value",
		Help: "Objective of the last optimal run",
	}, []string{"formulation"}))
	if err != nil {
		return nil, err
	}
	finalSoC, err := registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storage_final_soc_kwh",
		Help: "State of charge at the end of the last optimal storage schedule",
	}, []string{"asset_id"}))
	if err != nil {
		return nil, err
	}

	s := &PromSink{runs: runs, solve: solve, objective: objective, finalSoC: finalSoC}
	if cfg.PushURL != "" {
		job := cfg.Job
		if job == "" {
			job = "dispatchopt"
		}
		s.pusher = push.New(cfg.PushURL, job).
			Collector(runs).
			Collector(solve).
			Collector(objective).
			Collector(finalSoC)
	}
	return s, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("collector registered with a different type: %w", err)
		}
		return existing, nil
	}
	return c, nil
}

// RecordRun implements coremetrics.MetricsSink.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Formulation, ev.Status).Inc()
	s.solve.WithLabelValues(ev.Formulation, ev.Regime).Observe(ev.Duration.Seconds())
	if ev.Status == "optimal" {
		s.objective.WithLabelValues(ev.Formulation).Set(ev.Objective)
	}
	return nil
}

// RecordStorageSchedule sets the final SoC gauge of the asset.
func (s *PromSink) RecordStorageSchedule(ev coremetrics.StorageScheduleEvent) error {
	s.finalSoC.WithLabelValues(ev.Schedule.AssetID).Set(ev.Schedule.FinalSoC)
	return nil
}

// Flush pushes all collectors when a Pushgateway is configured.
func (s *PromSink) Flush() error {
	if s.pusher == nil {
		return nil
	}
	return s.pusher.Push()
}
