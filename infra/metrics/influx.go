package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dispatchopt/core/metrics"
	"github.com/kilianp07/dispatchopt/infra/logger"
)

// InfluxConfig holds the connection settings of the Influx sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes run summaries and schedules to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	now      func() time.Time
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
		now:      time.Now,
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails, so an unreachable database never blocks a run.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one optimization_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_run").
		AddTag("run_id", ev.RunID).
		AddTag("formulation", ev.Formulation).
		AddTag("status", ev.Status)
	if ev.Regime != "" {
		p = p.AddTag("regime", ev.Regime)
	}
	if ev.Method != "" {
		p = p.AddTag("method", ev.Method)
	}
	p = p.AddField("objective", round3(ev.Objective)).
		AddField("variables", ev.Variables).
		AddField("constraints", ev.Constraints).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStorageSchedule writes one storage_slot point per slot, stamped at
// the slot start. A zero Start anchors slot 0 at the current time.
func (s *InfluxSink) RecordStorageSchedule(ev coremetrics.StorageScheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	start := ev.Start
	if start.IsZero() {
		start = s.now()
	}
	step := time.Duration(ev.Schedule.StepHours * float64(time.Hour))
	points := make([]*write.Point, 0, len(ev.Schedule.Slots))
	for _, sl := range ev.Schedule.Slots {
		p := write.NewPointWithMeasurement("storage_slot").
			AddTag("run_id", ev.RunID).
			AddTag("asset_id", ev.Schedule.AssetID).
			AddTag("slot", strconv.Itoa(sl.Slot)).
			AddField("charge_kw", round3(sl.ChargeKW)).
			AddField("discharge_kw", round3(sl.DischargeKW)).
			AddField("soc_kwh", round3(sl.SoC)).
			AddField("grid_import_kw", round3(sl.GridImportKW)).
			SetTime(start.Add(time.Duration(sl.Slot) * step))
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordFleetSchedule writes one fleet_unit point per generation unit.
func (s *InfluxSink) RecordFleetSchedule(ev coremetrics.FleetScheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Schedule.Units))
	for _, u := range ev.Schedule.Units {
		p := write.NewPointWithMeasurement("fleet_unit").
			AddTag("run_id", ev.RunID).
			AddTag("unit_id", u.ID).
			AddField("output_kw", round3(u.OutputKW)).
			AddField("total_cost", round3(u.TotalCost)).
			AddField("utilization_pct", round3(u.Utilization)).
			SetTime(ev.Time)
		points = append(points, p)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the client. Writes are blocking so nothing is buffered.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
