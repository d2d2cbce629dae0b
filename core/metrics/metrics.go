package metrics

import (
	"time"

	"github.com/kilianp07/dispatchopt/core/model"
)

// RunEvent summarises one optimization run.
type RunEvent struct {
	RunID       string
	Formulation string // "storage" or "fleet"
	Regime      string
	Method      string
	Status      string
	Objective   float64
	Variables   int
	Constraints int
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records optimization runs for observability purposes.
type MetricsSink interface {
	RecordRun(ev RunEvent) error
}

// StorageScheduleEvent carries an optimal storage schedule. Start is the
// wall-clock time of slot 0.
type StorageScheduleEvent struct {
	RunID    string
	Start    time.Time
	Schedule model.StorageSchedule
}

// StorageScheduleRecorder records per-slot storage decisions.
type StorageScheduleRecorder interface {
	RecordStorageSchedule(ev StorageScheduleEvent) error
}

// FleetScheduleEvent carries an optimal fleet snapshot.
type FleetScheduleEvent struct {
	RunID    string
	Time     time.Time
	Schedule model.FleetSchedule
}

// FleetScheduleRecorder records per-unit fleet outputs.
type FleetScheduleRecorder interface {
	RecordFleetSchedule(ev FleetScheduleEvent) error
}

// Flusher is implemented by sinks that buffer or push on demand.
type Flusher interface {
	Flush() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error                         { return nil }
func (NopSink) RecordStorageSchedule(StorageScheduleEvent) error { return nil }
func (NopSink) RecordFleetSchedule(FleetScheduleEvent) error     { return nil }
func (NopSink) Flush() error                                     { return nil }
