package metrics

import (
	"errors"
	"io"
)

// MultiSink fans out run events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordStorageSchedule forwards storage schedules when supported by the sink.
func (m *MultiSink) RecordStorageSchedule(ev StorageScheduleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(StorageScheduleRecorder); ok {
			if err := rec.RecordStorageSchedule(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetSchedule forwards fleet schedules when supported by the sink.
func (m *MultiSink) RecordFleetSchedule(ev FleetScheduleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FleetScheduleRecorder); ok {
			if err := rec.RecordFleetSchedule(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every sink that supports it.
func (m *MultiSink) Flush() error {
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
