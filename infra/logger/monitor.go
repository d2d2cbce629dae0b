package logger

import (
	"time"

	"github.com/kilianp07/dispatchopt/core/monitoring"
)

// LogMonitor reports captured exceptions as error log records.
type LogMonitor struct {
	log *ZerologLogger
}

// NewMonitor returns a monitoring.Monitor backed by a zerolog logger for the
// given component.
func NewMonitor(component string) monitoring.Monitor {
	return &LogMonitor{log: newFromEnv(component)}
}

// CaptureException logs err with its tags as fields.
func (m *LogMonitor) CaptureException(err error, tags map[string]string) {
	ev := m.log.log.Error().Err(err)
	for k, v := range tags {
		ev = ev.Str(k, v)
	}
	ev.Msg("exception captured")
}

// Flush is a no-op; records are written synchronously.
func (m *LogMonitor) Flush(time.Duration) {}
