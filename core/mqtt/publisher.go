package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/dispatchopt/core/model"
)

// ScheduleMessage is the payload published for one optimal run. Exactly one of
// Storage and Fleet is set.
type ScheduleMessage struct {
	RunID     string                 `json:"run_id"`
	Kind      string                 `json:"kind"`
	Start     time.Time              `json:"start,omitempty"`
	Storage   *model.StorageSchedule `json:"storage,omitempty"`
	Fleet     *model.FleetSchedule   `json:"fleet,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// StorageMessage wraps a storage schedule.
func StorageMessage(runID string, start time.Time, s model.StorageSchedule) ScheduleMessage {
	return ScheduleMessage{RunID: runID, Kind: "storage", Start: start, Storage: &s}
}

// FleetMessage wraps a fleet schedule.
func FleetMessage(runID string, f model.FleetSchedule) ScheduleMessage {
	return ScheduleMessage{RunID: runID, Kind: "fleet", Fleet: &f}
}

// SchedulePublisher hands finished schedules to downstream controllers.
// Publishing never feeds back into the optimizer.
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, msg ScheduleMessage) error
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(context.Context, ScheduleMessage) error { return nil }
