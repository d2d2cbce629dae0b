package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/dispatchopt/core/mqtt"
)

// SchedulePublisher mirrors the core interface.
type SchedulePublisher = coremqtt.SchedulePublisher

// MockPublisher records published schedules in memory.
type MockPublisher struct {
	Messages []coremqtt.ScheduleMessage
	// FailRuns makes PublishSchedule fail for the listed run ids.
	FailRuns map[string]bool
	mu       sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailRuns: make(map[string]bool)}
}

// PublishSchedule records the message or returns an error if configured to fail.
func (m *MockPublisher) PublishSchedule(_ context.Context, msg coremqtt.ScheduleMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRuns[msg.RunID] {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []coremqtt.ScheduleMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]coremqtt.ScheduleMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}
