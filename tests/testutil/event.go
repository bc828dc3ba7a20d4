package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paypos/backend/internal/domain/integration"
)

// RecordingPublisher records inventory synced events for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []integration.InventorySyncedEvent
	err    error
}

// NewRecordingPublisher creates an empty recording publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// PublishInventorySynced records the event, or returns the configured error.
func (p *RecordingPublisher) PublishInventorySynced(_ context.Context, event integration.InventorySyncedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []integration.InventorySyncedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]integration.InventorySyncedEvent, len(p.events))
	copy(result, p.events)
	return result
}

// Count returns the number of recorded events.
func (p *RecordingPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// SetError makes subsequent publishes fail.
func (p *RecordingPublisher) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Reset drops the recorded events and the configured error.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.err = nil
}

var _ integration.SyncEventPublisher = (*RecordingPublisher)(nil)

// WaitForEventCount waits until the publisher has recorded count events.
func WaitForEventCount(t *testing.T, publisher *RecordingPublisher, count int, timeout time.Duration) {
	t.Helper()
	AssertEventually(t, func() bool {
		return publisher.Count() >= count
	}, timeout, 10*time.Millisecond, "expected %d events", count)
}
