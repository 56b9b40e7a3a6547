// Package events publishes trip booking events to a broker.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types, also used as AMQP routing keys.
const (
	TypeTripBooked    = "trip.booked"
	TypeTripCancelled = "trip.cancelled"
)

// PublishTimeout is the max time to wait for a broker publish.
const PublishTimeout = 500 * time.Millisecond

// Event is a change to a user's trip set.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	LaunchID   int       `json:"launch_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards events.
type Noop struct{}

// NewNoop returns a Publisher that discards all events.
func NewNoop() Publisher {
	return Noop{}
}

// Publish is a no-op.
func (Noop) Publish(context.Context, Event) error { return nil }

// Memory keeps published events in memory for tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// NewMemory returns an empty Memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish records event, or returns the error set by FailWith.
func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// FailWith makes every later Publish return err. Nil restores success.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
