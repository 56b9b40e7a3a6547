package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCatalogCache is a no-op.
func (n *NoopRecorder) IncCatalogCache(outcome string) {}

// ObserveUpstreamFetch is a no-op.
func (n *NoopRecorder) ObserveUpstreamFetch(status int, duration time.Duration) {}

// IncTripsBooked is a no-op.
func (n *NoopRecorder) IncTripsBooked(count int) {}

// IncTripsBookFailed is a no-op.
func (n *NoopRecorder) IncTripsBookFailed(count int) {}

// IncTripCancelled is a no-op.
func (n *NoopRecorder) IncTripCancelled(success bool) {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(outcome string) {}
