// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Cache lookup outcomes reported by the catalog gateway.
const (
	CacheHit       = "hit"
	CacheMiss      = "miss"
	CacheCoalesced = "coalesced"
)

// Event publish outcomes.
const (
	EventPublished = "success"
	EventDropped   = "dropped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Catalog metrics
	IncCatalogCache(outcome string)
	ObserveUpstreamFetch(status int, duration time.Duration)

	// Booking metrics
	IncTripsBooked(n int)
	IncTripsBookFailed(n int)
	IncTripCancelled(success bool)

	// Event metrics
	IncEventPublished(outcome string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
