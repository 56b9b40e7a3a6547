package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CatalogCacheHits        uint64
	CatalogCacheMisses      uint64
	CatalogCacheCoalesced   uint64
	UpstreamFetches         uint64
	UpstreamFailures        uint64
	UpstreamDurationTotalNs int64
	TripsBooked             uint64
	TripsBookFailed         uint64
	TripsCancelled          uint64
	TripCancelFailures      uint64
	EventsPublished         uint64
	EventsDropped           uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	catalogCacheHits        uint64
	catalogCacheMisses      uint64
	catalogCacheCoalesced   uint64
	upstreamFetches         uint64
	upstreamFailures        uint64
	upstreamDurationTotalNs int64
	tripsBooked             uint64
	tripsBookFailed         uint64
	tripsCancelled          uint64
	tripCancelFailures      uint64
	eventsPublished         uint64
	eventsDropped           uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CatalogCacheHits:        atomic.LoadUint64(&m.catalogCacheHits),
		CatalogCacheMisses:      atomic.LoadUint64(&m.catalogCacheMisses),
		CatalogCacheCoalesced:   atomic.LoadUint64(&m.catalogCacheCoalesced),
		UpstreamFetches:         atomic.LoadUint64(&m.upstreamFetches),
		UpstreamFailures:        atomic.LoadUint64(&m.upstreamFailures),
		UpstreamDurationTotalNs: atomic.LoadInt64(&m.upstreamDurationTotalNs),
		TripsBooked:             atomic.LoadUint64(&m.tripsBooked),
		TripsBookFailed:         atomic.LoadUint64(&m.tripsBookFailed),
		TripsCancelled:          atomic.LoadUint64(&m.tripsCancelled),
		TripCancelFailures:      atomic.LoadUint64(&m.tripCancelFailures),
		EventsPublished:         atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:           atomic.LoadUint64(&m.eventsDropped),
	}
}

// IncCatalogCache increments the counter for a cache outcome.
func (m *InMemoryRecorder) IncCatalogCache(outcome string) {
	switch outcome {
	case CacheHit:
		atomic.AddUint64(&m.catalogCacheHits, 1)
	case CacheMiss:
		atomic.AddUint64(&m.catalogCacheMisses, 1)
	case CacheCoalesced:
		atomic.AddUint64(&m.catalogCacheCoalesced, 1)
	}
}

// ObserveUpstreamFetch records one upstream call. Status 0 means a transport failure.
func (m *InMemoryRecorder) ObserveUpstreamFetch(status int, duration time.Duration) {
	atomic.AddUint64(&m.upstreamFetches, 1)
	if status == 0 || status >= 500 {
		atomic.AddUint64(&m.upstreamFailures, 1)
	}
	atomic.AddInt64(&m.upstreamDurationTotalNs, duration.Nanoseconds())
}

// IncTripsBooked adds n booked trips.
func (m *InMemoryRecorder) IncTripsBooked(n int) {
	if n > 0 {
		atomic.AddUint64(&m.tripsBooked, uint64(n))
	}
}

// IncTripsBookFailed adds n trips that could not be booked.
func (m *InMemoryRecorder) IncTripsBookFailed(n int) {
	if n > 0 {
		atomic.AddUint64(&m.tripsBookFailed, uint64(n))
	}
}

// IncTripCancelled counts a cancellation attempt.
func (m *InMemoryRecorder) IncTripCancelled(success bool) {
	if success {
		atomic.AddUint64(&m.tripsCancelled, 1)
		return
	}
	atomic.AddUint64(&m.tripCancelFailures, 1)
}

// IncEventPublished counts a publish outcome.
func (m *InMemoryRecorder) IncEventPublished(outcome string) {
	switch outcome {
	case EventPublished:
		atomic.AddUint64(&m.eventsPublished, 1)
	case EventDropped:
		atomic.AddUint64(&m.eventsDropped, 1)
	}
}
