package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry         *prometheus.Registry
	catalogCache     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	tripsBooked      prometheus.Counter
	tripsBookFailed  prometheus.Counter
	tripsCancelled   *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
}

// NewPrometheus creates a recorder with all collectors registered.
func NewPrometheus() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		catalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchdeck_catalog_cache_total",
			Help: "Catalog response lookups by cache outcome",
		}, []string{"outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "launchdeck_catalog_upstream_duration_seconds",
			Help:    "Latency of upstream catalog requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		tripsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchdeck_trips_booked_total",
			Help: "Trips successfully booked",
		}),
		tripsBookFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchdeck_trips_book_failed_total",
			Help: "Requested trips that could not be booked",
		}),
		tripsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchdeck_trip_cancellations_total",
			Help: "Trip cancellation attempts by result",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchdeck_events_published_total",
			Help: "Trip events by publish outcome",
		}, []string{"outcome"}),
	}

	r.registry.MustRegister(
		r.catalogCache,
		r.upstreamDuration,
		r.tripsBooked,
		r.tripsBookFailed,
		r.tripsCancelled,
		r.eventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncCatalogCache counts a cache outcome.
func (r *PrometheusRecorder) IncCatalogCache(outcome string) {
	r.catalogCache.WithLabelValues(outcome).Inc()
}

// ObserveUpstreamFetch records upstream latency. Status 0 is reported as "error".
func (r *PrometheusRecorder) ObserveUpstreamFetch(status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.upstreamDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncTripsBooked adds n booked trips.
func (r *PrometheusRecorder) IncTripsBooked(n int) {
	if n > 0 {
		r.tripsBooked.Add(float64(n))
	}
}

// IncTripsBookFailed adds n failed trips.
func (r *PrometheusRecorder) IncTripsBookFailed(n int) {
	if n > 0 {
		r.tripsBookFailed.Add(float64(n))
	}
}

// IncTripCancelled counts a cancellation attempt.
func (r *PrometheusRecorder) IncTripCancelled(success bool) {
	result := "not_booked"
	if success {
		result = "cancelled"
	}
	r.tripsCancelled.WithLabelValues(result).Inc()
}

// IncEventPublished counts a publish outcome.
func (r *PrometheusRecorder) IncEventPublished(outcome string) {
	r.eventsPublished.WithLabelValues(outcome).Inc()
}
