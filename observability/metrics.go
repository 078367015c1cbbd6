package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records request activity on the savings HTTP API.
type APIMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

// SnapshotMetrics records the health of the campaign snapshot pipeline.
type SnapshotMetrics struct {
	refreshes *prometheus.CounterVec
	latency   prometheus.Histogram
	records   *prometheus.GaugeVec
	age       prometheus.Gauge
	matches   *prometheus.HistogramVec
}

var (
	apiMetricsOnce sync.Once
	apiRegistry    *APIMetrics

	snapshotMetricsOnce sync.Once
	snapshotRegistry    *SnapshotMetrics
)

// API returns the lazily-initialised API metrics registered with the
// default prometheus registry.
func API() *APIMetrics {
	apiMetricsOnce.Do(func() {
		apiRegistry = &APIMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "esusu",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total savings API requests segmented by route and outcome.",
			}, []string{"route", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "esusu",
				Subsystem: "api",
				Name:      "errors_total",
				Help:      "Total savings API errors segmented by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "esusu",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for savings API handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "esusu",
				Subsystem: "api",
				Name:      "throttles_total",
				Help:      "Count of API requests rejected by rate limiting.",
			}, []string{"route"}),
		}
		prometheus.MustRegister(
			apiRegistry.requests,
			apiRegistry.errors,
			apiRegistry.latency,
			apiRegistry.throttles,
		)
	})
	return apiRegistry
}

// Observe records the outcome of an API request. status is the HTTP status
// written to the client.
func (m *APIMetrics) Observe(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
	m.requests.WithLabelValues(route, method, outcome).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordThrottle counts a request rejected by the rate limiter.
func (m *APIMetrics) RecordThrottle(route string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.throttles.WithLabelValues(route).Inc()
}

// Snapshot returns the lazily-initialised snapshot metrics registered with
// the default prometheus registry.
func Snapshot() *SnapshotMetrics {
	snapshotMetricsOnce.Do(func() {
		snapshotRegistry = &SnapshotMetrics{
			refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "esusu",
				Subsystem: "snapshot",
				Name:      "refreshes_total",
				Help:      "Snapshot refresh attempts segmented by outcome.",
			}, []string{"outcome"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "esusu",
				Subsystem: "snapshot",
				Name:      "refresh_duration_seconds",
				Help:      "Time spent reading a snapshot from its source.",
				Buckets:   prometheus.DefBuckets,
			}),
			records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "esusu",
				Subsystem: "snapshot",
				Name:      "records",
				Help:      "Records held by the current snapshot segmented by kind.",
			}, []string{"kind"}),
			age: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "esusu",
				Subsystem: "snapshot",
				Name:      "taken_timestamp_seconds",
				Help:      "Unix time at which the current snapshot was taken.",
			}),
			matches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "esusu",
				Subsystem: "snapshot",
				Name:      "filter_matches",
				Help:      "Number of records returned by filter queries.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			}, []string{"kind"}),
		}
		prometheus.MustRegister(
			snapshotRegistry.refreshes,
			snapshotRegistry.latency,
			snapshotRegistry.records,
			snapshotRegistry.age,
			snapshotRegistry.matches,
		)
	})
	return snapshotRegistry
}

// ObserveRefresh records a refresh attempt. Outcomes should be stable
// strings such as "updated", "unchanged", "throttled" or "error".
func (m *SnapshotMetrics) ObserveRefresh(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	if duration > 0 {
		m.latency.Observe(duration.Seconds())
	}
}

// SetCurrent publishes the size and timestamp of the snapshot being served.
func (m *SnapshotMetrics) SetCurrent(campaigns, locks int, takenAt time.Time) {
	if m == nil {
		return
	}
	m.records.WithLabelValues("campaign").Set(float64(campaigns))
	m.records.WithLabelValues("lock").Set(float64(locks))
	m.age.Set(float64(takenAt.Unix()))
}

// ObserveMatches records how many records a filter query returned.
func (m *SnapshotMetrics) ObserveMatches(kind string, matched int) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(kind).Observe(float64(matched))
}
