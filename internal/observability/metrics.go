// README: Prometheus collectors shared by the fleet, matching and HTTP layers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ridecore"

var (
	FleetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "fleet_cache_loads_total", Help: "Fleet cache loads by kind (initial, reload, error)"},
		[]string{"kind"},
	)
	FleetSize = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "fleet_cache_vehicles", Help: "Vehicles held in the fleet cache"})

	WriteThroughFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "vehicle_write_through_failures_total", Help: "Vehicle storage writes that failed after the cache was updated"},
		[]string{"op"},
	)
	CacheRollbacks = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "vehicle_cache_rollbacks_total", Help: "Cache entries restored after a failed storage write"})

	MatchesTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "matches_total", Help: "Total number of match requests"})
	MatchLatency   = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "match_latency_seconds", Help: "Match latency seconds"})
	OffersReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "offers_returned",
		Help:      "Offers returned per match request",
		Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
	})
	ReviewLookupFailures = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "review_lookup_failures_total", Help: "Review lookups that degraded to an empty list during matching"})

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_events_published_total", Help: "Ride events published by type and result"},
		[]string{"type", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
