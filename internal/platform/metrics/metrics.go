package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saferoute_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saferoute_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "route"},
	)

	RouteFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saferoute_route_fetch_duration_seconds",
			Help:    "Latency of candidate route fetches by outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// outcome: scored, scoring_timeout, scoring_malformed, scoring_unavailable, scoring_failed
	ScoringOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saferoute_scoring_outcomes_total",
			Help: "Per-route safety scoring outcomes.",
		},
		[]string{"outcome"},
	)

	IncidentLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saferoute_incident_lookup_failures_total",
			Help: "Corridor incident lookups that failed and were treated as empty.",
		},
	)

	PipelinesIncomplete = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saferoute_pipelines_incomplete_total",
			Help: "Route pipelines still running when the request deadline elapsed.",
		},
	)

	AssessmentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saferoute_assessment_cache_lookups_total",
			Help: "Assessment cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	// 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "saferoute_circuit_breaker_state",
			Help: "Circuit breaker state per upstream.",
		},
		[]string{"name"},
	)
)
