package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "focus"

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status class",
		},
		[]string{"method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// FocusComputations counts focus list generations by outcome:
	// computed, cached, not_found, config_error, data_error.
	FocusComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_computations_total",
			Help:      "Total number of focus list generations by outcome",
		},
		[]string{"outcome"},
	)

	FocusListSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_size",
			Help:      "Number of entries in computed focus lists",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	DraftFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_failures_total",
			Help:      "Total number of draft generations that fell back to the template",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of a daily batch over all tenants",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	BatchTenants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_tenants_total",
			Help:      "Tenants processed by the daily batch by result",
		},
		[]string{"result"},
	)
)
