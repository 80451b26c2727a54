package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorgrid_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sponsorgrid_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// engagement events recorded, labelled by type
	EventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorgrid_events_total",
			Help: "Total engagement events recorded",
		},
		[]string{"type"},
	)

	// tracking writes that failed and were swallowed
	TrackingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorgrid_tracking_failures_total",
			Help: "Total tracking writes that failed",
		},
		[]string{"type"},
	)

	// campaign writes rejected by the capacity arbiter, per slot
	CapacityRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsorgrid_capacity_rejections_total",
			Help: "Total campaign writes rejected for capacity",
		},
		[]string{"slot"},
	)

	// currently eligible campaigns per slot, refreshed on reload
	EligibleCampaigns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sponsorgrid_eligible_campaigns",
			Help: "Eligible campaigns per slot at last refresh",
		},
		[]string{"slot"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		EventCount,
		TrackingFailures,
		CapacityRejections,
		EligibleCampaigns,
	)
}
