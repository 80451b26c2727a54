package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Handlers and the tracker depend on this instead of the global Prometheus
// collectors so tests can inject a no-op.
type MetricsRegistry interface {
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	IncrementEvent(eventType string)
	IncrementTrackingFailures(eventType string)

	IncrementCapacityRejections(slot string)
	SetEligibleCampaigns(slot string, n int)
}

// PrometheusRegistry implements MetricsRegistry over the package collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementEvent(eventType string) {
	EventCount.WithLabelValues(eventType).Inc()
}

func (r *PrometheusRegistry) IncrementTrackingFailures(eventType string) {
	TrackingFailures.WithLabelValues(eventType).Inc()
}

func (r *PrometheusRegistry) IncrementCapacityRejections(slot string) {
	CapacityRejections.WithLabelValues(slot).Inc()
}

func (r *PrometheusRegistry) SetEligibleCampaigns(slot string, n int) {
	EligibleCampaigns.WithLabelValues(slot).Set(float64(n))
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementEvent(eventType string)                                      {}
func (r *NoOpRegistry) IncrementTrackingFailures(eventType string)                           {}
func (r *NoOpRegistry) IncrementCapacityRejections(slot string)                              {}
func (r *NoOpRegistry) SetEligibleCampaigns(slot string, n int)                              {}
