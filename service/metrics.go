package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics. Collectors work unregistered (tests); cmd/gateway calls InitMetrics once.
var (
	MetricRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgegateway_requests_total",
			Help: "Inbound requests by target service and response status code",
		},
		[]string{"service", "code"},
	)
	MetricForwardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edgegateway_forward_duration_seconds",
			Help:    "Duration of downstream exchanges, from sending the request to the end of the response body",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "outcome"},
	)
	MetricHealthTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgegateway_health_transitions_total",
			Help: "Instance health status transitions",
		},
		[]string{"service", "from", "to"},
	)
	MetricSnapshotsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edgegateway_snapshots_published_total",
			Help: "Total number of registry snapshots published",
		},
	)
	MetricServicesDiscovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "edgegateway_services_discovered",
			Help: "Number of services in the current snapshot",
		},
	)
	MetricInstancesDiscovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "edgegateway_instances_discovered",
			Help: "Number of instances in the current snapshot",
		},
	)
	MetricDiscoveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "edgegateway_discovery_failures_total",
			Help: "Refresh cycles with at least one failed discovery call",
		},
	)
	MetricDiscoveryDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "edgegateway_discovery_degraded",
			Help: "1 while the discovery backend is considered degraded",
		},
	)
)

// InitMetrics registers Prometheus metrics
func InitMetrics() {
	prometheus.MustRegister(MetricRequests)
	prometheus.MustRegister(MetricForwardDuration)
	prometheus.MustRegister(MetricHealthTransitions)
	prometheus.MustRegister(MetricSnapshotsPublished)
	prometheus.MustRegister(MetricServicesDiscovered)
	prometheus.MustRegister(MetricInstancesDiscovered)
	prometheus.MustRegister(MetricDiscoveryFailures)
	prometheus.MustRegister(MetricDiscoveryDegraded)
}
