package service

import (
	"sync"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// DiscoveryHealthService is the gRPC health service name that reports NOT_SERVING while discovery is degraded.
const DiscoveryHealthService = "gateway.discovery"

// GRPCHealthReporter mirrors the registry into a grpc health server: the overall status ("") is always
// SERVING, every known service is SERVING while it has at least one instance and its entry is not stale (the same
// rule the instance selector applies), and DiscoveryHealthService
// follows degraded mode. Services that leave the snapshot are reported as SERVICE_UNKNOWN by the health server.
//
// Implements interfaces.DiscoveryStatusListener.
type GRPCHealthReporter struct {
	server         *health.Server
	clock          interfaces.TimeProvider
	stalenessLimit time.Duration

	mu    sync.Mutex // guards known
	known map[domain.ServiceName]struct{}
}

// NewGRPCHealthReporter creates the reporter and marks the gateway itself as SERVING. Panics on nil server or clock.
//
// Parameters: stalenessLimit - maximum age of a service entry's last confirmation; <= 0 disables the check.
//
// Called from cmd/gateway; the server is registered with grpc_health_v1.RegisterHealthServer.
func NewGRPCHealthReporter(server *health.Server, clock interfaces.TimeProvider, stalenessLimit time.Duration) *GRPCHealthReporter {
	r := &GRPCHealthReporter{
		server:         helpers.NilPanic(server, "service.grpc_health.go: health server is required"),
		clock:          helpers.NilPanic(clock, "service.grpc_health.go: clock is required"),
		stalenessLimit: stalenessLimit,
		known:          make(map[domain.ServiceName]struct{}),
	}
	server.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	server.SetServingStatus(DiscoveryHealthService, grpc_health_v1.HealthCheckResponse_SERVING)
	return r
}

// SnapshotPublished updates the status of every service of snap and clears services that disappeared.
func (r *GRPCHealthReporter) SnapshotPublished(snap *domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	next := make(map[domain.ServiceName]struct{})
	for _, name := range snap.ServiceNames() {
		next[name] = struct{}{}
		status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
		if entry, _ := snap.Service(name); len(entry.Instances) > 0 && !entry.Stale(now, r.stalenessLimit) {
			status = grpc_health_v1.HealthCheckResponse_SERVING
		}
		r.server.SetServingStatus(string(name), status)
	}
	for name := range r.known {
		if _, ok := next[name]; !ok {
			r.server.SetServingStatus(string(name), grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN)
		}
	}
	r.known = next
}

// DiscoveryDegraded sets DiscoveryHealthService to NOT_SERVING while degraded.
func (r *GRPCHealthReporter) DiscoveryDegraded(degraded bool) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if degraded {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus(DiscoveryHealthService, status)
}

// Shutdown sets every status to NOT_SERVING; called once on graceful stop.
func (r *GRPCHealthReporter) Shutdown() {
	r.server.Shutdown()
}
