package service

import (
	"context"
	"net"
	"testing"
	"time"

	"edgegateway/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func checkStatus(t *testing.T, server *health.Server, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := server.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestNewGRPCHealthReporter_Panics(t *testing.T) {
	clock := newFakeClock().provider()
	assert.PanicsWithValue(t, "service.grpc_health.go: health server is required", func() {
		NewGRPCHealthReporter(nil, clock, time.Minute)
	})
	assert.PanicsWithValue(t, "service.grpc_health.go: clock is required", func() {
		NewGRPCHealthReporter(health.NewServer(), nil, time.Minute)
	})
}

func TestGRPCHealthReporter_SnapshotPublished(t *testing.T) {
	server := health.NewServer()
	reporter := NewGRPCHealthReporter(server, newFakeClock().provider(), time.Minute)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, ""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, DiscoveryHealthService))

	reporter.SnapshotPublished(domain.NewSnapshot(1, testNow(), map[domain.ServiceName]domain.ServiceEntry{
		"order-svc": {Instances: []domain.Instance{testInstance("order-svc", "a", 8080)}, ConfirmedAt: testNow()},
		"empty-svc": {ConfirmedAt: testNow()},
	}))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, "order-svc"))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, checkStatus(t, server, "empty-svc"))

	_, err := server.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "unknown-svc"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	reporter.SnapshotPublished(domain.NewSnapshot(2, testNow(), map[domain.ServiceName]domain.ServiceEntry{
		"empty-svc": {Instances: []domain.Instance{testInstance("empty-svc", "e", 8081)}, ConfirmedAt: testNow()},
	}))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN, checkStatus(t, server, "order-svc"))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, "empty-svc"))
}

func TestGRPCHealthReporter_StaleServiceNotServing(t *testing.T) {
	server := health.NewServer()
	clock := newFakeClock()
	reporter := NewGRPCHealthReporter(server, clock.provider(), time.Minute)
	confirmed := clock.Now()

	snap := domain.NewSnapshot(1, confirmed, map[domain.ServiceName]domain.ServiceEntry{
		"order-svc": {Instances: []domain.Instance{testInstance("order-svc", "a", 8080)}, ConfirmedAt: confirmed},
	})
	reporter.SnapshotPublished(snap)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, "order-svc"))

	// A failed fetch carries the entry forward with its old confirmation time.
	clock.Advance(2 * time.Minute)
	reporter.SnapshotPublished(domain.NewSnapshot(2, clock.Now(), map[domain.ServiceName]domain.ServiceEntry{
		"order-svc": {Instances: []domain.Instance{testInstance("order-svc", "a", 8080)}, ConfirmedAt: confirmed},
	}))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, checkStatus(t, server, "order-svc"))

	reporter.SnapshotPublished(domain.NewSnapshot(3, clock.Now(), map[domain.ServiceName]domain.ServiceEntry{
		"order-svc": {Instances: []domain.Instance{testInstance("order-svc", "a", 8080)}, ConfirmedAt: clock.Now()},
	}))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, "order-svc"))
}

func TestGRPCHealthReporter_DiscoveryDegraded(t *testing.T) {
	server := health.NewServer()
	reporter := NewGRPCHealthReporter(server, newFakeClock().provider(), time.Minute)

	reporter.DiscoveryDegraded(true)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, checkStatus(t, server, DiscoveryHealthService))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, ""))

	reporter.DiscoveryDegraded(false)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, checkStatus(t, server, DiscoveryHealthService))
}

func TestGRPCHealthReporter_OverGRPC(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reporter := NewGRPCHealthReporter(healthServer, newFakeClock().provider(), time.Minute)
	reporter.SnapshotPublished(snapshotOf(1, testInstance("order-svc", "a", 8080)))

	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.GracefulStop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "order-svc"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	reporter.Shutdown()
	resp, err = grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "order-svc"})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}
