package interfaces

import (
	"context"

	"edgegateway/domain"
)

// Discoverer is the read side of a discovery backend: which services exist and which instances each one has.
//
// Failures are non-fatal to callers: the refresher keeps the previous list for a service whose fetch fails
// and retries with backoff. Implementations must honour ctx cancellation and deadlines.
//
// Implemented by adapters.DiscovererHTTP (registry service), adapters.DiscovererConsul, adapters.DiscovererEtcd
// and adapters.DiscovererStatic. Called from service.Refresher.Refresh.
//
//go:generate moq -stub -out mock/discoverer.go -pkg mock . Discoverer
type Discoverer interface {
	// ListServices returns the names of all services the backend currently knows about.
	// Returns: (names, nil) on success, possibly empty; (nil, error) on network or decoding error.
	// Called only when the discovery locator is enabled.
	ListServices(ctx context.Context) ([]domain.ServiceName, error)

	// ListInstances returns the live instances of one service.
	// Returns: (instances, nil) on success; an unknown service yields an empty slice, not an error; (nil, error) when the backend is unreachable or the answer cannot be decoded.
	ListInstances(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error)
}
