package service

import (
	"fmt"
	"net/url"
	"strings"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"
)

// discoveryLocator implements interfaces.RouteResolver with one implicit route per registered service:
// "/{service}/**" goes to that service with the first segment stripped. The segment is compared
// case-insensitively against the services of the current snapshot, so a service becomes routable as soon as
// the refresher publishes it and stops being routable when it disappears from the registry.
type discoveryLocator struct {
	store interfaces.SnapshotStore
}

// NewDiscoveryLocator creates the locator over store. Panics on nil store.
//
// Called from cmd/gateway when discovery_locator.enabled is set.
func NewDiscoveryLocator(store interfaces.SnapshotStore) *discoveryLocator {
	return &discoveryLocator{
		store: helpers.NilPanic(store, "service.discovery_locator.go: store is required"),
	}
}

// Resolve maps "/{service}/rest" to (service, "/rest") when service is in the current snapshot.
//
// Returns: error wrapping ErrNoRouteMatch for paths without a first segment or with an unknown service.
func (l *discoveryLocator) Resolve(path string) (domain.RouteMatch, error) {
	trimmed, ok := strings.CutPrefix(path, "/")
	if !ok {
		return domain.RouteMatch{}, fmt.Errorf("%w: %s", ErrNoRouteMatch, path)
	}
	segment, rest, _ := strings.Cut(trimmed, "/")
	segment, err := url.PathUnescape(segment)
	if err != nil {
		return domain.RouteMatch{}, fmt.Errorf("%w: %s", ErrNoRouteMatch, path)
	}
	name := domain.NormalizeServiceName(segment)
	if name == "" || !l.store.Current().Has(name) {
		return domain.RouteMatch{}, fmt.Errorf("%w: %s", ErrNoRouteMatch, path)
	}
	return domain.RouteMatch{
		Service:        name,
		DownstreamPath: "/" + rest,
	}, nil
}
