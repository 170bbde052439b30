package interfaces

import "edgegateway/domain"

// RouteResolver maps an inbound request path to a logical service and the path to send downstream.
//
// Implemented by service.routeResolver (static rule table), service.discoveryLocator ("/{service}/**")
// and service.RouteResolverChain which tries them in order. Must be safe for concurrent use.
//
//go:generate moq -stub -out mock/route_resolver.go -pkg mock . RouteResolver
type RouteResolver interface {
	// Resolve returns the match for path, the escaped request path (URL.EscapedPath); DownstreamPath stays escaped.
	// Returns: (match, nil) on success; error wrapping service.ErrNoRouteMatch when nothing matches.
	// Called from service.Gateway.ServeHTTP for every inbound request.
	Resolve(path string) (domain.RouteMatch, error)
}
