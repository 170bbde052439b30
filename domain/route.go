package domain

import (
	"strconv"
	"strings"
)

// RouteRule maps a path prefix to a logical service.
// PathPrefix starts with "/" and has no trailing "/" (except the root prefix "/"). It matches the path itself and any
// path continuing with "/". When StripPrefix is set the matched prefix is removed before forwarding.
type RouteRule struct {
	PathPrefix    string
	TargetService ServiceName
	StripPrefix   bool
}

// RouteConfig is the static route table in declaration order.
// DiscoveryLocator enables implicit "/{service}/**" routes for every service present in the registry.
type RouteConfig struct {
	Rules            []RouteRule
	DiscoveryLocator bool
}

// RouteMatch is the outcome of resolving a request path.
// Rule is the zero value when the match came from the discovery locator.
type RouteMatch struct {
	Service        ServiceName
	DownstreamPath string
	Rule           RouteRule
}

// NormalizePrefix trims spaces, drops a trailing "/**", "*" or "/", and adds a leading "/" so "orders/**" and "/orders/" both become "/orders".
func NormalizePrefix(prefix string) string {
	p := strings.TrimSpace(prefix)
	p = strings.TrimSuffix(p, "**")
	p = strings.TrimSuffix(p, "*")
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	if p != "" && p[0] != '/' {
		p = "/" + p
	}
	return p
}

// ValidateRouteConfig validates each rule: PathPrefix is non-empty, starts with "/", holds no wildcard and no trailing "/" (except "/"),
// TargetService is non-empty. Repeated prefixes are accepted; the resolver keeps declaration order so the first one wins.
//
// Returns: nil when valid; *RouteConfigError with the 0-based rule Index and Reason for the first problem found.
//
// Called from service.NewRouteResolver and cmd/gateway LoadConfig.
func ValidateRouteConfig(cfg RouteConfig) error {
	for i, r := range cfg.Rules {
		if r.PathPrefix == "" {
			return &RouteConfigError{Index: i, Reason: "prefix must be non-empty"}
		}
		if r.PathPrefix[0] != '/' {
			return &RouteConfigError{Index: i, Reason: "prefix must start with /"}
		}
		if strings.Contains(r.PathPrefix, "*") {
			return &RouteConfigError{Index: i, Reason: "prefix must not contain wildcards"}
		}
		if len(r.PathPrefix) > 1 && strings.HasSuffix(r.PathPrefix, "/") {
			return &RouteConfigError{Index: i, Reason: "prefix must not end with /"}
		}
		if strings.TrimSpace(string(r.TargetService)) == "" {
			return &RouteConfigError{Index: i, Reason: "service must be non-empty"}
		}
	}
	return nil
}

// RouteConfigError is returned by ValidateRouteConfig. Index is the 0-based rule index; Reason is a human-readable message.
type RouteConfigError struct {
	Index  int
	Reason string
}

// Error returns "route[N]: reason".
func (e *RouteConfigError) Error() string {
	return "route[" + strconv.Itoa(e.Index) + "]: " + e.Reason
}
