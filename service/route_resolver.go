package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"
)

// ErrNoRouteMatch is returned by Resolve when no rule prefix matches the request path.
var ErrNoRouteMatch = errors.New("no route matches request path")

// routeResolver implements interfaces.RouteResolver over the static rule table using longest-prefix match:
// rules are stored sorted by prefix length (descending, stable so equal lengths keep declaration order) and the
// first matching prefix wins. A prefix matches on path segment boundaries only, so "/order" does not match "/orders".
// The table is read-only after construction; Resolve is safe for concurrent use.
type routeResolver struct {
	rules []domain.RouteRule
}

// NewRouteResolver validates cfg via ValidateRouteConfig, copies the rules with service names normalized and
// sorts them for longest-prefix match.
//
// Returns: (*routeResolver, nil) on success; (nil, *domain.RouteConfigError) on invalid config.
//
// Called from cmd/gateway at startup.
func NewRouteResolver(cfg domain.RouteConfig) (*routeResolver, error) {
	if err := domain.ValidateRouteConfig(cfg); err != nil {
		return nil, err
	}
	rules := make([]domain.RouteRule, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		rule.TargetService = domain.NormalizeServiceName(string(rule.TargetService))
		rules[i] = rule
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].PathPrefix) > len(rules[j].PathPrefix)
	})
	return &routeResolver{rules: rules}, nil
}

// Resolve returns the service and downstream path for path.
//
// Returns: (match, nil) for the longest matching prefix; (zero, error wrapping ErrNoRouteMatch) otherwise.
//
// Called from service.Gateway.ServeHTTP through RouteResolverChain.
func (r *routeResolver) Resolve(path string) (domain.RouteMatch, error) {
	for _, rule := range r.rules {
		if !prefixMatches(path, rule.PathPrefix) {
			continue
		}
		downstream := path
		if rule.StripPrefix {
			downstream = stripPrefix(path, rule.PathPrefix)
		}
		return domain.RouteMatch{
			Service:        rule.TargetService,
			DownstreamPath: downstream,
			Rule:           rule,
		}, nil
	}
	return domain.RouteMatch{}, fmt.Errorf("%w: %s", ErrNoRouteMatch, path)
}

// Rules returns the rule table in match order.
func (r *routeResolver) Rules() []domain.RouteRule {
	out := make([]domain.RouteRule, len(r.rules))
	copy(out, r.rules)
	return out
}

// prefixMatches reports whether path equals prefix or continues it with "/". The root prefix matches every absolute path.
func prefixMatches(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// stripPrefix removes prefix from path; the result always starts with "/" and is "/" when nothing remains.
func stripPrefix(path, prefix string) string {
	rest := path
	if prefix != "/" {
		rest = path[len(prefix):]
	}
	if rest == "" {
		return "/"
	}
	if rest[0] != '/' {
		rest = "/" + rest
	}
	return rest
}

// RouteResolverChain tries resolvers in order and returns the first match. A resolver error other than
// ErrNoRouteMatch stops the chain. Implements interfaces.RouteResolver.
type RouteResolverChain []interfaces.RouteResolver

// NewRouteResolverChain creates a chain. Panics on a nil element.
//
// Called from cmd/gateway: static rules first, then the discovery locator when enabled.
func NewRouteResolverChain(resolvers ...interfaces.RouteResolver) RouteResolverChain {
	for _, r := range resolvers {
		helpers.NilPanic(r, "service.route_resolver.go: resolver is required")
	}
	return RouteResolverChain(resolvers)
}

func (c RouteResolverChain) Resolve(path string) (domain.RouteMatch, error) {
	for _, r := range c {
		match, err := r.Resolve(path)
		if err == nil {
			return match, nil
		}
		if !errors.Is(err, ErrNoRouteMatch) {
			return domain.RouteMatch{}, err
		}
	}
	return domain.RouteMatch{}, fmt.Errorf("%w: %s", ErrNoRouteMatch, path)
}
