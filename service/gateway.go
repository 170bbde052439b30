package service

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Gateway is the inbound HTTP handler. For every request it:
//  1. resolves the escaped path to a service and downstream path via RouteResolver (404 route_not_found on miss);
//  2. selects an instance via InstanceSelector (503 service_unavailable when none is eligible);
//  3. forwards via Forwarder, which streams the response and reports the outcome to the health tracker;
//  4. writes a coded JSON error when forwarding failed before anything was sent (504 gateway_timeout, 502 bad_gateway).
//
// Errors are never retried against another instance.
type Gateway struct {
	resolver  interfaces.RouteResolver
	selector  interfaces.InstanceSelector
	forwarder interfaces.Forwarder
	errors    *HTTPErrorHandler
	logger    log.Logger
}

// NewGateway creates the handler. Panics on nil resolver, selector, forwarder or logger.
//
// Called from cmd/gateway; served by the public HTTP server.
func NewGateway(
	resolver interfaces.RouteResolver,
	selector interfaces.InstanceSelector,
	forwarder interfaces.Forwarder,
	logger log.Logger,
) *Gateway {
	logger = log.With(helpers.NilPanic(logger, "service.gateway.go: logger is required"), "component", "gateway")
	return &Gateway{
		resolver:  helpers.NilPanic(resolver, "service.gateway.go: resolver is required"),
		selector:  helpers.NilPanic(selector, "service.gateway.go: selector is required"),
		forwarder: helpers.NilPanic(forwarder, "service.gateway.go: forwarder is required"),
		errors:    NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger),
		logger:    logger,
	}
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	match, err := g.resolver.Resolve(r.URL.EscapedPath())
	if err != nil {
		status := g.errors.WriteError(w, r, err)
		MetricRequests.WithLabelValues("", strconv.Itoa(status)).Inc()
		return
	}
	service := string(match.Service)

	target, err := g.selector.Select(match.Service)
	if err != nil {
		status := g.errors.WriteError(w, r, err)
		MetricRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
		return
	}

	result, err := g.forwarder.Forward(w, r, target, match.DownstreamPath)
	status := result.StatusCode
	switch {
	case err == nil:
	case errors.Is(err, ErrClientCanceled):
		// 499 follows the nginx convention for a client that closed the connection.
		status = 499
		level.Debug(g.logger).Log("msg", "client canceled request", "path", r.URL.Path, "instance", target.Key())
	case result.StatusCode == 0:
		status = g.errors.WriteError(w, r, err)
	default:
		level.Warn(g.logger).Log(
			"msg", "response interrupted after headers were sent",
			"path", r.URL.Path,
			"instance", target.Key(),
			"err", err,
		)
	}
	MetricRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()

	level.Debug(g.logger).Log(
		"msg", "request forwarded",
		"method", r.Method,
		"path", r.URL.Path,
		"service", service,
		"instance", target.Key(),
		"downstream_path", match.DownstreamPath,
		"status", status,
		"took", time.Since(start),
	)
}
