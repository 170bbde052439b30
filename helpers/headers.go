package helpers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"
)

const (
	// HeaderRequestID carries the per-request correlation id to the downstream instance and back to the client.
	HeaderRequestID      = "X-Request-Id"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderForwardedHost  = "X-Forwarded-Host"
	HeaderForwardedProto = "X-Forwarded-Proto"
)

// hopByHopHeaders apply to a single connection and are never forwarded (RFC 9110 section 7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// RemoveHopByHopHeaders deletes the standard hop-by-hop headers from h, plus every header named in its Connection header.
func RemoveHopByHopHeaders(h http.Header) {
	for _, value := range h.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// HopByHopProcessor strips hop-by-hop headers from the outgoing request. "TE: trailers" survives so
// downstream gRPC-web or trailer-producing services keep working.
type HopByHopProcessor struct{}

func (HopByHopProcessor) Process(_ context.Context, headers http.Header, inbound *http.Request) (http.Header, error) {
	RemoveHopByHopHeaders(headers)
	if httpguts.HeaderValuesContainsToken(inbound.Header["Te"], "trailers") {
		headers.Set("Te", "trailers")
	}
	return headers, nil
}

// ForwardedProcessor appends the client address to X-Forwarded-For and sets X-Forwarded-Host and X-Forwarded-Proto from the inbound request.
type ForwardedProcessor struct{}

func (ForwardedProcessor) Process(_ context.Context, headers http.Header, inbound *http.Request) (http.Header, error) {
	if clientIP, _, err := net.SplitHostPort(inbound.RemoteAddr); err == nil {
		if prior := headers.Values(HeaderForwardedFor); len(prior) > 0 {
			clientIP = strings.Join(prior, ", ") + ", " + clientIP
		}
		headers.Set(HeaderForwardedFor, clientIP)
	}
	if headers.Get(HeaderForwardedHost) == "" && inbound.Host != "" {
		headers.Set(HeaderForwardedHost, inbound.Host)
	}
	if headers.Get(HeaderForwardedProto) == "" {
		proto := "http"
		if inbound.TLS != nil {
			proto = "https"
		}
		headers.Set(HeaderForwardedProto, proto)
	}
	return headers, nil
}

// RequestIDProcessor sets X-Request-Id when the client did not send one. NewID defaults to uuid.NewString.
type RequestIDProcessor struct {
	NewID func() string
}

func (p RequestIDProcessor) Process(_ context.Context, headers http.Header, _ *http.Request) (http.Header, error) {
	if headers.Get(HeaderRequestID) != "" {
		return headers, nil
	}
	newID := p.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	headers.Set(HeaderRequestID, newID())
	return headers, nil
}
