package interfaces

import (
	"context"
	"net/http"
)

// HeaderProcessor rewrites the header set sent to the downstream instance.
//
// Processors are composed in helpers.HeaderProcessorChain, which hands each one a private copy of the
// inbound headers, so a processor may modify and return the map it receives. inbound is the original client
// request and must not be modified. An error aborts forwarding and is returned to the client as 500.
//
// Implemented by helpers.HopByHopProcessor, helpers.ForwardedProcessor and helpers.RequestIDProcessor.
// Called from service.forwarder.Forward before the downstream request is sent.
//
//go:generate moq -stub -out mock/header_processor.go -pkg mock . HeaderProcessor
type HeaderProcessor interface {
	// Process returns the outgoing header set.
	// Parameters: ctx - request context; headers - outgoing headers built so far (owned by the caller chain); inbound - client request (read-only).
	// Returns: (headers, nil) on success; (nil, error) to abort the request.
	Process(ctx context.Context, headers http.Header, inbound *http.Request) (http.Header, error)
}
