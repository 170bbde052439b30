package interfaces

import "net/http"

// TransportPool hands out one pooled http.RoundTripper per instance address (host:port).
//
// Implemented by service.transportPool. RoundTripper is called by service.forwarder per request;
// Evict by service.Refresher for addresses that left the snapshot; Close on shutdown.
type TransportPool interface {
	// RoundTripper returns the transport for address, creating it on first use.
	// Returns: error wrapping service.ErrTransportPoolClosed after Close.
	RoundTripper(address string) (http.RoundTripper, error)
	// Evict closes idle connections to address and forgets its transport.
	Evict(address string)
	// Close evicts every address. Idempotent.
	Close() error
}
