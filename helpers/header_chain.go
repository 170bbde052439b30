package helpers

import (
	"context"
	"net/http"
	"strconv"

	"edgegateway/interfaces"
)

// HeaderProcessorChain is a slice of HeaderProcessors run in sequence; each processor receives the output
// headers of the previous one. Implements interfaces.HeaderProcessor.
type HeaderProcessorChain []interfaces.HeaderProcessor

// NewHeaderProcessorChain creates a chain from the given processors. Panics on a nil element (fail-fast at startup).
//
// Called from cmd/gateway when building the forwarder (hop-by-hop, forwarded, request id).
func NewHeaderProcessorChain(processors ...interfaces.HeaderProcessor) HeaderProcessorChain {
	for i, p := range processors {
		if p == nil {
			panic("helpers.header_chain.go: processor at index " + strconv.Itoa(i) + " is required")
		}
	}
	return HeaderProcessorChain(processors)
}

// Process runs all processors in order on a copy of headers; the input map is not mutated. Returns the first processor error.
func (c HeaderProcessorChain) Process(ctx context.Context, headers http.Header, inbound *http.Request) (http.Header, error) {
	out := headers.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, p := range c {
		next, err := p.Process(ctx, out, inbound)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
