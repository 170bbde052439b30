package interfaces

import (
	"net/http"

	"edgegateway/domain"
)

// Forwarder sends one inbound request to a chosen instance and streams the response back to w.
//
// The forwarder reports the exchange outcome to the health tracker itself, exactly once per call
// (none when the client went away). When it returns an error and result.StatusCode is zero nothing has
// been written to w and the caller writes the error response; otherwise the response was already committed.
//
// downstreamPath is in escaped form; encoded bytes such as "%2F" reach the instance unchanged.
//
// Implemented by service.forwarder. Called from service.Gateway.ServeHTTP.
//
//go:generate moq -stub -out mock/forwarder.go -pkg mock . Forwarder
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, target domain.Instance, downstreamPath string) (domain.ForwardResult, error)
}
