package interfaces

import "edgegateway/domain"

// InstanceSelector picks the instance of a service that receives the next request.
//
// Implemented by service.instanceSelector (round-robin over HEALTHY, SUSPECT fallback, probe slots).
// Called from service.Gateway.ServeHTTP after route resolution.
//
//go:generate moq -stub -out mock/instance_selector.go -pkg mock . InstanceSelector
type InstanceSelector interface {
	// Select returns an instance of name.
	// Returns: (instance, nil); error wrapping service.ErrNoHealthyInstance when the service is unknown, stale, empty or has no eligible instance.
	Select(name domain.ServiceName) (domain.Instance, error)
}
