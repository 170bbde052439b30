package domain

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// ServiceName is the logical, case-insensitive name of a backend service (e.g. "order-svc").
// Always stored lower-cased; use NormalizeServiceName when taking a name from config, a request path or a discovery backend.
type ServiceName string

// NormalizeServiceName trims spaces and lower-cases name.
func NormalizeServiceName(name string) ServiceName {
	return ServiceName(strings.ToLower(strings.TrimSpace(name)))
}

// InstanceKey identifies one instance of a service: (ServiceName, InstanceID).
type InstanceKey struct {
	Service    ServiceName
	InstanceID string
}

// String returns "service/instance_id" for logs and metric labels.
func (k InstanceKey) String() string {
	return string(k.Service) + "/" + k.InstanceID
}

// Instance is one network endpoint of a service as reported by the discovery backend.
// An Instance is never mutated after it is placed in a Snapshot; a changed Host or Port is a new descriptor for the same key.
// RegisteredAt is the time the registry last confirmed the instance (snapshot build time when the backend does not report it).
type Instance struct {
	ServiceName  ServiceName
	InstanceID   string
	Host         string
	Port         int
	RegisteredAt time.Time
}

// Key returns the (service, instance id) identity of the instance.
func (i Instance) Key() InstanceKey {
	return InstanceKey{Service: i.ServiceName, InstanceID: i.InstanceID}
}

// Address returns host:port suitable for dialing (IPv6 hosts are bracketed).
func (i Instance) Address() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

// SameEndpoint reports whether i and other describe the same key at the same address.
func (i Instance) SameEndpoint(other Instance) bool {
	return i.Key() == other.Key() && i.Host == other.Host && i.Port == other.Port
}
