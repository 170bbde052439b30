package interfaces

import "edgegateway/domain"

// HealthTracker keeps the passive health state of every instance in the current snapshot.
//
// Only instances registered by the refresher have state. Outcomes for unknown keys, or for a descriptor
// whose address no longer matches the registered one, are ignored. Transitions of one instance are
// serialized; different instances are independent.
//
// Implemented by service.healthTracker. Register/Remove are called by service.Refresher; Record by
// service.forwarder; State/TryProbe by service.instanceSelector; States by the admin API.
//
//go:generate moq -stub -out mock/health_tracker.go -pkg mock . HealthTracker
type HealthTracker interface {
	// Register installs a fresh HEALTHY record for inst, replacing any previous one for the same key.
	Register(inst domain.Instance)
	// Remove drops the record for key.
	Remove(key domain.InstanceKey)
	// Record applies one exchange outcome and returns the resulting state; ok is false when the outcome was ignored.
	Record(inst domain.Instance, outcome domain.Outcome) (state domain.HealthState, ok bool)
	// State returns the current record for key.
	State(key domain.InstanceKey) (domain.HealthState, bool)
	// TryProbe reports whether a SUSPECT or UNHEALTHY instance may receive a probe request now, consuming the probe slot.
	TryProbe(key domain.InstanceKey) bool
	// States returns a copy of all records.
	States() map[domain.InstanceKey]domain.HealthState
}
