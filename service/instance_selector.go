package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/puzpuzpuz/xsync/v4"
)

// ErrNoHealthyInstance is returned by Select when the service has no instance eligible for traffic.
var ErrNoHealthyInstance = errors.New("no healthy instance available")

// instanceSelector implements interfaces.InstanceSelector.
//
// Policy, per request:
//  1. a SUSPECT or UNHEALTHY instance whose probe slot is free receives the request as a probe;
//  2. otherwise round-robin over HEALTHY instances;
//  3. otherwise round-robin over SUSPECT instances;
//  4. otherwise ErrNoHealthyInstance.
//
// Instances come from the current snapshot in InstanceID order; an entry not confirmed within stalenessLimit
// counts as empty. The cursor of each service is an atomic counter, so concurrent selections never observe
// the same cursor value.
type instanceSelector struct {
	store          interfaces.SnapshotStore
	tracker        interfaces.HealthTracker
	clock          interfaces.TimeProvider
	stalenessLimit time.Duration
	logger         log.Logger

	cursors *xsync.Map[domain.ServiceName, *atomic.Uint64]
}

// NewInstanceSelector creates the selector. Panics on nil store, tracker, clock or logger.
//
// Parameters: stalenessLimit - maximum age of a service entry's last confirmation; <= 0 disables the check.
//
// Called from cmd/gateway at startup.
func NewInstanceSelector(
	store interfaces.SnapshotStore,
	tracker interfaces.HealthTracker,
	clock interfaces.TimeProvider,
	stalenessLimit time.Duration,
	logger log.Logger,
) *instanceSelector {
	return &instanceSelector{
		store:          helpers.NilPanic(store, "service.instance_selector.go: store is required"),
		tracker:        helpers.NilPanic(tracker, "service.instance_selector.go: tracker is required"),
		clock:          helpers.NilPanic(clock, "service.instance_selector.go: clock is required"),
		stalenessLimit: stalenessLimit,
		logger:         log.With(helpers.NilPanic(logger, "service.instance_selector.go: logger is required"), "component", "instance_selector"),
		cursors:        xsync.NewMap[domain.ServiceName, *atomic.Uint64](),
	}
}

// Select returns the instance of name that receives the next request.
//
// Returns: (instance, nil); (zero, error wrapping ErrNoHealthyInstance) when the service is unknown, stale,
// has no instances, or every instance is UNHEALTHY without a free probe slot.
//
// Called from service.Gateway.ServeHTTP.
func (s *instanceSelector) Select(name domain.ServiceName) (domain.Instance, error) {
	entry, ok := s.store.Current().Service(name)
	if !ok || len(entry.Instances) == 0 {
		return domain.Instance{}, fmt.Errorf("%w: service %q has no instances", ErrNoHealthyInstance, name)
	}
	if entry.Stale(s.clock.Now(), s.stalenessLimit) {
		level.Debug(s.logger).Log("msg", "service entry is stale", "service", name, "confirmed_at", entry.ConfirmedAt)
		return domain.Instance{}, fmt.Errorf("%w: service %q registry entry is stale", ErrNoHealthyInstance, name)
	}

	var healthy, suspect []domain.Instance
	for _, inst := range entry.Instances {
		status := domain.HealthHealthy
		if state, known := s.tracker.State(inst.Key()); known {
			status = state.Status
		}
		if status == domain.HealthHealthy {
			healthy = append(healthy, inst)
			continue
		}
		if s.tracker.TryProbe(inst.Key()) {
			level.Debug(s.logger).Log("msg", "probe request", "instance", inst.Key(), "status", status)
			return inst, nil
		}
		if status == domain.HealthSuspect {
			suspect = append(suspect, inst)
		}
	}

	candidates := healthy
	if len(candidates) == 0 {
		candidates = suspect
	}
	if len(candidates) == 0 {
		return domain.Instance{}, fmt.Errorf("%w: service %q", ErrNoHealthyInstance, name)
	}
	next := s.cursor(name).Add(1) - 1
	return candidates[next%uint64(len(candidates))], nil
}

// cursor returns the round-robin counter of name, creating it on first use.
func (s *instanceSelector) cursor(name domain.ServiceName) *atomic.Uint64 {
	if c, ok := s.cursors.Load(name); ok {
		return c
	}
	c, _ := s.cursors.LoadOrStore(name, new(atomic.Uint64))
	return c
}
