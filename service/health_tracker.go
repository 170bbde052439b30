package service

import (
	"sync"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"
)

// healthTracker implements interfaces.HealthTracker. Records live in a concurrent map keyed by InstanceKey;
// each record has its own mutex so transitions of one instance are serialized while different instances
// never contend. Every record remembers the address it was registered with and ignores outcomes reported
// for another address (a request that was in flight when the refresher replaced the descriptor).
//
// Probe slots: when an instance leaves HEALTHY it gets a token bucket of one token refilled every
// probeInterval, created empty, so the first probe happens one full interval after the transition.
// probeInterval <= 0 disables probing.
type healthTracker struct {
	thresholds    domain.HealthThresholds
	probeInterval time.Duration
	clock         interfaces.TimeProvider
	logger        log.Logger

	entries *xsync.Map[domain.InstanceKey, *healthEntry]
}

// healthEntry is the mutable record of one instance; mu guards state and probe.
type healthEntry struct {
	address string

	mu    sync.Mutex
	state domain.HealthState
	probe *rate.Limiter
}

// NewHealthTracker creates an empty tracker. Panics on nil clock or logger and on invalid thresholds.
//
// Parameters: thresholds - state machine thresholds (domain.DefaultHealthThresholds in prod unless configured);
// probeInterval - minimum spacing of probe requests to one non-healthy instance; clock - time source; logger - transitions are logged.
//
// Called from cmd/gateway at startup.
func NewHealthTracker(
	thresholds domain.HealthThresholds,
	probeInterval time.Duration,
	clock interfaces.TimeProvider,
	logger log.Logger,
) *healthTracker {
	if err := thresholds.Validate(); err != nil {
		panic("service.health_tracker.go: " + err.Error())
	}
	return &healthTracker{
		thresholds:    thresholds,
		probeInterval: probeInterval,
		clock:         helpers.NilPanic(clock, "service.health_tracker.go: clock is required"),
		logger:        log.With(helpers.NilPanic(logger, "service.health_tracker.go: logger is required"), "component", "health_tracker"),
		entries:       xsync.NewMap[domain.InstanceKey, *healthEntry](),
	}
}

// Register installs a fresh HEALTHY record for inst, replacing any previous one (re-addition and address change).
func (t *healthTracker) Register(inst domain.Instance) {
	t.entries.Store(inst.Key(), &healthEntry{
		address: inst.Address(),
		state:   domain.NewHealthState(t.clock.Now()),
	})
}

// Remove drops the record for key; a later Record for it is ignored.
func (t *healthTracker) Remove(key domain.InstanceKey) {
	t.entries.Delete(key)
}

// Record applies outcome to the record of inst under the record's lock.
//
// Returns: (new state, true) when applied; (zero, false) when inst is unknown or registered with another address.
//
// Called from service.forwarder once per forwarded exchange.
func (t *healthTracker) Record(inst domain.Instance, outcome domain.Outcome) (domain.HealthState, bool) {
	e, ok := t.entries.Load(inst.Key())
	if !ok || e.address != inst.Address() {
		return domain.HealthState{}, false
	}
	now := t.clock.Now()

	e.mu.Lock()
	prev := e.state
	next := domain.NextHealthState(prev, outcome, t.thresholds, now)
	e.state = next
	if prev.Status != next.Status {
		t.onTransitionLocked(e, now)
	}
	e.mu.Unlock()

	if prev.Status != next.Status {
		MetricHealthTransitions.WithLabelValues(string(inst.ServiceName), string(prev.Status), string(next.Status)).Inc()
		logger := level.Info(t.logger)
		if next.Status != domain.HealthHealthy {
			logger = level.Warn(t.logger)
		}
		logger.Log(
			"msg", "instance health changed",
			"instance", inst.Key(),
			"address", e.address,
			"from", prev.Status,
			"to", next.Status,
		)
	}
	return next, true
}

// onTransitionLocked maintains the probe limiter; e.mu must be held.
func (t *healthTracker) onTransitionLocked(e *healthEntry, now time.Time) {
	if e.state.Status == domain.HealthHealthy || t.probeInterval <= 0 {
		e.probe = nil
		return
	}
	if e.probe == nil {
		e.probe = rate.NewLimiter(rate.Every(t.probeInterval), 1)
		e.probe.AllowN(now, 1)
	}
}

// State returns a copy of the record for key.
func (t *healthTracker) State(key domain.InstanceKey) (domain.HealthState, bool) {
	e, ok := t.entries.Load(key)
	if !ok {
		return domain.HealthState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// TryProbe consumes the probe slot of a SUSPECT or UNHEALTHY instance when one is available.
//
// Returns: true when the caller should send this request to the instance as a probe.
//
// Called from service.instanceSelector.Select for every non-healthy candidate.
func (t *healthTracker) TryProbe(key domain.InstanceKey) bool {
	e, ok := t.entries.Load(key)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status == domain.HealthHealthy || e.probe == nil {
		return false
	}
	return e.probe.AllowN(t.clock.Now(), 1)
}

// States returns a copy of every record; used by the admin API.
func (t *healthTracker) States() map[domain.InstanceKey]domain.HealthState {
	out := make(map[domain.InstanceKey]domain.HealthState, t.entries.Size())
	t.entries.Range(func(key domain.InstanceKey, e *healthEntry) bool {
		e.mu.Lock()
		out[key] = e.state
		e.mu.Unlock()
		return true
	})
	return out
}
