package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ErrDiscoveryUnavailable wraps every discovery backend failure seen by the refresher.
var ErrDiscoveryUnavailable = errors.New("discovery backend unavailable")

// RefresherConfig controls the refresh loop.
//
// Services are the route targets that are always polled; with DiscoverServices the refresher also polls
// every service returned by Discoverer.ListServices (discovery locator).
type RefresherConfig struct {
	Services         []domain.ServiceName
	DiscoverServices bool
	Interval         time.Duration
	FetchTimeout     time.Duration
	BackoffInitial   time.Duration
	BackoffMax       time.Duration
	DegradedAfter    int
}

// Refresher keeps the SnapshotStore in sync with the discovery backend. It is the only writer of the store
// and the only caller of HealthTracker.Register/Remove and TransportPool.Evict.
//
// Each cycle (Refresh):
//  1. determines the services to poll (configured targets, plus ListServices when enabled);
//  2. fetches every service; a failed fetch keeps the previous entry with its old confirmation time;
//  3. diffs against the current snapshot, registers added and changed instances as fresh HEALTHY;
//  4. publishes the new snapshot (one atomic swap);
//  5. drops health records of removed instances and evicts transports of addresses no longer used;
//  6. notifies listeners and updates metrics.
//
// Run repeats the cycle every Interval, or sooner on a ChangeNotifier signal. After a failed cycle the next
// one is scheduled with exponential backoff capped at BackoffMax; DegradedAfter consecutive failed cycles
// switch on degraded mode until a cycle fully succeeds. The loop never exits on backend errors.
type Refresher struct {
	discoverer interfaces.Discoverer
	store      interfaces.SnapshotStore
	tracker    interfaces.HealthTracker
	pool       interfaces.TransportPool
	clock      interfaces.TimeProvider
	listeners  []interfaces.DiscoveryStatusListener
	cfg        RefresherConfig
	logger     log.Logger

	cycleMu sync.Mutex // serializes Refresh

	mu     sync.Mutex // guards status
	status domain.DiscoveryStatus
}

// NewRefresher creates the refresher. Panics on nil discoverer, store, tracker, pool, clock, logger or listener.
// Zero timing fields take defaults: Interval 5s, FetchTimeout 3s, BackoffInitial 500ms, BackoffMax 30s, DegradedAfter 3.
//
// Called from cmd/gateway; Run is started in its own goroutine.
func NewRefresher(
	discoverer interfaces.Discoverer,
	store interfaces.SnapshotStore,
	tracker interfaces.HealthTracker,
	pool interfaces.TransportPool,
	clock interfaces.TimeProvider,
	cfg RefresherConfig,
	logger log.Logger,
	listeners ...interfaces.DiscoveryStatusListener,
) *Refresher {
	for _, l := range listeners {
		helpers.NilPanic(l, "service.refresher.go: listener is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 3 * time.Second
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 500 * time.Millisecond
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	if cfg.DegradedAfter <= 0 {
		cfg.DegradedAfter = 3
	}
	services := make([]domain.ServiceName, 0, len(cfg.Services))
	for _, name := range cfg.Services {
		services = append(services, domain.NormalizeServiceName(string(name)))
	}
	cfg.Services = services
	return &Refresher{
		discoverer: helpers.NilPanic(discoverer, "service.refresher.go: discoverer is required"),
		store:      helpers.NilPanic(store, "service.refresher.go: store is required"),
		tracker:    helpers.NilPanic(tracker, "service.refresher.go: tracker is required"),
		pool:       helpers.NilPanic(pool, "service.refresher.go: pool is required"),
		clock:      helpers.NilPanic(clock, "service.refresher.go: clock is required"),
		listeners:  listeners,
		cfg:        cfg,
		logger:     log.With(helpers.NilPanic(logger, "service.refresher.go: logger is required"), "component", "refresher"),
	}
}

// Run refreshes immediately and then until ctx is done. Blocks; returns ctx.Err().
func (r *Refresher) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.BackoffInitial
	bo.MaxInterval = r.cfg.BackoffMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2

	changes := r.subscribe(ctx)
	timer := time.NewTimer(0)
	defer timer.Stop()

	level.Info(r.logger).Log("msg", "refresher started", "interval", r.cfg.Interval, "watch", changes != nil)
	for {
		select {
		case <-ctx.Done():
			level.Info(r.logger).Log("msg", "refresher stopped")
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			level.Debug(r.logger).Log("msg", "change notification received")
		case <-timer.C:
		}

		wait := r.cfg.Interval
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			wait = bo.NextBackOff()
			if wait == backoff.Stop || wait > r.cfg.BackoffMax {
				wait = r.cfg.BackoffMax
			}
			level.Warn(r.logger).Log("msg", "refresh failed", "retry_in", wait, "err", err)
		} else {
			bo.Reset()
		}
		timer.Stop()
		timer.Reset(wait)
	}
}

// subscribe returns the change channel of the discoverer, or nil when it cannot push changes.
func (r *Refresher) subscribe(ctx context.Context) <-chan struct{} {
	notifier, ok := r.discoverer.(interfaces.ChangeNotifier)
	if !ok {
		return nil
	}
	ch, err := notifier.Changes(ctx)
	if err != nil {
		level.Warn(r.logger).Log("msg", "change notifications unavailable, polling only", "err", err)
		return nil
	}
	return ch
}

// Refresh runs one cycle and publishes a new snapshot, even when some fetches failed (their entries are carried
// over). Returns the joined discovery errors of the cycle, each wrapping ErrDiscoveryUnavailable.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	prev := r.store.Current()
	now := r.clock.Now()

	var errs []error
	names, err := r.serviceNames(ctx, prev)
	if err != nil {
		errs = append(errs, err)
	}

	entries := make(map[domain.ServiceName]domain.ServiceEntry, len(names))
	for _, name := range names {
		instances, fetchErr := r.fetch(ctx, name)
		if fetchErr != nil {
			errs = append(errs, fetchErr)
			if old, ok := prev.Service(name); ok {
				entries[name] = old
			}
			continue
		}
		entries[name] = domain.ServiceEntry{Instances: confirmInstances(name, instances, now), ConfirmedAt: now}
	}

	next := domain.NewSnapshot(prev.Version()+1, now, entries)
	diff := domain.DiffSnapshots(prev, next)
	for _, inst := range diff.Added {
		r.tracker.Register(inst)
	}
	for _, inst := range diff.Changed {
		r.tracker.Register(inst)
	}
	r.store.Publish(next)
	for _, inst := range diff.Removed {
		r.tracker.Remove(inst.Key())
	}
	for _, addr := range diff.StaleAddresses {
		r.pool.Evict(addr)
	}

	if !diff.Empty() {
		level.Info(r.logger).Log(
			"msg", "registry snapshot changed",
			"version", next.Version(),
			"added", len(diff.Added),
			"changed", len(diff.Changed),
			"removed", len(diff.Removed),
		)
	}
	MetricSnapshotsPublished.Inc()
	MetricServicesDiscovered.Set(float64(len(next.ServiceNames())))
	MetricInstancesDiscovered.Set(float64(len(next.Instances())))
	for _, l := range r.listeners {
		l.SnapshotPublished(next)
	}

	cycleErr := errors.Join(errs...)
	r.recordCycle(now, next.Version(), cycleErr)
	return cycleErr
}

// serviceNames returns the sorted set of services to poll. When ListServices fails the services of prev are kept.
func (r *Refresher) serviceNames(ctx context.Context, prev *domain.Snapshot) ([]domain.ServiceName, error) {
	set := make(map[domain.ServiceName]struct{}, len(r.cfg.Services))
	for _, name := range r.cfg.Services {
		set[name] = struct{}{}
	}
	var listErr error
	if r.cfg.DiscoverServices {
		fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
		discovered, err := r.discoverer.ListServices(fetchCtx)
		cancel()
		if err != nil {
			listErr = fmt.Errorf("%w: list services: %v", ErrDiscoveryUnavailable, err)
			for _, name := range prev.ServiceNames() {
				set[name] = struct{}{}
			}
		}
		for _, name := range discovered {
			if name = domain.NormalizeServiceName(string(name)); name != "" {
				set[name] = struct{}{}
			}
		}
	}
	names := make([]domain.ServiceName, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names, listErr
}

func (r *Refresher) fetch(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()
	instances, err := r.discoverer.ListInstances(fetchCtx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: service %q: %v", ErrDiscoveryUnavailable, name, err)
	}
	return instances, nil
}

// confirmInstances stamps fetched instances with the service name and, when the backend reported none, the confirmation time.
// Instances without id, host or a valid port are dropped.
func confirmInstances(name domain.ServiceName, instances []domain.Instance, now time.Time) []domain.Instance {
	out := make([]domain.Instance, 0, len(instances))
	for _, inst := range instances {
		if inst.InstanceID == "" || inst.Host == "" || inst.Port <= 0 || inst.Port > 65535 {
			continue
		}
		inst.ServiceName = name
		if inst.RegisteredAt.IsZero() {
			inst.RegisteredAt = now
		}
		out = append(out, inst)
	}
	return out
}

// recordCycle updates the status and switches degraded mode on or off.
func (r *Refresher) recordCycle(now time.Time, version uint64, err error) {
	r.mu.Lock()
	r.status.LastAttemptAt = now
	r.status.SnapshotVersion = version
	var changed bool
	if err != nil {
		MetricDiscoveryFailures.Inc()
		r.status.ConsecutiveFailures++
		r.status.LastError = err.Error()
		if !r.status.Degraded && r.status.ConsecutiveFailures >= r.cfg.DegradedAfter {
			r.status.Degraded = true
			changed = true
		}
	} else {
		r.status.ConsecutiveFailures = 0
		r.status.LastError = ""
		r.status.LastSuccessAt = now
		if r.status.Degraded {
			r.status.Degraded = false
			changed = true
		}
	}
	degraded := r.status.Degraded
	failures := r.status.ConsecutiveFailures
	r.mu.Unlock()

	if !changed {
		return
	}
	if degraded {
		MetricDiscoveryDegraded.Set(1)
		level.Error(r.logger).Log("msg", "discovery degraded, serving last known registry", "consecutive_failures", failures, "err", err)
	} else {
		MetricDiscoveryDegraded.Set(0)
		level.Info(r.logger).Log("msg", "discovery recovered")
	}
	for _, l := range r.listeners {
		l.DiscoveryDegraded(degraded)
	}
}

// Status returns a copy of the current discovery status. Implements interfaces.DiscoveryStatusProvider.
func (r *Refresher) Status() domain.DiscoveryStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
