package domain

import (
	"sort"
	"time"
)

// ServiceEntry is the published view of one service: instances ordered by InstanceID and the time the
// discovery backend last confirmed the list. A failed fetch carries the previous entry forward unchanged, so
// ConfirmedAt ages until the backend answers again.
type ServiceEntry struct {
	Instances   []Instance
	ConfirmedAt time.Time
}

// Stale reports whether the entry was last confirmed more than limit before now. A non-positive limit disables staleness.
func (e ServiceEntry) Stale(now time.Time, limit time.Duration) bool {
	return limit > 0 && now.Sub(e.ConfirmedAt) > limit
}

// Snapshot is an immutable registry view published by the refresher. Readers must not modify the returned
// instance slices; a new Snapshot is built for every change.
type Snapshot struct {
	version     uint64
	publishedAt time.Time
	services    map[ServiceName]ServiceEntry
}

// EmptySnapshot returns version 0 with no services; the store starts from it.
func EmptySnapshot() *Snapshot {
	return &Snapshot{services: map[ServiceName]ServiceEntry{}}
}

// NewSnapshot copies services into a new Snapshot, sorting each instance list by InstanceID and dropping duplicate ids (first wins).
func NewSnapshot(version uint64, publishedAt time.Time, services map[ServiceName]ServiceEntry) *Snapshot {
	out := make(map[ServiceName]ServiceEntry, len(services))
	for name, entry := range services {
		instances := make([]Instance, 0, len(entry.Instances))
		seen := make(map[string]struct{}, len(entry.Instances))
		for _, inst := range entry.Instances {
			if _, dup := seen[inst.InstanceID]; dup {
				continue
			}
			seen[inst.InstanceID] = struct{}{}
			instances = append(instances, inst)
		}
		sort.Slice(instances, func(i, j int) bool { return instances[i].InstanceID < instances[j].InstanceID })
		out[name] = ServiceEntry{Instances: instances, ConfirmedAt: entry.ConfirmedAt}
	}
	return &Snapshot{version: version, publishedAt: publishedAt, services: out}
}

// Version increases by one with every publish.
func (s *Snapshot) Version() uint64 { return s.version }

// PublishedAt is the time the refresher built the snapshot.
func (s *Snapshot) PublishedAt() time.Time { return s.publishedAt }

// Service returns the entry for name.
func (s *Snapshot) Service(name ServiceName) (ServiceEntry, bool) {
	e, ok := s.services[name]
	return e, ok
}

// Has reports whether name is present, even with zero instances.
func (s *Snapshot) Has(name ServiceName) bool {
	_, ok := s.services[name]
	return ok
}

// ServiceNames returns the service names in lexical order.
func (s *Snapshot) ServiceNames() []ServiceName {
	names := make([]ServiceName, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Instances returns every instance of every service.
func (s *Snapshot) Instances() []Instance {
	var out []Instance
	for _, name := range s.ServiceNames() {
		out = append(out, s.services[name].Instances...)
	}
	return out
}

// SnapshotDiff describes how next differs from prev.
// Added are keys new in next; Changed are keys present in both whose address differs (the next descriptor);
// Removed are keys missing from next; StaleAddresses are host:port values used by prev and by no instance of next.
type SnapshotDiff struct {
	Added          []Instance
	Changed        []Instance
	Removed        []Instance
	StaleAddresses []string
}

// Empty reports whether nothing changed.
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0 && len(d.StaleAddresses) == 0
}

// DiffSnapshots compares two snapshots instance by instance.
func DiffSnapshots(prev, next *Snapshot) SnapshotDiff {
	var diff SnapshotDiff
	before := make(map[InstanceKey]Instance)
	addrs := make(map[string]struct{})
	for _, inst := range prev.Instances() {
		before[inst.Key()] = inst
	}
	for _, inst := range next.Instances() {
		addrs[inst.Address()] = struct{}{}
		old, ok := before[inst.Key()]
		switch {
		case !ok:
			diff.Added = append(diff.Added, inst)
		case !old.SameEndpoint(inst):
			diff.Changed = append(diff.Changed, inst)
		}
		delete(before, inst.Key())
	}
	for _, inst := range prev.Instances() {
		if _, gone := before[inst.Key()]; gone {
			diff.Removed = append(diff.Removed, inst)
		}
	}
	staleSeen := make(map[string]struct{})
	for _, inst := range prev.Instances() {
		addr := inst.Address()
		if _, live := addrs[addr]; live {
			continue
		}
		if _, dup := staleSeen[addr]; dup {
			continue
		}
		staleSeen[addr] = struct{}{}
		diff.StaleAddresses = append(diff.StaleAddresses, addr)
	}
	return diff
}
