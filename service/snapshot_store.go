package service

import (
	"sync/atomic"

	"edgegateway/domain"
	"edgegateway/helpers"
)

// snapshotStore implements interfaces.SnapshotStore with an atomic pointer: readers never lock and always see a
// complete snapshot; the refresher is the only writer.
type snapshotStore struct {
	current atomic.Pointer[domain.Snapshot]
}

// NewSnapshotStore creates a store holding domain.EmptySnapshot.
func NewSnapshotStore() *snapshotStore {
	s := &snapshotStore{}
	s.current.Store(domain.EmptySnapshot())
	return s
}

// Current returns the latest published snapshot; never nil.
func (s *snapshotStore) Current() *domain.Snapshot {
	return s.current.Load()
}

// Publish replaces the current snapshot. Panics on nil snap.
func (s *snapshotStore) Publish(snap *domain.Snapshot) {
	s.current.Store(helpers.NilPanic(snap, "service.snapshot_store.go: snapshot is required"))
}
