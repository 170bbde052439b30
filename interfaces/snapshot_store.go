package interfaces

import "edgegateway/domain"

// SnapshotStore holds the current registry Snapshot. Current never blocks and never returns nil;
// Publish replaces the snapshot with a single atomic swap, so readers see either the old or the new one in full.
//
// Implemented by service.snapshotStore. Publish is called only by service.Refresher (single writer).
type SnapshotStore interface {
	Current() *domain.Snapshot
	Publish(snap *domain.Snapshot)
}
