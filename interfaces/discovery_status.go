package interfaces

import "edgegateway/domain"

// DiscoveryStatusListener is notified by the refresher after every publish and whenever degraded mode is entered or left.
// Calls come from the refresher goroutine and must not block.
//
// Implemented by service.GRPCHealthReporter.
//
//go:generate moq -stub -out mock/discovery_status.go -pkg mock . DiscoveryStatusListener DiscoveryStatusProvider
type DiscoveryStatusListener interface {
	SnapshotPublished(snap *domain.Snapshot)
	DiscoveryDegraded(degraded bool)
}

// DiscoveryStatusProvider exposes the refresher's view of the discovery backend.
// Implemented by service.Refresher; read by the admin API.
type DiscoveryStatusProvider interface {
	Status() domain.DiscoveryStatus
}
