package interfaces

import "context"

// ChangeNotifier is implemented by discoverers that can push change notifications (Consul blocking queries,
// etcd watches, file system events). The refresher runs an extra cycle on every signal on top of its interval.
//
// The returned channel is closed when ctx is done. Notifications may be coalesced; a signal only means
// "something may have changed".
type ChangeNotifier interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}
