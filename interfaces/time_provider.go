package interfaces

import "time"

// TimeProvider supplies the current time for health transitions, staleness checks, probe slots and
// snapshot timestamps. Injected so tests can use a fixed or stepped clock instead of time.Now().
//
// Constructed in cmd/gateway and cmd/registry as service.NewTimeProvider(func() time.Time { return time.Now().UTC() }).
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns current time (UTC in prod; fixed in tests).
	Now() time.Time
}
