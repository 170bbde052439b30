package domain

import "time"

// DiscoveryType selects the discovery backend the refresher polls.
type DiscoveryType string

const (
	// DiscoveryRegistry is the bundled registry service (cmd/registry) over HTTP.
	DiscoveryRegistry DiscoveryType = "registry"
	DiscoveryConsul   DiscoveryType = "consul"
	DiscoveryEtcd     DiscoveryType = "etcd"
	// DiscoveryStatic reads instances from a YAML file and reloads it on change.
	DiscoveryStatic DiscoveryType = "static"
)

// DiscoveryConfig holds the backend selection and the refresher timing.
// Only the fields of the selected Type are used.
type DiscoveryConfig struct {
	Type          DiscoveryType
	RegistryURL   string
	ConsulAddr    string
	EtcdEndpoints []string
	EtcdPrefix    string
	StaticFile    string
	Watch         bool

	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	StalenessLimit  time.Duration
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	DegradedAfter   int
}

// Registration is an instance record held by the registry service. It expires TTLMs after the last register call.
type Registration struct {
	InstanceID   string    `json:"instance_id"`
	ServiceName  string    `json:"service_name"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	RegisteredAt time.Time `json:"registered_at"`
	TTLMs        int       `json:"ttl_ms"`
}

// DiscoveryStatus is the refresher's view of the discovery backend.
// Degraded is set after DegradedAfter consecutive failed refresh cycles and cleared by the next full success.
type DiscoveryStatus struct {
	Degraded            bool
	ConsecutiveFailures int
	LastError           string
	LastAttemptAt       time.Time
	LastSuccessAt       time.Time
	SnapshotVersion     uint64
}
