package adapters

import (
	"context"
	"sort"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/consul/api"
)

const (
	consulWaitTime   = 30 * time.Second
	consulRetryDelay = time.Second
	// consulSelf is the catalog entry of the Consul servers themselves.
	consulSelf = "consul"
)

// DiscovererConsul creates an interfaces.Discoverer backed by the Consul catalog. Only instances whose health checks
// pass are returned. The result also implements interfaces.ChangeNotifier through blocking queries on the health state.
// Panics on nil client or logger.
//
// Called from cmd/gateway when discovery.type is "consul".
func DiscovererConsul(client *api.Client, logger log.Logger) interfaces.Discoverer {
	return &discovererConsul{
		client: helpers.NilPanic(client, "adapters.discoverer_consul.go: consul client is required"),
		logger: log.With(helpers.NilPanic(logger, "adapters.discoverer_consul.go: logger is required"), "component", "discoverer_consul"),
	}
}

type discovererConsul struct {
	client *api.Client
	logger log.Logger
}

// ListServices returns every catalog service except Consul itself, sorted by name.
func (d *discovererConsul) ListServices(ctx context.Context) ([]domain.ServiceName, error) {
	services, _, err := d.client.Catalog().Services((&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]domain.ServiceName, 0, len(services))
	for name := range services {
		if name == consulSelf {
			continue
		}
		out = append(out, domain.NormalizeServiceName(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ListInstances returns the passing instances of name. The service address falls back to the node address
// when the service was registered without one.
func (d *discovererConsul) ListInstances(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error) {
	entries, _, err := d.client.Health().Service(string(name), "", true, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Instance, 0, len(entries))
	for _, entry := range entries {
		if entry == nil || entry.Service == nil {
			continue
		}
		host := entry.Service.Address
		if host == "" && entry.Node != nil {
			host = entry.Node.Address
		}
		out = append(out, domain.Instance{
			ServiceName: name,
			InstanceID:  entry.Service.ID,
			Host:        host,
			Port:        entry.Service.Port,
		})
	}
	return out, nil
}

// Changes starts a blocking-query loop on the cluster health state and signals each time its index moves.
// The channel is closed when ctx is done.
func (d *discovererConsul) Changes(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{}, 1)
	go d.watch(ctx, out)
	return out, nil
}

func (d *discovererConsul) watch(ctx context.Context, out chan<- struct{}) {
	defer close(out)
	var lastIndex uint64
	for {
		q := (&api.QueryOptions{WaitIndex: lastIndex, WaitTime: consulWaitTime}).WithContext(ctx)
		_, meta, err := d.client.Health().State(api.HealthAny, q)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			level.Warn(d.logger).Log("msg", "consul watch failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(consulRetryDelay):
			}
			continue
		}
		if lastIndex != 0 && meta.LastIndex != lastIndex {
			notify(out)
		}
		// Index going backwards means the raft state was reset.
		if meta.LastIndex < lastIndex {
			lastIndex = 0
			continue
		}
		lastIndex = meta.LastIndex
	}
}

// notify performs a non-blocking send; pending signals are coalesced.
func notify(out chan<- struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}
