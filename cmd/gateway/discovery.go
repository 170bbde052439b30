package main

import (
	"fmt"
	"net/http"
	"time"

	"edgegateway/adapters"
	"edgegateway/domain"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/hashicorp/consul/api"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdDialTimeout = 5 * time.Second

// pollOnly hides the ChangeNotifier of a discoverer so the refresher only polls.
type pollOnly struct {
	interfaces.Discoverer
}

// newDiscoverer builds the discovery backend selected by cfg.Type. The returned close func releases the
// backend client and is never nil.
func newDiscoverer(cfg domain.DiscoveryConfig, logger log.Logger) (interfaces.Discoverer, func() error, error) {
	noop := func() error { return nil }
	var (
		d       interfaces.Discoverer
		closeFn = noop
	)
	switch cfg.Type {
	case domain.DiscoveryRegistry:
		d = adapters.DiscovererHTTP(cfg.RegistryURL, &http.Client{})
	case domain.DiscoveryConsul:
		consulCfg := api.DefaultConfig()
		consulCfg.Address = cfg.ConsulAddr
		client, err := api.NewClient(consulCfg)
		if err != nil {
			return nil, noop, fmt.Errorf("consul client: %w", err)
		}
		d = adapters.DiscovererConsul(client, logger)
	case domain.DiscoveryEtcd:
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.EtcdEndpoints,
			DialTimeout: etcdDialTimeout,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("etcd client: %w", err)
		}
		d = adapters.DiscovererEtcd(client, client, cfg.EtcdPrefix, logger)
		closeFn = client.Close
	case domain.DiscoveryStatic:
		d = adapters.DiscovererStatic(cfg.StaticFile, logger)
	default:
		return nil, noop, fmt.Errorf("unknown discovery type %q", cfg.Type)
	}
	if !cfg.Watch {
		d = pollOnly{Discoverer: d}
	}
	return d, closeFn, nil
}
