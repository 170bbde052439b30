package adapters

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// DiscovererEtcd creates an interfaces.Discoverer over an etcd key space laid out as
// {prefix}/{service_name}/{instance_id} with JSON values {"instance_id","host","port","registered_at"}.
// The result also implements interfaces.ChangeNotifier through a prefix watch.
// Panics on nil kv, watcher or logger and on an empty prefix.
//
// Called from cmd/gateway when discovery.type is "etcd" (kv and watcher are the same *clientv3.Client).
func DiscovererEtcd(kv clientv3.KV, watcher clientv3.Watcher, prefix string, logger log.Logger) interfaces.Discoverer {
	prefix = strings.TrimRight(helpers.StrPanic(prefix, "adapters.discoverer_etcd.go: prefix is required"), "/")
	return &discovererEtcd{
		kv:      helpers.NilPanic(kv, "adapters.discoverer_etcd.go: kv is required"),
		watcher: helpers.NilPanic(watcher, "adapters.discoverer_etcd.go: watcher is required"),
		prefix:  prefix + "/",
		logger:  log.With(helpers.NilPanic(logger, "adapters.discoverer_etcd.go: logger is required"), "component", "discoverer_etcd"),
	}
}

type discovererEtcd struct {
	kv      clientv3.KV
	watcher clientv3.Watcher
	prefix  string
	logger  log.Logger
}

// etcdInstance is the JSON value stored under each instance key.
type etcdInstance struct {
	InstanceID   string    `json:"instance_id"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ListServices returns the distinct service segments found under the prefix, normalized and sorted.
func (d *discovererEtcd) ListServices(ctx context.Context) ([]domain.ServiceName, error) {
	resp, err := d.kv.Get(ctx, d.prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, err
	}
	seen := make(map[domain.ServiceName]struct{})
	for _, kv := range resp.Kvs {
		if svc, _, ok := d.splitKey(kv.Key); ok {
			seen[svc] = struct{}{}
		}
	}
	out := make([]domain.ServiceName, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ListInstances decodes every value whose service segment normalizes to name. Keys are case-sensitive in etcd, so the
// whole prefix is read and "/services/Billing/1" is an instance of "billing". Values that are not valid JSON are
// skipped with a warning; a missing instance_id is taken from the key.
func (d *discovererEtcd) ListInstances(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error) {
	resp, err := d.kv.Get(ctx, d.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	out := make([]domain.Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		svc, id, ok := d.splitKey(kv.Key)
		if !ok || svc != name {
			continue
		}
		var v etcdInstance
		if err := json.Unmarshal(kv.Value, &v); err != nil {
			level.Warn(d.logger).Log("msg", "skipping undecodable instance", "key", string(kv.Key), "err", err)
			continue
		}
		if v.InstanceID == "" {
			v.InstanceID = id
		}
		out = append(out, domain.Instance{
			ServiceName:  name,
			InstanceID:   v.InstanceID,
			Host:         v.Host,
			Port:         v.Port,
			RegisteredAt: v.RegisteredAt,
		})
	}
	return out, nil
}

// splitKey splits "{prefix}{service}/{instance_id}" into the normalized service name and the instance id segment.
func (d *discovererEtcd) splitKey(key []byte) (domain.ServiceName, string, bool) {
	rest := strings.TrimPrefix(string(key), d.prefix)
	svc, id, ok := strings.Cut(rest, "/")
	if !ok || svc == "" {
		return "", "", false
	}
	return domain.NormalizeServiceName(svc), id, true
}

// Changes watches the prefix and signals once per watch response. The channel is closed when ctx is done.
func (d *discovererEtcd) Changes(ctx context.Context) (<-chan struct{}, error) {
	wch := d.watcher.Watch(ctx, d.prefix, clientv3.WithPrefix())
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for resp := range wch {
			if err := resp.Err(); err != nil {
				level.Warn(d.logger).Log("msg", "etcd watch error", "err", err)
			}
			notify(out)
		}
	}()
	return out, nil
}
