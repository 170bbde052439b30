package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/yaml.v3"
)

// DiscovererStatic creates an interfaces.Discoverer reading a YAML file:
//
//	services:
//	  order-svc:
//	    - id: order-1
//	      host: 10.0.0.1
//	      port: 8080
//
// The file is read on every call. The result also implements interfaces.ChangeNotifier through fsnotify
// on the file's directory, so editors that replace the file are seen too.
// Panics on empty path or nil logger.
//
// Called from cmd/gateway when discovery.type is "static".
func DiscovererStatic(path string, logger log.Logger) interfaces.Discoverer {
	return &discovererStatic{
		path:   filepath.Clean(helpers.StrPanic(path, "adapters.discoverer_static.go: path is required")),
		logger: log.With(helpers.NilPanic(logger, "adapters.discoverer_static.go: logger is required"), "component", "discoverer_static"),
	}
}

type discovererStatic struct {
	path   string
	logger log.Logger
}

type yamlStaticFile struct {
	Services map[string][]yamlStaticInstance `yaml:"services"`
}

type yamlStaticInstance struct {
	ID   string `yaml:"id"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (d *discovererStatic) load() (map[domain.ServiceName][]yamlStaticInstance, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("read static discovery file: %w", err)
	}
	var raw yamlStaticFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse static discovery file: %w", err)
	}
	out := make(map[domain.ServiceName][]yamlStaticInstance, len(raw.Services))
	for name, instances := range raw.Services {
		svc := domain.NormalizeServiceName(name)
		out[svc] = append(out[svc], instances...)
	}
	return out, nil
}

// ListServices returns the service names in the file, sorted.
func (d *discovererStatic) ListServices(_ context.Context) ([]domain.ServiceName, error) {
	services, err := d.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ServiceName, 0, len(services))
	for name := range services {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ListInstances returns the instances listed for name in file order.
func (d *discovererStatic) ListInstances(_ context.Context, name domain.ServiceName) ([]domain.Instance, error) {
	services, err := d.load()
	if err != nil {
		return nil, err
	}
	raw := services[name]
	out := make([]domain.Instance, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.Instance{ServiceName: name, InstanceID: r.ID, Host: r.Host, Port: r.Port})
	}
	return out, nil
}

// Changes signals on every write, create, rename or remove of the file. The channel is closed when ctx is done.
func (d *discovererStatic) Changes(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(d.path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != d.path {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
					level.Debug(d.logger).Log("msg", "static discovery file changed", "op", ev.Op.String())
					notify(out)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				level.Warn(d.logger).Log("msg", "file watch error", "err", err)
			}
		}
	}()
	return out, nil
}
