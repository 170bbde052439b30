package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"
)

// DiscovererHTTP creates an interfaces.Discoverer that talks to the registry service (cmd/registry) over HTTP:
// GET baseURL/v1/services and GET baseURL/v1/services/{service_name}/instances. Panics on empty baseURL or nil client.
//
// Parameters: baseURL - registry base URL (e.g. http://registry:8080), no trailing slash; client - HTTP client.
// Request deadlines come from the caller context (the refresher fetch timeout).
//
// Returns: interfaces.Discoverer (*discovererHTTP).
//
// Called from cmd/gateway when discovery.type is "registry".
func DiscovererHTTP(baseURL string, client *http.Client) interfaces.Discoverer {
	return &discovererHTTP{
		baseURL: helpers.StrPanic(baseURL, "adapters.discoverer_http.go: baseURL is required"),
		client:  helpers.NilPanic(client, "adapters.discoverer_http.go: http client is required"),
	}
}

// discovererHTTP implements interfaces.Discoverer. Holds baseURL and http.Client.
type discovererHTTP struct {
	baseURL string
	client  *http.Client
}

// servicesResponse is the JSON shape of GET /v1/services: { "services": [ "name" ] }.
type servicesResponse struct {
	Services []string `json:"services"`
}

// instancesResponse is the JSON shape of GET /v1/services/{service_name}/instances: { "instances": [ instanceInfo ] }.
type instancesResponse struct {
	Instances []instanceInfo `json:"instances"`
}

// instanceInfo is one element of the instances array (instance_id, host, port, registered_at).
type instanceInfo struct {
	InstanceID   string    `json:"instance_id"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ListServices performs GET baseURL/v1/services.
//
// Returns: (names, nil) on 200; (nil, error) on other status, network error or JSON error (e.g. missing "services" field).
func (d *discovererHTTP) ListServices(ctx context.Context) ([]domain.ServiceName, error) {
	var raw servicesResponse
	found, err := d.getJSON(ctx, "/v1/services", &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.ServiceName{}, nil
	}
	if raw.Services == nil {
		return nil, fmt.Errorf("registry response missing services field")
	}
	out := make([]domain.ServiceName, 0, len(raw.Services))
	for _, s := range raw.Services {
		out = append(out, domain.NormalizeServiceName(s))
	}
	return out, nil
}

// ListInstances performs GET baseURL/v1/services/{service_name}/instances. On 404 (registry entity_not_found when
// the service has no live instance) returns an empty slice.
//
// Returns: (instances, nil) on 200 or 404; (nil, error) on other status, network error or JSON error.
func (d *discovererHTTP) ListInstances(ctx context.Context, name domain.ServiceName) ([]domain.Instance, error) {
	var raw instancesResponse
	found, err := d.getJSON(ctx, "/v1/services/"+url.PathEscape(string(name))+"/instances", &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Instance{}, nil
	}
	if raw.Instances == nil {
		return nil, fmt.Errorf("registry response missing instances field")
	}
	out := make([]domain.Instance, 0, len(raw.Instances))
	for _, r := range raw.Instances {
		out = append(out, domain.Instance{
			ServiceName:  name,
			InstanceID:   r.InstanceID,
			Host:         r.Host,
			Port:         r.Port,
			RegisteredAt: r.RegisteredAt,
		})
	}
	return out, nil
}

// getJSON performs GET baseURL+path and decodes a 200 body into out. Returns found=false on 404.
func (d *discovererHTTP) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("registry returned %d for %s", resp.StatusCode, path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, err
	}
	return true, nil
}
