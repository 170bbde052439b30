package handlers

import (
	"sort"
	"strings"

	"edgegateway/domain"
)

// toInstancesResponse converts registrations to the API response.
func toInstancesResponse(regs []domain.Registration) InstancesResponse {
	out := make([]InstanceInfo, 0, len(regs))
	for _, r := range regs {
		out = append(out, InstanceInfo{
			InstanceId:   r.InstanceID,
			Host:         r.Host,
			Port:         r.Port,
			RegisteredAt: r.RegisteredAt,
		})
	}
	return InstancesResponse{Instances: out}
}

// toServicesResponse extracts the distinct service names from "{service_name}:{instance_id}" keys, sorted.
func toServicesResponse(keys []string) ServicesResponse {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		svc, _, ok := strings.Cut(k, ":")
		if !ok || svc == "" {
			continue
		}
		if _, dup := seen[svc]; dup {
			continue
		}
		seen[svc] = struct{}{}
		out = append(out, svc)
	}
	sort.Strings(out)
	return ServicesResponse{Services: out}
}
