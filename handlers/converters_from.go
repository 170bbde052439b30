package handlers

import (
	"strings"
	"time"

	"edgegateway/domain"
)

// fromRegisterRequest converts a validated RegisterRequest to domain.Registration stamped with now.
func fromRegisterRequest(req RegisterRequest, now time.Time) domain.Registration {
	return domain.Registration{
		InstanceID:   strings.TrimSpace(req.InstanceId),
		ServiceName:  string(domain.NormalizeServiceName(req.ServiceName)),
		Host:         strings.TrimSpace(req.Host),
		Port:         req.Port,
		RegisteredAt: now,
		TTLMs:        req.TtlMs,
	}
}
