// Package handlers contains the HTTP handlers of the service registry.
package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"
	"edgegateway/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// HTTPServer implements ServerInterface on top of a TTL cache of registrations keyed "{service_name}:{instance_id}".
type HTTPServer struct {
	cache  interfaces.Cache[domain.Registration]
	clock  interfaces.TimeProvider
	logger log.Logger
}

// NewHTTPServer creates a new HTTPServer. Panics on nil cache, clock or logger.
func NewHTTPServer(cache interfaces.Cache[domain.Registration], clock interfaces.TimeProvider, logger log.Logger) *HTTPServer {
	logger = log.WithPrefix(helpers.NilPanic(logger, "handlers.http.go: logger is required"), "component", "HTTPServer")
	return &HTTPServer{
		cache:  helpers.NilPanic(cache, "handlers.http.go: cache is required"),
		clock:  helpers.NilPanic(clock, "handlers.http.go: clock is required"),
		logger: logger,
	}
}

// RegisterInstance (POST /v1/register) writes the registration with ttl_ms expiry. A repeated call is a heartbeat.
// Returns 200 on success, 400 on parse/validation error, 500 on storage error.
func (h *HTTPServer) RegisterInstance(ectx echo.Context) error {
	var req RegisterRequest
	if err := ectx.Bind(&req); err != nil {
		return service.NewBadParameterError("invalid request body", err)
	}
	if err := ectx.Validate(&req); err != nil {
		return err
	}

	reg := fromRegisterRequest(req, h.clock.Now())
	ctx := ectx.Request().Context()
	if err := h.cache.WriteValue(ctx, registrationKey(reg.ServiceName, reg.InstanceID), reg, reg.TTLMs); err != nil {
		return fmt.Errorf("registerInstance failed to write registration to cache, err: %w", err)
	}
	level.Debug(h.logger).Log("msg", "instance registered", "service", reg.ServiceName, "instance_id", reg.InstanceID, "ttl_ms", reg.TTLMs)

	return ectx.NoContent(http.StatusOK)
}

// UnregisterInstance (POST /v1/unregister/{service_name}/{instance_id}) removes the registration. Removing an
// unknown instance succeeds.
func (h *HTTPServer) UnregisterInstance(ectx echo.Context, serviceName string, instanceId string) error {
	svc := string(domain.NormalizeServiceName(serviceName))
	ctx := ectx.Request().Context()
	if err := h.cache.DeleteValue(ctx, registrationKey(svc, instanceId)); err != nil {
		return fmt.Errorf("unregisterInstance failed to delete registration from cache, err: %w", err)
	}
	level.Debug(h.logger).Log("msg", "instance unregistered", "service", svc, "instance_id", instanceId)

	return ectx.NoContent(http.StatusOK)
}

// GetServices (GET /v1/services) returns the sorted names of services with at least one live registration.
func (h *HTTPServer) GetServices(ectx echo.Context) error {
	ctx := ectx.Request().Context()
	keys, err := h.cache.ListKeys(ctx, "")
	if err != nil {
		return fmt.Errorf("getServices failed to list keys from cache, err: %w", err)
	}

	return ectx.JSON(http.StatusOK, toServicesResponse(keys))
}

// GetServiceInstances (GET /v1/services/{service_name}/instances) returns the live registrations of one service,
// sorted by instance id. 404 entity_not_found when there are none.
func (h *HTTPServer) GetServiceInstances(ectx echo.Context, serviceName string) error {
	svc := string(domain.NormalizeServiceName(serviceName))
	ctx := ectx.Request().Context()
	regs, err := h.cache.ListValues(ctx, svc+":")
	if err != nil {
		return fmt.Errorf("getServiceInstances failed to list registrations from cache, err: %w", err)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].InstanceID < regs[j].InstanceID })

	return ectx.JSON(http.StatusOK, toInstancesResponse(regs))
}

func registrationKey(serviceName string, instanceID string) string {
	return serviceName + ":" + instanceID
}
