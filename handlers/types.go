package handlers

import (
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
)

// RegisterRequest is the body of POST /v1/register. A repeated call for the same (service_name, instance_id)
// is a heartbeat and restarts the TTL.
type RegisterRequest struct {
	InstanceId  string `json:"instance_id" validate:"required,max=128"`
	ServiceName string `json:"service_name" validate:"required,max=128,excludesall=:/"`
	Host        string `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port        int    `json:"port" validate:"required,min=1,max=65535"`
	TtlMs       int    `json:"ttl_ms" validate:"required,min=1"`
}

// InstanceInfo is one element of InstancesResponse.
type InstanceInfo struct {
	InstanceId   string    `json:"instance_id"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	RegisteredAt time.Time `json:"registered_at"`
}

// InstancesResponse is the body of GET /v1/services/{service_name}/instances.
type InstancesResponse struct {
	Instances []InstanceInfo `json:"instances"`
}

// ServicesResponse is the body of GET /v1/services.
type ServicesResponse struct {
	Services []string `json:"services"`
}

// ServerInterface is the registry API; path parameters are extracted by RegisterHandlers.
type ServerInterface interface {
	// (POST /v1/register)
	RegisterInstance(ctx echo.Context) error
	// (POST /v1/unregister/{service_name}/{instance_id})
	UnregisterInstance(ctx echo.Context, serviceName string, instanceId string) error
	// (GET /v1/services)
	GetServices(ctx echo.Context) error
	// (GET /v1/services/{service_name}/instances)
	GetServiceInstances(ctx echo.Context, serviceName string) error
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

type serverInterfaceWrapper struct {
	handler ServerInterface
}

func (w *serverInterfaceWrapper) RegisterInstance(ctx echo.Context) error {
	return w.handler.RegisterInstance(ctx)
}

func (w *serverInterfaceWrapper) UnregisterInstance(ctx echo.Context) error {
	return w.handler.UnregisterInstance(ctx, pathParam(ctx, "service_name"), pathParam(ctx, "instance_id"))
}

func (w *serverInterfaceWrapper) GetServices(ctx echo.Context) error {
	return w.handler.GetServices(ctx)
}

func (w *serverInterfaceWrapper) GetServiceInstances(ctx echo.Context) error {
	return w.handler.GetServiceInstances(ctx, pathParam(ctx, "service_name"))
}

// pathParam returns the unescaped path parameter; a malformed escape is returned as is.
func pathParam(ctx echo.Context, name string) string {
	raw := ctx.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// RegisterHandlers adds each server route to the router.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	w := &serverInterfaceWrapper{handler: si}
	router.POST("/v1/register", w.RegisterInstance)
	router.POST("/v1/unregister/:service_name/:instance_id", w.UnregisterInstance)
	router.GET("/v1/services", w.GetServices)
	router.GET("/v1/services/:service_name/instances", w.GetServiceInstances)
}
