package service

import (
	"net/http"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminRoute is one entry of GET /admin/routes.
type AdminRoute struct {
	Prefix      string `json:"prefix"`
	Service     string `json:"service"`
	StripPrefix bool   `json:"strip_prefix"`
}

// AdminRoutesResponse is the body of GET /admin/routes.
type AdminRoutesResponse struct {
	Routes           []AdminRoute `json:"routes"`
	DiscoveryLocator bool         `json:"discovery_locator"`
}

// AdminInstance is one instance of GET /admin/snapshot with its passive health state.
type AdminInstance struct {
	InstanceID           string    `json:"instance_id"`
	Address              string    `json:"address"`
	RegisteredAt         time.Time `json:"registered_at"`
	Status               string    `json:"status"`
	ConsecutiveFailures  int       `json:"consecutive_failures"`
	ConsecutiveSuccesses int       `json:"consecutive_successes"`
	LastTransitionAt     time.Time `json:"last_transition_at"`
}

// AdminService is one service of GET /admin/snapshot.
type AdminService struct {
	Name        string          `json:"name"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
	Stale       bool            `json:"stale"`
	Instances   []AdminInstance `json:"instances"`
}

// AdminSnapshotResponse is the body of GET /admin/snapshot.
type AdminSnapshotResponse struct {
	Version     uint64         `json:"version"`
	PublishedAt time.Time      `json:"published_at"`
	Services    []AdminService `json:"services"`
}

// AdminDiscoveryResponse is the body of GET /admin/discovery.
type AdminDiscoveryResponse struct {
	Degraded            bool       `json:"degraded"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
	LastAttemptAt       *time.Time `json:"last_attempt_at,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	SnapshotVersion     uint64     `json:"snapshot_version"`
}

// AdminServer serves the read-only admin API of the gateway.
type AdminServer struct {
	routes         domain.RouteConfig
	store          interfaces.SnapshotStore
	tracker        interfaces.HealthTracker
	status         interfaces.DiscoveryStatusProvider
	clock          interfaces.TimeProvider
	stalenessLimit time.Duration
	logger         log.Logger
}

// NewAdminServer creates the admin API. Panics on nil store, tracker, status, clock or logger.
//
// Called from cmd/gateway; routes are registered with RegisterAdminHandlers.
func NewAdminServer(
	routes domain.RouteConfig,
	store interfaces.SnapshotStore,
	tracker interfaces.HealthTracker,
	status interfaces.DiscoveryStatusProvider,
	clock interfaces.TimeProvider,
	stalenessLimit time.Duration,
	logger log.Logger,
) *AdminServer {
	return &AdminServer{
		routes:         routes,
		store:          helpers.NilPanic(store, "service.admin.go: store is required"),
		tracker:        helpers.NilPanic(tracker, "service.admin.go: tracker is required"),
		status:         helpers.NilPanic(status, "service.admin.go: status is required"),
		clock:          helpers.NilPanic(clock, "service.admin.go: clock is required"),
		stalenessLimit: stalenessLimit,
		logger:         log.WithPrefix(helpers.NilPanic(logger, "service.admin.go: logger is required"), "component", "AdminServer"),
	}
}

// RegisterAdminHandlers mounts the admin API and the Prometheus endpoint on e.
func RegisterAdminHandlers(e *echo.Echo, s *AdminServer) {
	e.GET("/healthz", s.Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/admin/routes", s.Routes)
	e.GET("/admin/snapshot", s.Snapshot)
	e.GET("/admin/discovery", s.Discovery)
}

// Healthz (GET /healthz) reports liveness; it does not depend on discovery.
func (s *AdminServer) Healthz(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Routes (GET /admin/routes) lists the configured static rules.
func (s *AdminServer) Routes(ectx echo.Context) error {
	resp := AdminRoutesResponse{
		Routes:           make([]AdminRoute, 0, len(s.routes.Rules)),
		DiscoveryLocator: s.routes.DiscoveryLocator,
	}
	for _, rule := range s.routes.Rules {
		resp.Routes = append(resp.Routes, AdminRoute{
			Prefix:      rule.PathPrefix,
			Service:     string(rule.TargetService),
			StripPrefix: rule.StripPrefix,
		})
	}
	return ectx.JSON(http.StatusOK, resp)
}

// Snapshot (GET /admin/snapshot) returns the current snapshot joined with the health records.
// Instances without a record are reported as healthy.
func (s *AdminServer) Snapshot(ectx echo.Context) error {
	snap := s.store.Current()
	now := s.clock.Now()
	states := s.tracker.States()

	resp := AdminSnapshotResponse{
		Version:     snap.Version(),
		PublishedAt: snap.PublishedAt(),
		Services:    make([]AdminService, 0),
	}
	for _, name := range snap.ServiceNames() {
		entry, _ := snap.Service(name)
		svc := AdminService{
			Name:        string(name),
			ConfirmedAt: entry.ConfirmedAt,
			Stale:       entry.Stale(now, s.stalenessLimit),
			Instances:   make([]AdminInstance, 0, len(entry.Instances)),
		}
		for _, inst := range entry.Instances {
			state, ok := states[inst.Key()]
			if !ok {
				state = domain.NewHealthState(inst.RegisteredAt)
			}
			svc.Instances = append(svc.Instances, AdminInstance{
				InstanceID:           inst.InstanceID,
				Address:              inst.Address(),
				RegisteredAt:         inst.RegisteredAt,
				Status:               string(state.Status),
				ConsecutiveFailures:  state.ConsecutiveFailures,
				ConsecutiveSuccesses: state.ConsecutiveSuccesses,
				LastTransitionAt:     state.LastTransitionAt,
			})
		}
		resp.Services = append(resp.Services, svc)
	}
	return ectx.JSON(http.StatusOK, resp)
}

// Discovery (GET /admin/discovery) returns the refresher status.
func (s *AdminServer) Discovery(ectx echo.Context) error {
	st := s.status.Status()
	resp := AdminDiscoveryResponse{
		Degraded:            st.Degraded,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastError:           st.LastError,
		SnapshotVersion:     st.SnapshotVersion,
	}
	if !st.LastAttemptAt.IsZero() {
		resp.LastAttemptAt = helpers.Ptr(st.LastAttemptAt)
	}
	if !st.LastSuccessAt.IsZero() {
		resp.LastSuccessAt = helpers.Ptr(st.LastSuccessAt)
	}
	return ectx.JSON(http.StatusOK, resp)
}
