// Package main is the entry point of the edge gateway. It loads configuration (env + YAML), builds the discovery
// backend, the snapshot store, health tracker, transport pool and refresher, the route resolver chain (static rules,
// then the discovery locator when enabled), the instance selector, the forwarder and the gateway handler. It serves
// the gateway on SERVICE_PORT_HTTP, the admin API on ADMIN_PORT_HTTP and, when HEALTH_PORT_GRPC is set, the
// grpc.health.v1 service. On SIGINT/SIGTERM it drains the HTTP servers, stops the refresher and releases transports.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"edgegateway/domain"
	"edgegateway/helpers"
	"edgegateway/interfaces"
	"edgegateway/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	if err := loadDotEnv(".env"); err != nil {
		level.Error(logger).Log("msg", "failed to load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "configuration loaded",
		"service_port_http", cfg.HTTPPort,
		"admin_port_http", cfg.AdminPort,
		"health_port_grpc", cfg.HealthGRPCPort,
		"routes", len(cfg.Routes.Rules),
		"discovery_locator", cfg.Routes.DiscoveryLocator,
		"discovery", cfg.Discovery.Type,
	)
	service.InitMetrics()

	clock := service.NewTimeProvider(func() time.Time { return time.Now().UTC() })
	store := service.NewSnapshotStore()
	tracker := service.NewHealthTracker(cfg.Thresholds, cfg.ProbeInterval, clock, logger)
	pool := service.NewTransportPool(cfg.Transport)
	defer pool.Close()

	discoverer, closeDiscoverer, err := newDiscoverer(cfg.Discovery, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to create discoverer", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeDiscoverer(); err != nil {
			level.Warn(logger).Log("msg", "discoverer close", "err", err)
		}
	}()

	var listeners []interfaces.DiscoveryStatusListener
	var healthServer *grpc.Server
	var healthReporter *service.GRPCHealthReporter
	if cfg.HealthGRPCPort > 0 {
		healthServer = grpc.NewServer()
		hs := health.NewServer()
		grpc_health_v1.RegisterHealthServer(healthServer, hs)
		healthReporter = service.NewGRPCHealthReporter(hs, clock, cfg.Discovery.StalenessLimit)
		listeners = append(listeners, healthReporter)
	}

	targets := make([]domain.ServiceName, 0, len(cfg.Routes.Rules))
	for _, rule := range cfg.Routes.Rules {
		targets = append(targets, rule.TargetService)
	}
	refresher := service.NewRefresher(discoverer, store, tracker, pool, clock, service.RefresherConfig{
		Services:         targets,
		DiscoverServices: cfg.Routes.DiscoveryLocator,
		Interval:         cfg.Discovery.RefreshInterval,
		FetchTimeout:     cfg.Discovery.FetchTimeout,
		BackoffInitial:   cfg.Discovery.BackoffInitial,
		BackoffMax:       cfg.Discovery.BackoffMax,
		DegradedAfter:    cfg.Discovery.DegradedAfter,
	}, logger, listeners...)

	var resolver interfaces.RouteResolver
	{
		static, err := service.NewRouteResolver(cfg.Routes)
		if err != nil {
			level.Error(logger).Log("msg", "invalid route config", "err", err)
			os.Exit(1)
		}
		chain := []interfaces.RouteResolver{static}
		if cfg.Routes.DiscoveryLocator {
			chain = append(chain, service.NewDiscoveryLocator(store))
		}
		resolver = service.NewRouteResolverChain(chain...)
	}

	headerChain := helpers.NewHeaderProcessorChain(
		helpers.HopByHopProcessor{},
		helpers.ForwardedProcessor{},
		helpers.RequestIDProcessor{},
	)
	selector := service.NewInstanceSelector(store, tracker, clock, cfg.Discovery.StalenessLimit, logger)
	forwarder := service.NewForwarder(pool, tracker, headerChain, cfg.ForwardTimeout, logger)
	gateway := service.NewGateway(resolver, selector, forwarder, logger)

	gatewayServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           gateway,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	admin := echo.New()
	admin.HideBanner = true
	admin.HidePort = true
	service.RegisterErrorHandler(admin, logger)
	service.RegisterAdminHandlers(admin, service.NewAdminServer(cfg.Routes, store, tracker, refresher, clock, cfg.Discovery.StalenessLimit, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	refresherCtx, stopRefresher := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = refresher.Run(refresherCtx)
	}()

	serveErr := make(chan error, 3)
	go func() {
		level.Info(logger).Log("msg", "starting gateway server", "addr", gatewayServer.Addr)
		if err := gatewayServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("gateway server: %w", err)
		}
	}()
	go func() {
		addr := ":" + strconv.Itoa(cfg.AdminPort)
		level.Info(logger).Log("msg", "starting admin server", "addr", addr)
		if err := admin.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("admin server: %w", err)
		}
	}()
	if healthServer != nil {
		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.HealthGRPCPort))
		if err != nil {
			level.Error(logger).Log("msg", "listen grpc health", "err", err)
			os.Exit(1)
		}
		go func() {
			level.Info(logger).Log("msg", "starting grpc health server", "addr", lis.Addr().String())
			if err := healthServer.Serve(lis); err != nil {
				serveErr <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		level.Info(logger).Log("msg", "shutting down")
	case err := <-serveErr:
		level.Error(logger).Log("msg", "server failed, shutting down", "err", err)
	}

	if healthReporter != nil {
		healthReporter.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "gateway server shutdown", "err", err)
	}
	if err := admin.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "admin server shutdown", "err", err)
	}
	if healthServer != nil {
		stopped := make(chan struct{})
		go func() {
			healthServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			healthServer.Stop()
		}
	}
	stopRefresher()
	wg.Wait()
	level.Info(logger).Log("msg", "gateway stopped")
}
