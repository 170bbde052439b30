// Package main is the entry point of the service registry: instances register with a TTL (re-registering is
// the heartbeat), and the gateway reads the live set over HTTP. Registrations are kept in Redis.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edgegateway/adapters/myredis"
	"edgegateway/domain"
	"edgegateway/handlers"
	"edgegateway/interfaces"
	"edgegateway/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

const registrationPrefix = "registration"

func main() {
	// Initialize logger
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	level.Info(logger).Log("msg", "Starting service registry")

	if err := loadDotEnv(".env"); err != nil {
		level.Error(logger).Log("msg", "Failed to load .env", "err", err)
		os.Exit(1)
	}
	config, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "Failed to load configuration", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log(
		"msg", "Configuration loaded",
		"service_port_http", config.HTTPPort,
	)

	var cache interfaces.Cache[domain.Registration]
	{
		redisClient, err := myredis.NewRedisUniversalClient(config.RedisAddr)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to create Redis client", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			level.Error(logger).Log("msg", "Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "Connected to Redis")

		marshal := func(r domain.Registration) ([]byte, error) { return json.Marshal(r) }
		unmarshal := func(b []byte) (domain.Registration, error) {
			var r domain.Registration
			err := json.Unmarshal(b, &r)
			return r, err
		}
		cache = myredis.NewCache[domain.Registration](redisClient, registrationPrefix, marshal, unmarshal)
	}

	// Create HTTP server (Echo)
	var e *echo.Echo
	{
		doc, err := handlers.LoadOpenAPI(context.Background())
		if err != nil {
			level.Error(logger).Log("msg", "Failed to load OpenAPI document", "err", err)
			os.Exit(1)
		}
		validate, err := handlers.OpenAPIValidator(doc)
		if err != nil {
			level.Error(logger).Log("msg", "Failed to build request validator", "err", err)
			os.Exit(1)
		}

		e = echo.New()
		e.HideBanner = true
		e.Validator = handlers.NewRequestValidator()
		e.Use(validate)
		service.RegisterErrorHandler(e, logger)
		clock := service.NewTimeProvider(func() time.Time { return time.Now().UTC() })
		handlers.RegisterHandlers(e, handlers.NewHTTPServer(cache, clock, logger))
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", config.HTTPPort)
		level.Info(logger).Log("msg", "Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		level.Info(logger).Log("msg", "Shutting down server...")
	case err := <-serveErr:
		level.Error(logger).Log("msg", "HTTP server error", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "Error during server shutdown", "err", err)
	}

	level.Info(logger).Log("msg", "Server stopped")
}
