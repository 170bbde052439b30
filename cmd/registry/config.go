package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Env variable names.
const (
	envHTTPPort  = "SERVICE_PORT_HTTP"
	envRedisAddr = "REDIS_ADDR"
)

// RegistryConfig holds the registry configuration.
type RegistryConfig struct {
	RedisAddr string
	HTTPPort  int
}

// loadDotEnv loads variables from path without overriding the environment; a missing file is ignored.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables.
// REDIS_ADDR (redis:// URL) and SERVICE_PORT_HTTP are required.
func LoadConfig() (*RegistryConfig, error) {
	redisAddr := strings.TrimSpace(os.Getenv(envRedisAddr))
	if redisAddr == "" {
		return nil, fmt.Errorf("%s is required", envRedisAddr)
	}

	httpPortStr := strings.TrimSpace(os.Getenv(envHTTPPort))
	if httpPortStr == "" {
		return nil, fmt.Errorf("%s is required", envHTTPPort)
	}
	httpPort, err := strconv.Atoi(httpPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envHTTPPort, err)
	}
	if httpPort <= 0 || httpPort > 65535 {
		return nil, fmt.Errorf("%s must be 1-65535, got %d", envHTTPPort, httpPort)
	}

	return &RegistryConfig{
		RedisAddr: redisAddr,
		HTTPPort:  httpPort,
	}, nil
}
