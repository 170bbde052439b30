package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"edgegateway/domain"
	"edgegateway/service"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Env variable names.
const (
	envHTTPPort       = "SERVICE_PORT_HTTP"
	envAdminPort      = "ADMIN_PORT_HTTP"
	envHealthGRPCPort = "HEALTH_PORT_GRPC"
	envConfigPath     = "CONFIG_PATH"
)

// Config holds the gateway configuration loaded by LoadConfig from environment variables and the YAML file.
type Config struct {
	HTTPPort       int
	AdminPort      int
	HealthGRPCPort int // 0 disables the gRPC health server
	Routes         domain.RouteConfig
	Discovery      domain.DiscoveryConfig
	ForwardTimeout time.Duration
	Transport      service.TransportConfig
	Thresholds     domain.HealthThresholds
	ProbeInterval  time.Duration
}

// yamlConfig is the root struct for YAML unmarshalling.
type yamlConfig struct {
	Routes           []yamlRoute          `yaml:"routes"`
	DiscoveryLocator yamlDiscoveryLocator `yaml:"discovery_locator"`
	Discovery        yamlDiscovery        `yaml:"discovery"`
	Forwarding       yamlForwarding       `yaml:"forwarding"`
	Health           yamlHealth           `yaml:"health"`
}

type yamlRoute struct {
	Prefix      string `yaml:"prefix"`
	Service     string `yaml:"service"`
	StripPrefix bool   `yaml:"strip_prefix"`
}

type yamlDiscoveryLocator struct {
	Enabled bool `yaml:"enabled"`
}

type yamlDiscovery struct {
	Type              string   `yaml:"type"`
	RegistryURL       string   `yaml:"registry_url"`
	ConsulAddr        string   `yaml:"consul_addr"`
	EtcdEndpoints     []string `yaml:"etcd_endpoints"`
	EtcdPrefix        string   `yaml:"etcd_prefix"`
	StaticFile        string   `yaml:"static_file"`
	Watch             *bool    `yaml:"watch"`
	RefreshIntervalMs int      `yaml:"refresh_interval_ms"`
	FetchTimeoutMs    int      `yaml:"fetch_timeout_ms"`
	StalenessLimitMs  int      `yaml:"staleness_limit_ms"`
	BackoffInitialMs  int      `yaml:"backoff_initial_ms"`
	BackoffMaxMs      int      `yaml:"backoff_max_ms"`
	DegradedAfter     int      `yaml:"degraded_after"`
}

type yamlForwarding struct {
	TimeoutMs               int `yaml:"timeout_ms"`
	DialTimeoutMs           int `yaml:"dial_timeout_ms"`
	MaxIdleConnsPerInstance int `yaml:"max_idle_conns_per_instance"`
}

// yamlHealth uses a pointer for probe_interval_ms so an explicit 0 (probes off) differs from "not set".
type yamlHealth struct {
	FailureThreshold int  `yaml:"failure_threshold"`
	SuccessThreshold int  `yaml:"success_threshold"`
	ProbeIntervalMs  *int `yaml:"probe_interval_ms"`
}

// Defaults applied to unset YAML fields.
const (
	defaultRefreshInterval = 5 * time.Second
	defaultFetchTimeout    = 3 * time.Second
	defaultStalenessLimit  = 60 * time.Second
	defaultBackoffInitial  = 500 * time.Millisecond
	defaultBackoffMax      = 30 * time.Second
	defaultDegradedAfter   = 3
	defaultForwardTimeout  = 10 * time.Second
	defaultProbeInterval   = 10 * time.Second
	defaultEtcdPrefix      = "/services"
)

// loadDotEnv loads variables from path into the environment without overriding ones already set.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadYAMLConfig reads the YAML file at path and unmarshals it into yamlConfig.
//
// Called only from LoadConfig.
func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadConfig builds the gateway config from environment variables and the YAML file at CONFIG_PATH.
// SERVICE_PORT_HTTP, ADMIN_PORT_HTTP and CONFIG_PATH are required; HEALTH_PORT_GRPC is optional (empty or 0 disables).
// Route prefixes and service names are normalized and the route table is validated; the discovery section is
// checked for the fields its type needs. Unset timings take defaults.
//
// Returns: (*Config, nil) on success; (nil, error) naming the first invalid setting.
//
// Called only from main at startup.
func LoadConfig() (*Config, error) {
	httpPort, err := requiredPort(envHTTPPort)
	if err != nil {
		return nil, err
	}
	adminPort, err := requiredPort(envAdminPort)
	if err != nil {
		return nil, err
	}
	if adminPort == httpPort {
		return nil, fmt.Errorf("%s and %s must differ", envHTTPPort, envAdminPort)
	}
	healthPort, err := optionalPort(envHealthGRPCPort)
	if err != nil {
		return nil, err
	}
	configPath := strings.TrimSpace(os.Getenv(envConfigPath))
	if configPath == "" {
		return nil, fmt.Errorf("%s is required", envConfigPath)
	}
	if !filepath.IsAbs(configPath) {
		abs, absErr := filepath.Abs(configPath)
		if absErr != nil {
			return nil, absErr
		}
		configPath = abs
	}
	raw, err := loadYAMLConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	rules := make([]domain.RouteRule, 0, len(raw.Routes))
	for _, route := range raw.Routes {
		rules = append(rules, domain.RouteRule{
			PathPrefix:    domain.NormalizePrefix(route.Prefix),
			TargetService: domain.NormalizeServiceName(route.Service),
			StripPrefix:   route.StripPrefix,
		})
	}
	routeCfg := domain.RouteConfig{Rules: rules, DiscoveryLocator: raw.DiscoveryLocator.Enabled}
	if err := domain.ValidateRouteConfig(routeCfg); err != nil {
		return nil, err
	}
	if len(routeCfg.Rules) == 0 && !routeCfg.DiscoveryLocator {
		return nil, fmt.Errorf("at least one route is required when discovery_locator is disabled")
	}

	discovery, err := discoveryConfig(raw.Discovery, filepath.Dir(configPath))
	if err != nil {
		return nil, err
	}

	forwardTimeout := msOrDefault(raw.Forwarding.TimeoutMs, defaultForwardTimeout)
	if raw.Forwarding.TimeoutMs < 0 || raw.Forwarding.DialTimeoutMs < 0 || raw.Forwarding.MaxIdleConnsPerInstance < 0 {
		return nil, fmt.Errorf("forwarding settings must not be negative")
	}
	transport := service.TransportConfig{
		DialTimeout:             time.Duration(raw.Forwarding.DialTimeoutMs) * time.Millisecond,
		MaxIdleConnsPerInstance: raw.Forwarding.MaxIdleConnsPerInstance,
	}

	thresholds := domain.DefaultHealthThresholds()
	if raw.Health.FailureThreshold != 0 {
		thresholds.FailureThreshold = raw.Health.FailureThreshold
	}
	if raw.Health.SuccessThreshold != 0 {
		thresholds.SuccessThreshold = raw.Health.SuccessThreshold
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	probeInterval := defaultProbeInterval
	if raw.Health.ProbeIntervalMs != nil {
		if *raw.Health.ProbeIntervalMs < 0 {
			return nil, fmt.Errorf("health.probe_interval_ms must not be negative")
		}
		probeInterval = time.Duration(*raw.Health.ProbeIntervalMs) * time.Millisecond
	}

	return &Config{
		HTTPPort:       httpPort,
		AdminPort:      adminPort,
		HealthGRPCPort: healthPort,
		Routes:         routeCfg,
		Discovery:      discovery,
		ForwardTimeout: forwardTimeout,
		Transport:      transport,
		Thresholds:     thresholds,
		ProbeInterval:  probeInterval,
	}, nil
}

// discoveryConfig validates the discovery section; a relative static_file is resolved against configDir.
func discoveryConfig(raw yamlDiscovery, configDir string) (domain.DiscoveryConfig, error) {
	cfg := domain.DiscoveryConfig{
		Type:            domain.DiscoveryType(strings.ToLower(strings.TrimSpace(raw.Type))),
		RegistryURL:     strings.TrimRight(strings.TrimSpace(raw.RegistryURL), "/"),
		ConsulAddr:      strings.TrimSpace(raw.ConsulAddr),
		EtcdPrefix:      strings.TrimSpace(raw.EtcdPrefix),
		StaticFile:      strings.TrimSpace(raw.StaticFile),
		Watch:           raw.Watch == nil || *raw.Watch,
		RefreshInterval: msOrDefault(raw.RefreshIntervalMs, defaultRefreshInterval),
		FetchTimeout:    msOrDefault(raw.FetchTimeoutMs, defaultFetchTimeout),
		StalenessLimit:  msOrDefault(raw.StalenessLimitMs, defaultStalenessLimit),
		BackoffInitial:  msOrDefault(raw.BackoffInitialMs, defaultBackoffInitial),
		BackoffMax:      msOrDefault(raw.BackoffMaxMs, defaultBackoffMax),
		DegradedAfter:   raw.DegradedAfter,
	}
	if cfg.Type == "" {
		cfg.Type = domain.DiscoveryRegistry
	}
	if cfg.DegradedAfter == 0 {
		cfg.DegradedAfter = defaultDegradedAfter
	}
	for _, e := range raw.EtcdEndpoints {
		if e = strings.TrimSpace(e); e != "" {
			cfg.EtcdEndpoints = append(cfg.EtcdEndpoints, e)
		}
	}
	if raw.RefreshIntervalMs < 0 || raw.FetchTimeoutMs < 0 || raw.StalenessLimitMs < 0 ||
		raw.BackoffInitialMs < 0 || raw.BackoffMaxMs < 0 || raw.DegradedAfter < 0 {
		return cfg, fmt.Errorf("discovery timings must not be negative")
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		return cfg, fmt.Errorf("discovery.backoff_max_ms must be >= backoff_initial_ms")
	}

	switch cfg.Type {
	case domain.DiscoveryRegistry:
		u, err := url.Parse(cfg.RegistryURL)
		if cfg.RegistryURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return cfg, fmt.Errorf("discovery.registry_url must be an http(s) URL for type registry")
		}
	case domain.DiscoveryConsul:
		if cfg.ConsulAddr == "" {
			return cfg, fmt.Errorf("discovery.consul_addr is required for type consul")
		}
	case domain.DiscoveryEtcd:
		if len(cfg.EtcdEndpoints) == 0 {
			return cfg, fmt.Errorf("discovery.etcd_endpoints is required for type etcd")
		}
		if cfg.EtcdPrefix == "" {
			cfg.EtcdPrefix = defaultEtcdPrefix
		}
	case domain.DiscoveryStatic:
		if cfg.StaticFile == "" {
			return cfg, fmt.Errorf("discovery.static_file is required for type static")
		}
		if !filepath.IsAbs(cfg.StaticFile) {
			cfg.StaticFile = filepath.Join(configDir, cfg.StaticFile)
		}
	default:
		return cfg, fmt.Errorf("discovery.type must be registry|consul|etcd|static, got %q", cfg.Type)
	}
	return cfg, nil
}

func requiredPort(env string) (int, error) {
	s := strings.TrimSpace(os.Getenv(env))
	port, err := strconv.Atoi(s)
	if err != nil || s == "" {
		return 0, fmt.Errorf("%s must be a valid port (1-65535)", env)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be 1-65535, got %d", env, port)
	}
	return port, nil
}

func optionalPort(env string) (int, error) {
	s := strings.TrimSpace(os.Getenv(env))
	if s == "" || s == "0" {
		return 0, nil
	}
	return requiredPort(env)
}

func msOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
