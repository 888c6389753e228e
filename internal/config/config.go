package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Search  SearchConfig  `yaml:"search"`
	KVStore KVStoreConfig `yaml:"kvstore"`
	Chains  []ChainConfig `yaml:"chains"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	// RateLimit is requests per second per client; RateBurst is the burst
	// allowance. Zero disables rate limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// SearchConfig holds the search and resilience tuning surface.
type SearchConfig struct {
	MaxRetries              int           `yaml:"max_retries"`
	InitialDelay            time.Duration `yaml:"initial_delay"`
	BackoffMultiplier       float64       `yaml:"backoff_multiplier"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitTripWindow       time.Duration `yaml:"circuit_trip_window"`
	DefaultPageLimit        int           `yaml:"default_page_limit"`
	PerCallTimeout          time.Duration `yaml:"per_call_timeout"`
	OverallTimeout          time.Duration `yaml:"overall_timeout"`
	MaxConcurrent           int           `yaml:"max_concurrent"`
}

// KVStoreConfig selects and configures the metadata store backend.
type KVStoreConfig struct {
	// Backend is one of "memory", "pebble" or "redis".
	Backend string `yaml:"backend"`

	PebblePath    string   `yaml:"pebble_path"`
	PebbleCacheMB int      `yaml:"pebble_cache_mb"`
	RedisAddrs    []string `yaml:"redis_addresses"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	RedisPrefix   string   `yaml:"redis_key_prefix"`
}

// ChainConfig configures one chain adapter.
type ChainConfig struct {
	// Chain is the chain identifier, e.g. "ethereum" or "sui".
	Chain string `yaml:"chain"`
	// Adapter selects the implementation: "evm" or "fixture".
	Adapter  string        `yaml:"adapter"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	PageSize int           `yaml:"page_size"`
}

// NewConfig creates a config with default values.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Search.MaxRetries == 0 {
		c.Search.MaxRetries = 3
	}
	if c.Search.InitialDelay == 0 {
		c.Search.InitialDelay = 500 * time.Millisecond
	}
	if c.Search.BackoffMultiplier == 0 {
		c.Search.BackoffMultiplier = 2.0
	}
	if c.Search.CircuitFailureThreshold == 0 {
		c.Search.CircuitFailureThreshold = 5
	}
	if c.Search.CircuitTripWindow == 0 {
		c.Search.CircuitTripWindow = 60 * time.Second
	}
	if c.Search.DefaultPageLimit == 0 {
		c.Search.DefaultPageLimit = 20
	}
	if c.Search.PerCallTimeout == 0 {
		c.Search.PerCallTimeout = 10 * time.Second
	}
	if c.Search.OverallTimeout == 0 {
		c.Search.OverallTimeout = 30 * time.Second
	}
	if c.KVStore.Backend == "" {
		c.KVStore.Backend = "memory"
	}
}

// LoadFromFile loads configuration from a YAML file and applies defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.SetDefaults()
	return cfg, nil
}

// LoadFromEnv overrides configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if level := os.Getenv("CHAINSEARCH_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("CHAINSEARCH_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	if host := os.Getenv("CHAINSEARCH_SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("CHAINSEARCH_SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_SERVER_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if retries := os.Getenv("CHAINSEARCH_MAX_RETRIES"); retries != "" {
		r, err := strconv.Atoi(retries)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_MAX_RETRIES: %w", err)
		}
		c.Search.MaxRetries = r
	}
	if delay := os.Getenv("CHAINSEARCH_INITIAL_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_INITIAL_DELAY: %w", err)
		}
		c.Search.InitialDelay = d
	}
	if mult := os.Getenv("CHAINSEARCH_BACKOFF_MULTIPLIER"); mult != "" {
		m, err := strconv.ParseFloat(mult, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_BACKOFF_MULTIPLIER: %w", err)
		}
		c.Search.BackoffMultiplier = m
	}
	if threshold := os.Getenv("CHAINSEARCH_CIRCUIT_FAILURE_THRESHOLD"); threshold != "" {
		v, err := strconv.Atoi(threshold)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_CIRCUIT_FAILURE_THRESHOLD: %w", err)
		}
		c.Search.CircuitFailureThreshold = v
	}
	if window := os.Getenv("CHAINSEARCH_CIRCUIT_TRIP_WINDOW"); window != "" {
		d, err := time.ParseDuration(window)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_CIRCUIT_TRIP_WINDOW: %w", err)
		}
		c.Search.CircuitTripWindow = d
	}
	if limit := os.Getenv("CHAINSEARCH_DEFAULT_PAGE_LIMIT"); limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil {
			return fmt.Errorf("invalid CHAINSEARCH_DEFAULT_PAGE_LIMIT: %w", err)
		}
		c.Search.DefaultPageLimit = v
	}
	if backend := os.Getenv("CHAINSEARCH_KVSTORE_BACKEND"); backend != "" {
		c.KVStore.Backend = backend
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Search.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative: %d", c.Search.MaxRetries)
	}
	if c.Search.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be at least 1: %v", c.Search.BackoffMultiplier)
	}
	if c.Search.CircuitFailureThreshold < 1 {
		return fmt.Errorf("circuit_failure_threshold must be positive: %d", c.Search.CircuitFailureThreshold)
	}
	if c.Search.DefaultPageLimit < 1 {
		return fmt.Errorf("default_page_limit must be positive: %d", c.Search.DefaultPageLimit)
	}
	switch c.KVStore.Backend {
	case "memory", "pebble", "redis":
	default:
		return fmt.Errorf("invalid kvstore backend: %q", c.KVStore.Backend)
	}
	if c.KVStore.Backend == "pebble" && c.KVStore.PebblePath == "" {
		return fmt.Errorf("kvstore backend pebble needs pebble_path")
	}
	if c.KVStore.Backend == "redis" && len(c.KVStore.RedisAddrs) == 0 {
		return fmt.Errorf("kvstore backend redis needs redis_addresses")
	}

	seen := make(map[string]bool, len(c.Chains))
	for i, chain := range c.Chains {
		if chain.Chain == "" {
			return fmt.Errorf("chain %d: chain id is required", i)
		}
		if seen[chain.Chain] {
			return fmt.Errorf("chain %q configured twice", chain.Chain)
		}
		seen[chain.Chain] = true
		switch chain.Adapter {
		case "evm", "fixture":
		default:
			return fmt.Errorf("chain %q: invalid adapter %q", chain.Chain, chain.Adapter)
		}
		if chain.Adapter == "evm" && chain.Endpoint == "" {
			return fmt.Errorf("chain %q: evm adapter needs an endpoint", chain.Chain)
		}
	}
	return nil
}
