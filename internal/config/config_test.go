package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig tests creating a config with defaults
func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	if cfg == nil {
		t.Fatal("NewConfig() returned nil")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected default log format 'json', got %q", cfg.Log.Format)
	}
	if cfg.Search.MaxRetries != 3 {
		t.Errorf("Expected default max retries 3, got %d", cfg.Search.MaxRetries)
	}
	if cfg.Search.InitialDelay != 500*time.Millisecond {
		t.Errorf("Expected default initial delay 500ms, got %v", cfg.Search.InitialDelay)
	}
	if cfg.Search.CircuitFailureThreshold != 5 {
		t.Errorf("Expected default failure threshold 5, got %d", cfg.Search.CircuitFailureThreshold)
	}
	if cfg.Search.CircuitTripWindow != 60*time.Second {
		t.Errorf("Expected default trip window 60s, got %v", cfg.Search.CircuitTripWindow)
	}
	if cfg.Search.DefaultPageLimit != 20 {
		t.Errorf("Expected default page limit 20, got %d", cfg.Search.DefaultPageLimit)
	}
	if cfg.KVStore.Backend != "memory" {
		t.Errorf("Expected default kvstore backend 'memory', got %q", cfg.KVStore.Backend)
	}
}

// TestConfigValidation tests configuration validation
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Search.MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name:    "backoff below one",
			mutate:  func(c *Config) { c.Search.BackoffMultiplier = 0.5 },
			wantErr: "backoff_multiplier",
		},
		{
			name:    "unknown kvstore backend",
			mutate:  func(c *Config) { c.KVStore.Backend = "dynamo" },
			wantErr: "invalid kvstore backend",
		},
		{
			name:    "pebble without path",
			mutate:  func(c *Config) { c.KVStore.Backend = "pebble" },
			wantErr: "pebble_path",
		},
		{
			name: "duplicate chain",
			mutate: func(c *Config) {
				c.Chains = []ChainConfig{
					{Chain: "ethereum", Adapter: "fixture"},
					{Chain: "ethereum", Adapter: "fixture"},
				}
			},
			wantErr: "configured twice",
		},
		{
			name: "evm without endpoint",
			mutate: func(c *Config) {
				c.Chains = []ChainConfig{{Chain: "ethereum", Adapter: "evm"}}
			},
			wantErr: "needs an endpoint",
		},
		{
			name: "unknown adapter",
			mutate: func(c *Config) {
				c.Chains = []ChainConfig{{Chain: "ethereum", Adapter: "carrier-pigeon"}}
			},
			wantErr: "invalid adapter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoadFromFile tests loading configuration from a YAML file
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log:
  level: debug
server:
  enabled: true
  port: 9090
search:
  max_retries: 5
  initial_delay: 250ms
  circuit_trip_window: 30s
chains:
  - chain: ethereum
    adapter: evm
    endpoint: https://indexer.example.com
  - chain: sui
    adapter: fixture
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Defaults still apply to omitted fields.
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Search.MaxRetries != 5 {
		t.Errorf("Search.MaxRetries = %d, want 5", cfg.Search.MaxRetries)
	}
	if cfg.Search.InitialDelay != 250*time.Millisecond {
		t.Errorf("Search.InitialDelay = %v, want 250ms", cfg.Search.InitialDelay)
	}
	if len(cfg.Chains) != 2 {
		t.Fatalf("len(Chains) = %d, want 2", len(cfg.Chains))
	}
	if cfg.Chains[0].Adapter != "evm" {
		t.Errorf("Chains[0].Adapter = %q, want evm", cfg.Chains[0].Adapter)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// TestLoadFromFileMissing tests loading a nonexistent file
func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFromFile() expected error for missing file")
	}
}

// TestLoadFromEnv tests environment variable overrides
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHAINSEARCH_LOG_LEVEL", "warn")
	t.Setenv("CHAINSEARCH_SERVER_PORT", "7070")
	t.Setenv("CHAINSEARCH_MAX_RETRIES", "7")
	t.Setenv("CHAINSEARCH_INITIAL_DELAY", "100ms")
	t.Setenv("CHAINSEARCH_CIRCUIT_TRIP_WINDOW", "90s")
	t.Setenv("CHAINSEARCH_KVSTORE_BACKEND", "redis")

	cfg := NewConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Search.MaxRetries != 7 {
		t.Errorf("Search.MaxRetries = %d, want 7", cfg.Search.MaxRetries)
	}
	if cfg.Search.InitialDelay != 100*time.Millisecond {
		t.Errorf("Search.InitialDelay = %v, want 100ms", cfg.Search.InitialDelay)
	}
	if cfg.Search.CircuitTripWindow != 90*time.Second {
		t.Errorf("Search.CircuitTripWindow = %v, want 90s", cfg.Search.CircuitTripWindow)
	}
	if cfg.KVStore.Backend != "redis" {
		t.Errorf("KVStore.Backend = %q, want redis", cfg.KVStore.Backend)
	}
}

// TestLoadFromEnvInvalid tests invalid environment values
func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("CHAINSEARCH_SERVER_PORT", "not-a-number")

	cfg := NewConfig()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("LoadFromEnv() expected error for invalid port")
	}
}
