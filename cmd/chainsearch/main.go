package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/whereissam/chainsearch/internal/config"
	"github.com/whereissam/chainsearch/internal/logger"
	"github.com/whereissam/chainsearch/pkg/adapter"
	"github.com/whereissam/chainsearch/pkg/adapter/evm"
	"github.com/whereissam/chainsearch/pkg/adapter/fixture"
	"github.com/whereissam/chainsearch/pkg/api"
	"github.com/whereissam/chainsearch/pkg/classify"
	"github.com/whereissam/chainsearch/pkg/kvstore"
	"github.com/whereissam/chainsearch/pkg/resilience"
	"github.com/whereissam/chainsearch/pkg/search"
	"github.com/whereissam/chainsearch/pkg/types"
	"github.com/whereissam/chainsearch/pkg/verify"
	"go.uber.org/zap"
)

var (
	// Version information (injected at build time)
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to configuration file (YAML)")
		showVersion = flag.Bool("version", false, "Show version information and exit")
		host        = flag.String("host", "", "HTTP server host")
		port        = flag.Int("port", 0, "HTTP server port")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat   = flag.String("log-format", "", "Log format (json, console)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("chainsearch version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, *host, *port, *logLevel, *logFormat)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting chainsearch",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_time", buildTime),
		zap.Int("chains", len(cfg.Chains)),
		zap.String("kvstore", cfg.KVStore.Backend),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("chainsearch failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := adapter.NewRegistry(log)
	if err := registerChains(registry, cfg.Chains, log); err != nil {
		return err
	}
	log.Info("chains registered", zap.Any("configured", registry.Configured()))

	classifier := classify.NewClassifier(log)
	breaker := resilience.NewCircuitBreaker(
		cfg.Search.CircuitFailureThreshold,
		cfg.Search.CircuitTripWindow,
		log,
	)
	executor := resilience.NewExecutor(classifier, breaker, log)

	metrics := search.NewMetrics("chainsearch")
	fanout := search.NewFanOut(search.FanOutConfig{
		PerCallTimeout:    cfg.Search.PerCallTimeout,
		OverallTimeout:    cfg.Search.OverallTimeout,
		MaxConcurrent:     cfg.Search.MaxConcurrent,
		MaxRetries:        cfg.Search.MaxRetries,
		InitialDelay:      cfg.Search.InitialDelay,
		BackoffMultiplier: cfg.Search.BackoffMultiplier,
	}, registry, executor, classifier, metrics, log)

	engine := search.NewEngine(fanout, cfg.Search.DefaultPageLimit, log)
	verifier := verify.NewCoordinator(fanout, nil, log)

	store, err := openKVStore(ctx, cfg.KVStore, log)
	if err != nil {
		return err
	}
	defer store.Close()
	rules := verify.NewRuleStore(store, 0)

	if !cfg.Server.Enabled {
		log.Info("http server disabled, waiting for shutdown signal")
		<-ctx.Done()
		return nil
	}

	serverCfg := api.DefaultConfig()
	serverCfg.Host = cfg.Server.Host
	serverCfg.Port = cfg.Server.Port
	if cfg.Server.RateLimit > 0 {
		serverCfg.EnableRateLimit = true
		serverCfg.RateLimitPerSecond = cfg.Server.RateLimit
		serverCfg.RateLimitBurst = cfg.Server.RateBurst
	}

	server, err := api.NewServer(serverCfg, log, engine, verifier, rules)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("chainsearch stopped")
	return nil
}

// registerChains builds and registers one adapter per configured chain.
func registerChains(registry *adapter.Registry, chains []config.ChainConfig, log *zap.Logger) error {
	for _, cc := range chains {
		chain := types.ChainID(cc.Chain)

		var a adapter.ChainAdapter
		switch cc.Adapter {
		case "evm":
			a = evm.New(evm.Config{
				Chain:    chain,
				Endpoint: cc.Endpoint,
				APIKey:   cc.APIKey,
				Timeout:  cc.Timeout,
				PageSize: cc.PageSize,
			}, log)
		case "fixture":
			a = fixture.New(chain)
		default:
			return fmt.Errorf("chain %q: unknown adapter %q", cc.Chain, cc.Adapter)
		}

		if err := registry.Register(a); err != nil {
			return fmt.Errorf("register chain %q: %w", cc.Chain, err)
		}
	}
	return nil
}

// openKVStore opens the configured metadata store backend.
func openKVStore(ctx context.Context, cfg config.KVStoreConfig, log *zap.Logger) (kvstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return kvstore.NewMemoryStore(), nil
	case "pebble":
		return kvstore.NewPebbleStore(kvstore.PebbleConfig{
			Path:    cfg.PebblePath,
			CacheMB: cfg.PebbleCacheMB,
		}, log)
	case "redis":
		return kvstore.NewRedisStore(ctx, kvstore.RedisConfig{
			Addresses: cfg.RedisAddrs,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
		}, log)
	default:
		return nil, fmt.Errorf("unknown kvstore backend %q", cfg.Backend)
	}
}

// loadConfig loads configuration from the file (if given), a .env file and
// environment variables, in that order.
func loadConfig(configFile string) (*config.Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.NewConfig()
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads environment variables from a .env file if it exists.
func loadDotEnv() error {
	info, err := os.Stat(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat .env: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf(".env exists but is a directory")
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyFlags applies command-line flags to configuration
func applyFlags(cfg *config.Config, host string, port int, logLevel, logFormat string) {
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
}
