// Package api exposes the search and verification operations over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apimiddleware "github.com/whereissam/chainsearch/pkg/api/middleware"
	"github.com/whereissam/chainsearch/pkg/search"
	"github.com/whereissam/chainsearch/pkg/verify"
	"go.uber.org/zap"
)

// Server serves the HTTP API over a search engine and a verification
// coordinator.
type Server struct {
	config   *Config
	logger   *zap.Logger
	engine   *search.Engine
	verifier *verify.Coordinator
	rules    *verify.RuleStore
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates an API server. rules may be nil to disable the gating
// rule endpoints.
func NewServer(config *Config, logger *zap.Logger, engine *search.Engine, verifier *verify.Coordinator, rules *verify.RuleStore) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		config:   config,
		logger:   logger.Named("api"),
		engine:   engine,
		verifier: verifier,
		rules:    rules,
		router:   chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(apimiddleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(apimiddleware.Logger(s.logger))

	if s.config.EnableRateLimit {
		s.router.Use(apimiddleware.RateLimit(
			s.config.RateLimitPerSecond,
			s.config.RateLimitBurst,
			s.logger,
		))
		s.logger.Info("rate limiting enabled",
			zap.Float64("rate_per_second", s.config.RateLimitPerSecond),
			zap.Int("burst", s.config.RateLimitBurst),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleAdvancedSearch)
		r.Get("/search/owner/{address}", s.handleSearchByOwner)
		r.Get("/search/collection/{ref}", s.handleSearchByCollection)
		r.Get("/search/text", s.handleTextSearch)
		r.Get("/assets/{chain}/{assetID}", s.handleQueryAsset)
		r.Post("/verify", s.handleVerify)
		r.Post("/verify/multichain", s.handleVerifyMultiChain)

		if s.rules != nil {
			r.Put("/rules/{name}", s.handleSaveRule)
			r.Get("/rules/{name}", s.handleGetRule)
			r.Delete("/rules/{name}", s.handleDeleteRule)
			r.Post("/rules/{name}/verify", s.handleVerifyRule)
		}
	})
}

// Start begins serving requests and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("address", s.config.Address()))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}
