// Package api provides the HTTP server for the SmartThings exporter.
//
// It exposes the Prometheus scrape endpoint together with liveness and
// operational status endpoints.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/smartthings-exporter/internal/infrastructure/config"
	"github.com/nerrad567/smartthings-exporter/internal/infrastructure/logging"
	"github.com/nerrad567/smartthings-exporter/internal/registry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Registry *registry.Registry
	Version  string
}

// Server is the HTTP server for the exporter.
//
// It manages the HTTP listener, routes, and the Prometheus gather
// registry. The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	registry  *registry.Registry
	version   string
	startTime time.Time
	gatherer  *prometheus.Registry
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The scrape endpoint serves a dedicated Prometheus registry holding
// only this exporter's collector, so the output carries no process or
// Go runtime series. The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, sample registry)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("sample registry is required")
	}

	gatherer := prometheus.NewRegistry()
	if err := gatherer.Register(registry.NewCollector(deps.Registry)); err != nil {
		return nil, fmt.Errorf("registering collector: %w", err)
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		registry:  deps.Registry,
		version:   deps.Version,
		startTime: time.Now(),
		gatherer:  gatherer,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener is bound synchronously so a bind failure (port in use,
// bad address) surfaces here and the process can exit non-zero at
// startup. Request serving then runs in a background goroutine; the
// server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.server.Addr, err)
	}

	go func() {
		s.logger.Info("metrics server starting",
			"address", s.server.Addr,
			"metrics_path", s.cfg.MetricsPath,
		)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("metrics server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
