package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// Prometheus scrape endpoint
	r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Liveness: 200 whenever the process serves HTTP. Poll staleness is
	// reported through the exporter's own series, not this endpoint, so
	// a broken upstream never makes the exporter look dead.
	r.Get("/healthz", s.handleHealth)

	// Operational status for humans
	r.Get("/status", s.handleStatus)

	return r
}

// handleHealth returns liveness status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
