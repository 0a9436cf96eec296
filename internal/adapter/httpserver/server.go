// Package httpserver exposes the nearest-carpark query plus health,
// readiness, and metrics endpoints over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/query"
	"github.com/parkscout/carpark-finder/internal/ranker"
)

// NearestService answers nearest-carpark queries.
type NearestService interface {
	Nearest(ctx context.Context, address string, n int) (domain.Destination, []domain.RankedCarpark, error)
	CheckReadiness(ctx context.Context) error
}

// Server wires the query service into an HTTP mux.
type Server struct {
	httpServer *http.Server
	service    NearestService
	defaultN   int
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /nearest, /healthz, /readyz, and
// /metrics routes. defaultN is the result count used when the request
// omits n.
func NewServer(addr string, service NearestService, defaultN int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service:  service,
		defaultN: defaultN,
		logger:   logger,
	}

	mux.HandleFunc("GET /nearest", s.handleNearest)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// nearestResponse is the /nearest payload.
type nearestResponse struct {
	Destination domain.Destination     `json:"destination"`
	Carparks    []domain.RankedCarpark `json:"carparks"`
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "address query parameter is required"})
		return
	}

	n := s.defaultN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	dest, ranked, err := s.service.Nearest(r.Context(), address, n)
	switch {
	case errors.Is(err, ranker.ErrUnresolvedDestination):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "address could not be resolved"})
		return
	case errors.Is(err, query.ErrNoSnapshot):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("nearest query failed", "address", address, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "nearest query failed"})
		return
	}

	if ranked == nil {
		ranked = []domain.RankedCarpark{}
	}
	writeJSON(w, http.StatusOK, nearestResponse{Destination: dest, Carparks: ranked})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
