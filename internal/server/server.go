// Package server exposes the matching engine as a small JSON HTTP service.
//
// Routes:
//
//   - POST /v1/match  — match a single query or a batch of queries.
//   - POST /v1/reload — rebuild the index from the configured source.
//   - GET  /healthz, /readyz — liveness and readiness probes.
//   - GET  /metrics   — Prometheus scrape endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxlex/voxlex/internal/batch"
	"github.com/voxlex/voxlex/internal/engine"
	"github.com/voxlex/voxlex/internal/health"
	"github.com/voxlex/voxlex/internal/match"
	"github.com/voxlex/voxlex/internal/observe"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second

	// maxBodyBytes caps request bodies. Queries are short spoken phrases;
	// anything beyond this is a client error.
	maxBodyBytes = 1 << 20
)

// Option configures a [Server].
type Option func(*Server)

// WithMetrics sets the metrics instance. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithReadinessCheck adds an extra readiness checker, e.g. a dictionary
// source probe. The built-in "index" check is always present.
func WithReadinessCheck(c health.Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, c) }
}

// Server serves the matching API over HTTP.
type Server struct {
	engine   *engine.Engine
	runner   *batch.Runner
	metrics  *observe.Metrics
	checkers []health.Checker
}

// New creates a [Server] around e. Batch requests run through r.
func New(e *engine.Engine, r *batch.Runner, opts ...Option) *Server {
	s := &Server{
		engine: e,
		runner: r,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler returns the full route tree wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/match", s.handleMatch)
	mux.HandleFunc("POST /v1/reload", s.handleReload)
	mux.Handle("GET /metrics", promhttp.Handler())

	checkers := append([]health.Checker{{
		Name: "index",
		Check: func(_ context.Context) error {
			if !s.engine.Ready() {
				return errors.New("no index built")
			}
			return nil
		},
	}}, s.checkers...)
	health.New(checkers...).Register(mux)

	return observe.Middleware(s.metrics)(mux)
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// matchRequest is the body of POST /v1/match. Exactly one of Query and
// Queries must be set.
type matchRequest struct {
	Query   string   `json:"query"`
	Queries []string `json:"queries"`
}

// batchResponse is the body returned for batch match requests.
type batchResponse struct {
	Results []match.Result `json:"results"`
}

// reloadResponse is the body returned by POST /v1/reload.
type reloadResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

// errorResponse is the body returned for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if (req.Query != "") == (len(req.Queries) > 0) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exactly one of 'query' and 'queries' must be set"})
		return
	}

	if req.Query != "" {
		res, err := s.engine.Match(r.Context(), req.Query)
		if err != nil {
			s.writeMatchError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	results, err := s.runner.MatchAll(r.Context(), req.Queries)
	if err != nil {
		s.writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Rebuild(r.Context()); err != nil {
		slog.Error("reload failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Status:  "ok",
		Entries: s.engine.Index().Len(),
	})
}

// writeMatchError maps engine errors onto HTTP statuses. A missing index is
// the client's (operator's) problem, not a server fault.
func (s *Server) writeMatchError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, engine.ErrNoIndex) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}
