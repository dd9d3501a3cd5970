// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the engine over HTTP: JSON read and mutation
// endpoints under /api/v1, a websocket pressure stream, and Prometheus
// metrics.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/pdiddy/signal-engine/internal/engine"
	"github.com/pdiddy/signal-engine/internal/metrics"
	"github.com/pdiddy/signal-engine/pkg/types"
)

// HistoryReader returns recorded pressure readings, oldest first.
type HistoryReader interface {
	Recent(ctx context.Context, since time.Time) ([]types.PressurePoint, error)
}

// Option configures a Server.
type Option func(*Server)

// WithHistory serves GET /api/v1/history from h.
func WithHistory(h HistoryReader) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics serves GET /metrics from m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server is the HTTP front end of an Engine.
type Server struct {
	cfg     types.ServerConfig
	engine  *engine.Engine
	history HistoryReader
	metrics *metrics.Recorder
	version string
	handler http.Handler
}

// New builds the router for eng.
func New(cfg types.ServerConfig, eng *engine.Engine, opts ...Option) *Server {
	s := &Server{cfg: cfg, engine: eng, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.Use(logRequests)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/state", s.getState).Methods(http.MethodGet)
	api.HandleFunc("/aggregates", s.getAggregates).Methods(http.MethodGet)
	api.HandleFunc("/windows", s.getWindows).Methods(http.MethodGet)
	api.HandleFunc("/pressure", s.getPressure).Methods(http.MethodGet)
	api.HandleFunc("/taxonomy", s.getTaxonomy).Methods(http.MethodGet)
	api.HandleFunc("/taxonomy/{category}", s.getCategory).Methods(http.MethodGet)
	api.HandleFunc("/nodes/{node}", s.getNode).Methods(http.MethodGet)
	api.HandleFunc("/signals", s.getSignals).Methods(http.MethodGet)
	api.HandleFunc("/signals", s.postSignal).Methods(http.MethodPost)
	api.HandleFunc("/signals/batch", s.postBatch).Methods(http.MethodPost)
	api.HandleFunc("/fetch", s.postFetch).Methods(http.MethodPost)
	api.HandleFunc("/history", s.getHistory).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.stream).Methods(http.MethodGet)
	api.HandleFunc("/health", s.getHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	})
	s.handler = c.Handler(router)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves on cfg.BindAddress until ctx ends, then shuts down within
// five seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.cfg.BindAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method, "path", r.URL.Path,
			"status", rec.status, "elapsed", time.Since(start))
	})
}
