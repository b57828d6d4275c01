// Package server implements the donation mirror service: a read-only
// HTTP API serving an off-chain copy of the donation ledger. It exists so
// the reconciliation view always has a second, independent source; it has
// no write path and no persistence.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donatechain/donatechain/service/metrics"
)

// Server is the HTTP server for the mirror service.
type Server struct {
	addr    string
	records []transactionRecord
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// New creates a mirror server serving the fixed seed dataset.
// The metrics collector is optional; if nil, the /metrics endpoint is
// disabled and nothing is recorded.
func New(addr string, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		records: seedTransactions,
		metrics: m,
		logger:  logger,
	}
}

// Handler builds the routed handler. Exposed so tests can serve the API
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	withMetrics := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	mux.Handle("GET /api/transactions", withMetrics("/api/transactions",
		handleListTransactions(s.records, s.logger)))
	mux.Handle("GET /api/transactions/{id}", withMetrics("/api/transactions/{id}",
		handleGetTransaction(s.records, s.logger)))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// The browser frontend fetches from a different origin.
	return corsMiddleware(mux)
}

// Start starts the HTTP server. Blocks until Shutdown or a listen error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting mirror HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down mirror HTTP server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS
// preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
