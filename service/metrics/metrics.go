package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics. A nil
// *Metrics is safe everywhere and records nothing.
type Metrics struct {
	// Wallet transport metrics
	walletCallsTotal   *prometheus.CounterVec
	walletCallDuration *prometheus.HistogramVec

	// Chain read metrics (ledger reader, receipt polling)
	chainCallsTotal   *prometheus.CounterVec
	chainCallDuration *prometheus.HistogramVec

	// Mirror API metrics
	mirrorFetchesTotal  *prometheus.CounterVec
	mirrorFetchDuration prometheus.Histogram

	// Donation submission metrics
	donationsTotal      *prometheus.CounterVec
	confirmWaitDuration *prometheus.HistogramVec

	// Reconciliation view metrics
	sourceRefreshesTotal  *prometheus.CounterVec
	sourceRefreshDuration *prometheus.HistogramVec

	// HTTP metrics (mirror server)
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		walletCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_rpc_calls_total",
				Help: "Total number of wallet transport requests by method and status",
			},
			[]string{"method", "status"},
		),
		walletCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_rpc_call_duration_seconds",
				Help:    "Duration of wallet transport requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"method"},
		),
		chainCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_rpc_calls_total",
				Help: "Total number of read-only chain RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		chainCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_rpc_call_duration_seconds",
				Help:    "Duration of read-only chain RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		mirrorFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_fetches_total",
				Help: "Total number of mirror API fetches by status",
			},
			[]string{"status"},
		),
		mirrorFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mirror_fetch_duration_seconds",
				Help:    "Duration of mirror API fetches in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),
		donationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "donations_submitted_total",
				Help: "Total number of donation submissions by terminal outcome",
			},
			[]string{"outcome"},
		),
		confirmWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "donation_confirm_wait_seconds",
				Help:    "Time spent waiting for donation transaction confirmation",
				Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 300},
			},
			[]string{"outcome"},
		),
		sourceRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "source_refreshes_total",
				Help: "Total number of reconciliation view refreshes by source and status",
			},
			[]string{"source", "status"},
		),
		sourceRefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "source_refresh_duration_seconds",
				Help:    "Duration of reconciliation view refreshes in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by handler, method, and status class",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Wallet transport metric helpers

// RecordWalletCall records a wallet transport request with duration.
func (m *Metrics) RecordWalletCall(method, status string, duration float64) {
	if m == nil {
		return
	}
	m.walletCallsTotal.WithLabelValues(method, status).Inc()
	m.walletCallDuration.WithLabelValues(method).Observe(duration)
}

// Chain read metric helpers

// RecordChainCall records a read-only chain RPC call with duration.
func (m *Metrics) RecordChainCall(method, status string, duration float64) {
	if m == nil {
		return
	}
	m.chainCallsTotal.WithLabelValues(method, status).Inc()
	m.chainCallDuration.WithLabelValues(method).Observe(duration)
}

// Mirror API metric helpers

// RecordMirrorFetch records a mirror API fetch with duration.
func (m *Metrics) RecordMirrorFetch(status string, duration float64) {
	if m == nil {
		return
	}
	m.mirrorFetchesTotal.WithLabelValues(status).Inc()
	m.mirrorFetchDuration.Observe(duration)
}

// Donation metric helpers

// RecordDonation records the terminal outcome of a donation submission
// and how long the confirmation wait took.
func (m *Metrics) RecordDonation(outcome string, confirmWait float64) {
	if m == nil {
		return
	}
	m.donationsTotal.WithLabelValues(outcome).Inc()
	m.confirmWaitDuration.WithLabelValues(outcome).Observe(confirmWait)
}

// Reconciliation view metric helpers

// RecordSourceRefresh records a reconciliation view refresh with duration.
func (m *Metrics) RecordSourceRefresh(source, status string, duration float64) {
	if m == nil {
		return
	}
	m.sourceRefreshesTotal.WithLabelValues(source, status).Inc()
	m.sourceRefreshDuration.WithLabelValues(source).Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// statusCodeToString groups status codes by class.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
