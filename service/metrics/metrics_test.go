package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	// Every Record method must be a no-op on a nil receiver.
	m.RecordWalletCall("eth_accounts", "success", 0.1)
	m.RecordChainCall("eth_call", "error", 0.2)
	m.RecordMirrorFetch("success", 0.3)
	m.RecordDonation("confirmed", 12.5)
	m.RecordSourceRefresh("chain", "success", 0.4)
	m.RecordHTTPRequest("/api/transactions", "GET", 200, 0.01)
}

func TestNewMetrics_RegistersOnFreshRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RecordWalletCall("eth_chainId", "success", 0.05)
	m.RecordSourceRefresh("mirror", "error", 0.1)

	families, err := registry.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHTTPMetricsMiddleware_CapturesStatus(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m, "/api/transactions")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	families, err := registry.Gather()
	assert.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "http_requests_total" {
			found = true
			for _, metric := range mf.GetMetric() {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "status" {
						assert.Equal(t, "4xx", label.GetValue())
					}
				}
			}
		}
	}
	assert.True(t, found, "http_requests_total was not registered")
}
