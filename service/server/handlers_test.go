package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donatechain/donatechain/client"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(":0", nil, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestListTransactions_EnvelopeShape(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/transactions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Transactions []transactionRecord `json:"transactions"`
			Summary      summary             `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.Message)
	require.Len(t, envelope.Data.Transactions, len(seedTransactions))
	assert.Equal(t, len(seedTransactions), envelope.Data.Summary.TotalTransactions)
	assert.Equal(t, "ETH", envelope.Data.Summary.Currency)

	// The summary total is the decimal sum of the seed amounts.
	total := decimal.Zero
	for _, tx := range seedTransactions {
		amount, err := decimal.NewFromString(tx.Amount)
		require.NoError(t, err)
		total = total.Add(amount)
	}
	assert.Equal(t, total.StringFixed(2), envelope.Data.Summary.TotalAmount)
}

func TestGetTransaction_Found(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/transactions/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool              `json:"success"`
		Data    transactionRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, envelope.Data.ID)
	assert.Equal(t, seedTransactions[0].Donor, envelope.Data.Donor)
}

func TestGetTransaction_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/transactions/999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)
	assert.Equal(t, "999", envelope.ID)
}

func TestGetTransaction_NonNumericID(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/transactions/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORS_PreflightAndHeaders(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/transactions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMirrorRoundTrip_WithClient(t *testing.T) {
	ts := newTestServer(t)

	c := client.NewClient(ts.URL, nil, nil)

	txns, summary, err := c.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txns, len(seedTransactions))
	assert.Equal(t, len(seedTransactions), summary.TotalTransactions)

	// Ascending id order as served.
	for i, txn := range txns {
		assert.Equal(t, i+1, txn.ID)
		assert.Equal(t, "ETH", txn.Currency)
		assert.False(t, txn.Timestamp.IsZero())
	}

	txn, err := c.GetTransaction(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, seedTransactions[1].Message, txn.Message)

	_, err = c.GetTransaction(context.Background(), 12345)
	assert.ErrorIs(t, err, client.ErrNotFound)

	require.NoError(t, c.Health(context.Background()))
}

func TestSeedData_AmountsParse(t *testing.T) {
	for _, tx := range seedTransactions {
		amount, err := decimal.NewFromString(tx.Amount)
		require.NoError(t, err, "seed id %d", tx.ID)
		assert.True(t, amount.IsPositive(), "seed id %d", tx.ID)
		assert.False(t, tx.Timestamp.After(time.Now().Add(365*24*time.Hour)), "seed id %d", tx.ID)
	}
}
