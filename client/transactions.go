// Package client is the HTTP client for the donation mirror service, the
// off-chain copy of the donation ledger. The mirror is read-only from our
// perspective; every failure mode here (HTTP error, success:false
// envelope, unreachable host) is an ordinary recoverable error, never a
// fault.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotFound means the mirror has no transaction with the requested id.
var ErrNotFound = errors.New("transaction not found")

// Transaction is one donation record as the mirror serves it. Amount is a
// decimal string; callers that need to compare or sum amounts must
// convert it to exact wei first.
type Transaction struct {
	ID        int       `json:"id"`
	Donor     string    `json:"donor"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TxHash    string    `json:"txHash"`
}

// Summary is the mirror's aggregate block. TotalAmount is display-only
// (the mirror rounds it); never treat it as authoritative.
type Summary struct {
	TotalTransactions int    `json:"totalTransactions"`
	TotalAmount       string `json:"totalAmount"`
	Currency          string `json:"currency"`
}

// Client is the HTTP client for the mirror service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new mirror service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// listEnvelope is the mirror's response wrapper for the list endpoint.
type listEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Transactions []Transaction `json:"transactions"`
		Summary      Summary       `json:"summary"`
	} `json:"data"`
}

// getEnvelope is the wrapper for the single-transaction endpoint.
type getEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Data    *Transaction `json:"data,omitempty"`
}

// ListTransactions fetches every donation the mirror knows about, in the
// mirror's own order (ascending id).
func (c *Client) ListTransactions(ctx context.Context) ([]Transaction, *Summary, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/transactions", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("mirror rejected request: %s", msg)
	}

	c.logger.Debug("mirror transactions fetched", "count", len(envelope.Data.Transactions))
	return envelope.Data.Transactions, &envelope.Data.Summary, nil
}

// GetTransaction fetches a single donation by mirror id.
func (c *Client) GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	u := fmt.Sprintf("%s/api/transactions/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	var envelope getEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !envelope.Success || envelope.Data == nil {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("mirror rejected request: %s", msg)
	}

	return envelope.Data, nil
}

// Health checks the mirror's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mirror unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
