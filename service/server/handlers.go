package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

// summary is the aggregate block on the list response. totalAmount is
// rounded for display; consumers must never treat it as authoritative.
type summary struct {
	TotalTransactions int    `json:"totalTransactions"`
	TotalAmount       string `json:"totalAmount"`
	Currency          string `json:"currency"`
}

// handleListTransactions returns a handler that serves the full
// transaction list.
// GET /api/transactions
func handleListTransactions(records []transactionRecord, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		total := decimal.Zero
		for _, tx := range records {
			amount, err := decimal.NewFromString(tx.Amount)
			if err != nil {
				logger.Error("seed record has malformed amount", "id", tx.ID, "amount", tx.Amount)
				writeJSON(w, map[string]any{
					"success": false,
					"error":   "failed to load transactions",
				}, http.StatusInternalServerError)
				return
			}
			total = total.Add(amount)
		}

		logger.Debug("transactions listed", "count", len(records))
		writeJSON(w, map[string]any{
			"success": true,
			"message": "transactions retrieved",
			"data": map[string]any{
				"transactions": records,
				"summary": summary{
					TotalTransactions: len(records),
					TotalAmount:       total.StringFixed(2),
					Currency:          "ETH",
				},
			},
		}, http.StatusOK)
	})
}

// handleGetTransaction returns a handler that serves one transaction by id.
// GET /api/transactions/{id}
func handleGetTransaction(records []transactionRecord, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := r.PathValue("id")
		id, err := strconv.Atoi(rawID)
		if err != nil {
			writeJSON(w, map[string]any{
				"success": false,
				"error":   "transaction id must be an integer",
				"id":      rawID,
			}, http.StatusBadRequest)
			return
		}

		for _, tx := range records {
			if tx.ID == id {
				logger.Debug("transaction found", "id", id)
				writeJSON(w, map[string]any{
					"success": true,
					"message": "transaction found",
					"data":    tx,
				}, http.StatusOK)
				return
			}
		}

		writeJSON(w, map[string]any{
			"success": false,
			"error":   "transaction not found",
			"id":      rawID,
		}, http.StatusNotFound)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
