package donation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/donatechain/donatechain/service/metrics"
)

// ReceiptSource is the subset of ethclient used to look up transaction
// receipts. An interface so confirmation waiting tests without a node.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ReceiptPoller waits for one confirmation by polling the read endpoint
// for a receipt. It keeps polling through transient lookup errors; only
// ctx decides when to give up.
type ReceiptPoller struct {
	source   ReceiptSource
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewReceiptPoller creates a poller. interval is how often to re-query.
func NewReceiptPoller(source ReceiptSource, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *ReceiptPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReceiptPoller{
		source:   source,
		interval: interval,
		logger:   logger,
		metrics:  m,
	}
}

// WaitConfirmed implements ReceiptWaiter.
func (p *ReceiptPoller) WaitConfirmed(ctx context.Context, tx common.Hash) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		receipt, err := p.source.TransactionReceipt(ctx, tx)
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordChainCall("eth_getTransactionReceipt", status, time.Since(start).Seconds())

		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return ErrReverted
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet; keep waiting.
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			// Transient RPC failure; the receipt may appear on the next
			// poll, so log and continue.
			p.logger.DebugContext(ctx, "receipt lookup failed", "tx", tx.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
