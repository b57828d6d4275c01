package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Watcher synthesizes accountsChanged/chainChanged events for transports
// that cannot push notifications, by polling eth_accounts and eth_chainId
// and emitting an event whenever a snapshot differs from the last one.
// Identical snapshots emit nothing, so downstream handlers see the same
// stream a pushing transport would deliver.
type Watcher struct {
	adapter  *Adapter
	interval time.Duration
	logger   *slog.Logger
	events   chan Event

	lastAccounts []common.Address
	lastChain    uint64
	primed       bool
}

// NewWatcher creates a watcher over the adapter. Events() delivers the
// synthesized stream; Run must be started for anything to arrive.
func NewWatcher(adapter *Adapter, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		adapter:  adapter,
		interval: interval,
		logger:   logger,
		events:   make(chan Event, 8),
	}
}

// Events returns the provider event channel. Closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls until ctx is canceled. The first poll primes the baseline
// snapshot without emitting, so startup state is not misreported as a
// change.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	accounts, err := w.adapter.Accounts(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "account poll failed", "error", err)
		return
	}
	chainID, err := w.adapter.ChainID(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "chain id poll failed", "error", err)
		return
	}

	if !w.primed {
		w.lastAccounts = accounts
		w.lastChain = chainID
		w.primed = true
		return
	}

	if !sameAccounts(accounts, w.lastAccounts) {
		w.lastAccounts = accounts
		w.emit(ctx, Event{Kind: EventAccountsChanged, Accounts: accounts})
	}
	if chainID != w.lastChain {
		w.lastChain = chainID
		w.emit(ctx, Event{Kind: EventChainChanged, ChainID: chainID})
	}
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func sameAccounts(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
