// Package view reconciles the two donation sources — the on-chain ledger
// and the off-chain mirror — into a single normalized record stream with
// independently selectable, independently refreshed pipelines.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/donatechain/donatechain/client"
	"github.com/donatechain/donatechain/service/donation"
	"github.com/donatechain/donatechain/service/metrics"
)

// Phase is the fetch state of one source pipeline.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SourceState is a snapshot of one pipeline. Records are only meaningful
// in PhaseLoaded, Err only in PhaseFailed.
type SourceState struct {
	Phase     Phase
	Records   []donation.Record
	Err       error
	FetchedAt time.Time
}

// LedgerLister abstracts the on-chain reader.
type LedgerLister interface {
	ListDonations(ctx context.Context) ([]donation.Record, error)
}

// MirrorLister abstracts the mirror API client.
type MirrorLister interface {
	ListTransactions(ctx context.Context) ([]client.Transaction, *client.Summary, error)
}

// View owns the two fetch pipelines and the active-source selector.
// Each source keeps its own state; refreshing one never blocks or
// invalidates the other, and switching the selector never triggers a
// fetch. Records come out in the order the source delivered them — the
// sources use different clocks, so the view never re-sorts.
type View struct {
	ledger  LedgerLister
	mirror  MirrorLister
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	active donation.Source
	states map[donation.Source]SourceState
}

// New creates a reconciliation view. The mirror starts as the active
// source; both pipelines start Idle.
func New(ledger LedgerLister, mirror MirrorLister, m *metrics.Metrics, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		ledger:  ledger,
		mirror:  mirror,
		logger:  logger,
		metrics: m,
		active:  donation.SourceMirror,
		states: map[donation.Source]SourceState{
			donation.SourceOnChain: {Phase: PhaseIdle},
			donation.SourceMirror:  {Phase: PhaseIdle},
		},
	}
}

// SetActive switches which pipeline is rendered. Already-loaded data
// stays cached; no fetch happens here.
func (v *View) SetActive(source donation.Source) {
	v.mu.Lock()
	v.active = source
	v.mu.Unlock()
}

// Active returns the selected source and its current state.
func (v *View) Active() (donation.Source, SourceState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active, v.states[v.active]
}

// State returns the given source's current state.
func (v *View) State(source donation.Source) SourceState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[source]
}

// Refresh refetches exactly one source, replacing its record list
// wholesale. A failure lands in that source's state; the other pipeline
// is untouched.
func (v *View) Refresh(ctx context.Context, source donation.Source) error {
	v.setPhase(source, PhaseLoading)

	start := time.Now()
	var (
		records []donation.Record
		err     error
	)
	switch source {
	case donation.SourceOnChain:
		records, err = v.ledger.ListDonations(ctx)
	case donation.SourceMirror:
		records, err = v.fetchMirror(ctx)
	default:
		err = fmt.Errorf("unknown source %q", source)
	}
	elapsed := time.Since(start)

	if err != nil {
		v.metrics.RecordSourceRefresh(string(source), "error", elapsed.Seconds())
		v.logger.WarnContext(ctx, "source refresh failed", "source", source, "error", err)
		v.setFailed(source, err)
		return err
	}

	v.metrics.RecordSourceRefresh(string(source), "success", elapsed.Seconds())
	v.logger.DebugContext(ctx, "source refreshed", "source", source, "count", len(records))
	v.setLoaded(source, records)
	return nil
}

// RefreshOnChainUntil polls the on-chain source until its record count
// reaches minCount or ctx expires. This is the read-after-write policy
// for a freshly confirmed donation: the RPC endpoint may serve a stale
// view for a little while, so we poll for the new count instead of
// trusting the first read.
func (v *View) RefreshOnChainUntil(ctx context.Context, minCount int, interval time.Duration) error {
	for {
		if err := v.Refresh(ctx, donation.SourceOnChain); err == nil {
			if len(v.State(donation.SourceOnChain).Records) >= minCount {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// fetchMirror pulls the mirror list and normalizes it into records.
func (v *View) fetchMirror(ctx context.Context) ([]donation.Record, error) {
	start := time.Now()
	txs, _, err := v.mirror.ListTransactions(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	v.metrics.RecordMirrorFetch(status, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return normalizeMirror(txs)
}

// normalizeMirror converts mirror transactions into the common record
// shape. Amounts are decimal ETH strings and must convert exactly; a
// malformed amount fails the whole refresh rather than silently dropping
// or rounding a record. Zero amounts are kept: records only need to be
// non-negative. Order is preserved as delivered (ascending id).
func normalizeMirror(txs []client.Transaction) ([]donation.Record, error) {
	records := make([]donation.Record, len(txs))
	for i, tx := range txs {
		amountWei, err := donation.ParseEtherValue(tx.Amount)
		if err != nil {
			return nil, fmt.Errorf("mirror transaction %d: %w", tx.ID, err)
		}
		records[i] = donation.Record{
			Source:    donation.SourceMirror,
			Sequence:  i + 1,
			Donor:     common.HexToAddress(tx.Donor),
			AmountWei: amountWei,
			Message:   tx.Message,
			Timestamp: tx.Timestamp.UTC(),
		}
	}
	return records, nil
}

func (v *View) setPhase(source donation.Source, phase Phase) {
	v.mu.Lock()
	state := v.states[source]
	state.Phase = phase
	v.states[source] = state
	v.mu.Unlock()
}

func (v *View) setLoaded(source donation.Source, records []donation.Record) {
	v.mu.Lock()
	v.states[source] = SourceState{
		Phase:     PhaseLoaded,
		Records:   records,
		FetchedAt: time.Now(),
	}
	v.mu.Unlock()
}

func (v *View) setFailed(source donation.Source, err error) {
	v.mu.Lock()
	v.states[source] = SourceState{
		Phase: PhaseFailed,
		Err:   err,
	}
	v.mu.Unlock()
}
