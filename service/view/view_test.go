package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donatechain/donatechain/client"
	"github.com/donatechain/donatechain/service/donation"
)

// mockLedger serves a canned on-chain record list.
type mockLedger struct {
	mu      sync.Mutex
	records []donation.Record
	err     error
	calls   int
}

func (m *mockLedger) ListDonations(ctx context.Context) ([]donation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *mockLedger) set(records []donation.Record, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records, m.err = records, err
}

// mockMirror serves canned mirror transactions.
type mockMirror struct {
	txs   []client.Transaction
	err   error
	calls int
}

func (m *mockMirror) ListTransactions(ctx context.Context) ([]client.Transaction, *client.Summary, error) {
	m.calls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.txs, &client.Summary{TotalTransactions: len(m.txs)}, nil
}

func newTestView(ledger LedgerLister, mirror MirrorLister) *View {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(ledger, mirror, nil, logger)
}

func chainRecord(seq int, amountWei string) donation.Record {
	wei, _ := new(big.Int).SetString(amountWei, 10)
	return donation.Record{
		Source:    donation.SourceOnChain,
		Sequence:  seq,
		Donor:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		AmountWei: wei,
		Timestamp: time.Unix(1700000000, 0).UTC(),
	}
}

func TestView_StartsIdleOnMirror(t *testing.T) {
	v := newTestView(&mockLedger{}, &mockMirror{})

	active, state := v.Active()
	assert.Equal(t, donation.SourceMirror, active)
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, PhaseIdle, v.State(donation.SourceOnChain).Phase)
}

func TestRefresh_MirrorNormalizesAmounts(t *testing.T) {
	mirror := &mockMirror{txs: []client.Transaction{
		{ID: 1, Donor: "0x1111111111111111111111111111111111111111", Amount: "0.5", Currency: "ETH", Message: "hi", Timestamp: time.Unix(1700000000, 0)},
		{ID: 2, Donor: "0x2222222222222222222222222222222222222222", Amount: "1", Currency: "ETH", Timestamp: time.Unix(1700000100, 0)},
	}}
	v := newTestView(&mockLedger{}, mirror)

	require.NoError(t, v.Refresh(context.Background(), donation.SourceMirror))

	state := v.State(donation.SourceMirror)
	assert.Equal(t, PhaseLoaded, state.Phase)
	require.Len(t, state.Records, 2)

	// "0.5" converts to exact wei, not a rounded float.
	assert.Equal(t, "500000000000000000", state.Records[0].AmountWei.String())
	assert.Equal(t, "1000000000000000000", state.Records[1].AmountWei.String())
	assert.Equal(t, donation.SourceMirror, state.Records[0].Source)
	assert.Equal(t, 1, state.Records[0].Sequence)
	assert.Equal(t, 2, state.Records[1].Sequence)
	assert.False(t, state.FetchedAt.IsZero())
}

func TestRefresh_MirrorKeepsZeroAmounts(t *testing.T) {
	// Records only have to be non-negative; a zero-amount row in the
	// mirror must not fail the refresh.
	mirror := &mockMirror{txs: []client.Transaction{
		{ID: 1, Donor: "0x1111111111111111111111111111111111111111", Amount: "0", Timestamp: time.Unix(1700000000, 0)},
		{ID: 2, Donor: "0x2222222222222222222222222222222222222222", Amount: "0.5", Timestamp: time.Unix(1700000100, 0)},
	}}
	v := newTestView(&mockLedger{}, mirror)

	require.NoError(t, v.Refresh(context.Background(), donation.SourceMirror))

	state := v.State(donation.SourceMirror)
	assert.Equal(t, PhaseLoaded, state.Phase)
	require.Len(t, state.Records, 2)
	assert.Equal(t, "0", state.Records[0].AmountWei.String())
	assert.Equal(t, "500000000000000000", state.Records[1].AmountWei.String())
}

func TestRefresh_MalformedMirrorAmountFailsWholeRefresh(t *testing.T) {
	mirror := &mockMirror{txs: []client.Transaction{
		{ID: 1, Donor: "0x1111111111111111111111111111111111111111", Amount: "0.5", Timestamp: time.Unix(1700000000, 0)},
		{ID: 2, Donor: "0x2222222222222222222222222222222222222222", Amount: "not-a-number", Timestamp: time.Unix(1700000100, 0)},
	}}
	v := newTestView(&mockLedger{}, mirror)

	err := v.Refresh(context.Background(), donation.SourceMirror)
	require.Error(t, err)
	assert.ErrorIs(t, err, donation.ErrInvalidAmount)

	// No partial list: the whole refresh failed.
	state := v.State(donation.SourceMirror)
	assert.Equal(t, PhaseFailed, state.Phase)
	assert.Empty(t, state.Records)
}

func TestSetActive_DoesNotFetch(t *testing.T) {
	ledger := &mockLedger{records: []donation.Record{chainRecord(1, "500000000000000000")}}
	mirror := &mockMirror{}
	v := newTestView(ledger, mirror)

	v.SetActive(donation.SourceOnChain)
	v.SetActive(donation.SourceMirror)
	v.SetActive(donation.SourceOnChain)

	assert.Zero(t, ledger.calls)
	assert.Zero(t, mirror.calls)

	active, state := v.Active()
	assert.Equal(t, donation.SourceOnChain, active)
	assert.Equal(t, PhaseIdle, state.Phase)
}

func TestSetActive_KeepsCachedRecords(t *testing.T) {
	ledger := &mockLedger{records: []donation.Record{chainRecord(1, "500000000000000000")}}
	mirror := &mockMirror{txs: []client.Transaction{
		{ID: 1, Donor: "0x1111111111111111111111111111111111111111", Amount: "0.5", Timestamp: time.Unix(1700000000, 0)},
	}}
	v := newTestView(ledger, mirror)

	require.NoError(t, v.Refresh(context.Background(), donation.SourceMirror))
	require.NoError(t, v.Refresh(context.Background(), donation.SourceOnChain))

	// Flipping back and forth serves cached data without refetching.
	v.SetActive(donation.SourceOnChain)
	_, state := v.Active()
	assert.Equal(t, PhaseLoaded, state.Phase)

	v.SetActive(donation.SourceMirror)
	_, state = v.Active()
	assert.Equal(t, PhaseLoaded, state.Phase)

	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, 1, mirror.calls)
}

func TestRefresh_FailuresAreIndependent(t *testing.T) {
	ledger := &mockLedger{err: errors.New("rpc down")}
	mirror := &mockMirror{txs: []client.Transaction{
		{ID: 1, Donor: "0x1111111111111111111111111111111111111111", Amount: "0.5", Timestamp: time.Unix(1700000000, 0)},
	}}
	v := newTestView(ledger, mirror)

	require.NoError(t, v.Refresh(context.Background(), donation.SourceMirror))
	require.Error(t, v.Refresh(context.Background(), donation.SourceOnChain))

	// The chain pipeline failed; the mirror pipeline is untouched.
	assert.Equal(t, PhaseFailed, v.State(donation.SourceOnChain).Phase)
	mirrorState := v.State(donation.SourceMirror)
	assert.Equal(t, PhaseLoaded, mirrorState.Phase)
	assert.Len(t, mirrorState.Records, 1)
}

func TestRefresh_ReplacesRecordsWholesale(t *testing.T) {
	ledger := &mockLedger{records: []donation.Record{
		chainRecord(1, "1000000000000000000"),
		chainRecord(2, "2000000000000000000"),
	}}
	v := newTestView(ledger, &mockMirror{})

	require.NoError(t, v.Refresh(context.Background(), donation.SourceOnChain))
	require.Len(t, v.State(donation.SourceOnChain).Records, 2)

	// The next refresh replaces, never appends.
	ledger.set([]donation.Record{chainRecord(1, "1000000000000000000")}, nil)
	require.NoError(t, v.Refresh(context.Background(), donation.SourceOnChain))
	assert.Len(t, v.State(donation.SourceOnChain).Records, 1)
}

func TestRefreshOnChainUntil_WaitsForCount(t *testing.T) {
	ledger := &mockLedger{records: []donation.Record{chainRecord(1, "1")}}
	v := newTestView(ledger, &mockMirror{})

	// Simulate a lagging RPC endpoint: the second record appears after a
	// few polls.
	go func() {
		time.Sleep(20 * time.Millisecond)
		ledger.set([]donation.Record{chainRecord(1, "1"), chainRecord(2, "2")}, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, v.RefreshOnChainUntil(ctx, 2, time.Millisecond))
	assert.Len(t, v.State(donation.SourceOnChain).Records, 2)
	assert.Greater(t, ledger.calls, 1)
}

func TestRefreshOnChainUntil_GivesUpOnDeadline(t *testing.T) {
	ledger := &mockLedger{records: []donation.Record{chainRecord(1, "1")}}
	v := newTestView(ledger, &mockMirror{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := v.RefreshOnChainUntil(ctx, 5, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
