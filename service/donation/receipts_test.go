package donation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReceiptSource serves a scripted sequence of lookup results; the
// last entry repeats once the script runs out.
type mockReceiptSource struct {
	mu      sync.Mutex
	results []receiptResult
	calls   int
}

type receiptResult struct {
	receipt *types.Receipt
	err     error
}

func (m *mockReceiptSource) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.results) {
		i = len(m.results) - 1
	}
	m.calls++
	r := m.results[i]
	return r.receipt, r.err
}

func TestWaitConfirmed_SuccessfulReceipt(t *testing.T) {
	source := &mockReceiptSource{results: []receiptResult{
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
	}}
	poller := NewReceiptPoller(source, time.Millisecond, nil, testLogger())

	err := poller.WaitConfirmed(context.Background(), common.Hash{})
	assert.NoError(t, err)
}

func TestWaitConfirmed_PollsThroughNotFound(t *testing.T) {
	source := &mockReceiptSource{results: []receiptResult{
		{err: ethereum.NotFound},
		{err: ethereum.NotFound},
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
	}}
	poller := NewReceiptPoller(source, time.Millisecond, nil, testLogger())

	err := poller.WaitConfirmed(context.Background(), common.Hash{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, source.calls, 3)
}

func TestWaitConfirmed_RevertedReceipt(t *testing.T) {
	source := &mockReceiptSource{results: []receiptResult{
		{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}},
	}}
	poller := NewReceiptPoller(source, time.Millisecond, nil, testLogger())

	err := poller.WaitConfirmed(context.Background(), common.Hash{})
	assert.ErrorIs(t, err, ErrReverted)
}

func TestWaitConfirmed_TransientErrorsAreRetried(t *testing.T) {
	source := &mockReceiptSource{results: []receiptResult{
		{err: errors.New("connection reset")},
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}},
	}}
	poller := NewReceiptPoller(source, time.Millisecond, nil, testLogger())

	err := poller.WaitConfirmed(context.Background(), common.Hash{})
	assert.NoError(t, err)
}

func TestWaitConfirmed_ContextDeadline(t *testing.T) {
	source := &mockReceiptSource{results: []receiptResult{
		{err: ethereum.NotFound},
	}}
	poller := NewReceiptPoller(source, time.Millisecond, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := poller.WaitConfirmed(ctx, common.Hash{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
