package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/donatechain/donatechain/service/metrics"
	"github.com/donatechain/donatechain/service/provider"
	"github.com/donatechain/donatechain/service/session"
)

// SubmissionState is the lifecycle stage of one donation transaction.
// States move strictly forward; StateFailed is terminal and reachable
// from every non-terminal state.
type SubmissionState int

const (
	StateValidating SubmissionState = iota
	StateAwaitingSignature
	StateBroadcasting
	StateConfirming
	StateConfirmed
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAwaitingSignature:
		return "awaiting_signature"
	case StateBroadcasting:
		return "broadcasting"
	case StateConfirming:
		return "confirming"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrWrongNetwork is the local guard against submitting on the wrong
	// chain; the transaction is rejected before any signing prompt rather
	// than allowed to fail remotely.
	ErrWrongNetwork = errors.New("wallet is on the wrong network")

	// ErrNoContract means no donation contract address is configured.
	ErrNoContract = errors.New("donation contract address not configured")

	// ErrConfirmTimeout means the bounded confirmation wait expired. The
	// outcome is ambiguous: the transaction may still confirm. Callers
	// should re-query using the transaction hash rather than assume
	// failure.
	ErrConfirmTimeout = errors.New("timed out waiting for confirmation")

	// ErrReverted means the transaction was mined but the contract
	// reverted it.
	ErrReverted = errors.New("donation transaction reverted")
)

// SubmissionStatus is an immutable snapshot of a pending submission.
type SubmissionStatus struct {
	State     SubmissionState
	AmountWei *big.Int
	Message   string
	TxHash    *common.Hash
	Err       error
}

// PendingSubmission tracks one donation transaction from validation to
// confirmation. It is owned by the Submitter for the duration of one
// Submit call and is not persisted across restarts.
type PendingSubmission struct {
	mu     sync.Mutex
	status SubmissionStatus
	done   chan struct{}
}

// Snapshot returns the current submission status.
func (p *PendingSubmission) Snapshot() SubmissionStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Done is closed once the submission reaches a terminal state
// (Confirmed or Failed).
func (p *PendingSubmission) Done() <-chan struct{} {
	return p.done
}

func (p *PendingSubmission) setState(s SubmissionState) {
	p.mu.Lock()
	p.status.State = s
	p.mu.Unlock()
}

func (p *PendingSubmission) setBroadcast(hash common.Hash) {
	p.mu.Lock()
	p.status.State = StateBroadcasting
	p.status.TxHash = &hash
	p.mu.Unlock()
}

// fail marks the submission Failed with the given cause. The transaction
// hash, if one was obtained, is deliberately kept so the caller can check
// the outcome out-of-band.
func (p *PendingSubmission) fail(err error) {
	p.mu.Lock()
	p.status.State = StateFailed
	p.status.Err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *PendingSubmission) confirm() {
	p.mu.Lock()
	p.status.State = StateConfirmed
	p.mu.Unlock()
	close(p.done)
}

// Wallet is the session surface the submitter needs: a fresh snapshot and
// a signing capability. *session.Manager satisfies it.
type Wallet interface {
	Snapshot() session.Session
	Signer() (provider.TransactionSender, error)
}

// ReceiptWaiter blocks until the given transaction has one confirmation,
// the transaction reverts, or ctx expires.
type ReceiptWaiter interface {
	WaitConfirmed(ctx context.Context, tx common.Hash) error
}

// Submitter validates and submits donate transactions through the wallet
// session's signer and tracks each one to confirmation.
type Submitter struct {
	wallet         Wallet
	waiter         ReceiptWaiter
	contract       common.Address
	confirmTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// NewSubmitter creates a donation submitter. confirmTimeout bounds the
// confirmation wait; zero disables the bound (not recommended outside
// tests).
func NewSubmitter(wallet Wallet, waiter ReceiptWaiter, contract common.Address, confirmTimeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		wallet:         wallet,
		waiter:         waiter,
		contract:       contract,
		confirmTimeout: confirmTimeout,
		logger:         logger,
		metrics:        m,
	}
}

// Submit validates the donation and, if valid, returns immediately with a
// PendingSubmission in StateValidating that progresses asynchronously.
// All validation happens before any signing prompt: a bad amount, a
// session that is not Connected (WrongNetwork included), or a missing
// contract address never reaches the wallet.
func (s *Submitter) Submit(ctx context.Context, amountEth, message string) (*PendingSubmission, error) {
	amountWei, err := ParseEther(amountEth)
	if err != nil {
		return nil, err
	}

	snap := s.wallet.Snapshot()
	switch snap.Status {
	case session.StatusConnected:
		// ok
	case session.StatusWrongNetwork:
		return nil, fmt.Errorf("%w: on chain %d", ErrWrongNetwork, snap.ChainID)
	default:
		return nil, session.ErrNotConnected
	}

	if s.contract == (common.Address{}) {
		return nil, ErrNoContract
	}

	pending := &PendingSubmission{
		status: SubmissionStatus{
			State:     StateValidating,
			AmountWei: amountWei,
			Message:   message,
		},
		done: make(chan struct{}),
	}

	go s.run(ctx, pending, amountWei, message)
	return pending, nil
}

func (s *Submitter) run(ctx context.Context, pending *PendingSubmission, amountWei *big.Int, message string) {
	// Re-read the session rather than trusting the pre-validation
	// snapshot; a provider event may have landed in between.
	signer, err := s.wallet.Signer()
	if err != nil {
		s.finish(pending, "failed", 0, err)
		return
	}

	data, err := PackDonate(message)
	if err != nil {
		s.finish(pending, "failed", 0, err)
		return
	}

	pending.setState(StateAwaitingSignature)
	s.logger.InfoContext(ctx, "requesting donation signature",
		"amount_wei", amountWei.String(),
		"contract", s.contract.Hex(),
	)

	contract := s.contract
	hash, err := signer.SendTransaction(ctx, provider.TxRequest{
		To:    &contract,
		Value: (*hexutil.Big)(amountWei),
		Data:  data,
	})
	if err != nil {
		s.finish(pending, "failed", 0, fmt.Errorf("send donation: %w", err))
		return
	}

	// The wallet signed and broadcast in one step; from here the hash
	// identifies the transaction no matter what else goes wrong.
	pending.setBroadcast(hash)
	pending.setState(StateConfirming)
	s.logger.InfoContext(ctx, "donation broadcast", "tx", hash.Hex())

	waitCtx := ctx
	if s.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.confirmTimeout)
		defer cancel()
	}

	start := time.Now()
	err = s.waiter.WaitConfirmed(waitCtx, hash)
	waited := time.Since(start).Seconds()

	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "donation confirmed", "tx", hash.Hex())
		s.metrics.RecordDonation("confirmed", waited)
		pending.confirm()
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.WarnContext(ctx, "confirmation wait timed out, tx may still confirm", "tx", hash.Hex())
		s.metrics.RecordDonation("timeout", waited)
		pending.fail(fmt.Errorf("%w: %s", ErrConfirmTimeout, hash.Hex()))
	default:
		s.logger.WarnContext(ctx, "donation failed", "tx", hash.Hex(), "error", err)
		s.metrics.RecordDonation("failed", waited)
		pending.fail(err)
	}
}

func (s *Submitter) finish(pending *PendingSubmission, outcome string, waited float64, err error) {
	s.metrics.RecordDonation(outcome, waited)
	pending.fail(err)
}
