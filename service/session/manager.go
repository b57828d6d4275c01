package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/donatechain/donatechain/service/provider"
)

// Manager owns the process-wide wallet session and is its sole mutator.
// It reacts to explicit user actions (Connect, Disconnect) and to
// provider-pushed account/chain events, and enforces the required chain.
// There is exactly one Manager per process; its lifetime is the process
// lifetime and it has no terminal state.
type Manager struct {
	adapter       *provider.Adapter
	requiredChain uint64
	chainSpec     provider.ChainSpec
	logger        *slog.Logger

	mu         sync.Mutex
	state      Session
	connecting bool
	epoch      uint64 // bumped on every authoritative state change from outside Connect
}

// NewManager creates the session manager. requiredChain is the single
// chain id donations are accepted on; chainSpec describes it for the
// wallet_addEthereumChain fallback.
func NewManager(adapter *provider.Adapter, requiredChain uint64, chainSpec provider.ChainSpec, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		adapter:       adapter,
		requiredChain: requiredChain,
		chainSpec:     chainSpec,
		logger:        logger,
		state:         Session{Status: StatusDisconnected},
	}
}

// Snapshot returns an immutable copy of the current session. Callers must
// re-read after any suspension point instead of caching the copy.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	snap := m.state
	if m.state.Account != nil {
		account := *m.state.Account
		snap.Account = &account
	}
	return snap
}

// Probe recovers a previously authorized connection at startup without
// prompting the user. If the wallet reports no authorized accounts the
// session simply stays Disconnected.
func (m *Manager) Probe(ctx context.Context) (Session, error) {
	accounts, err := m.adapter.Accounts(ctx)
	if err != nil {
		return m.Snapshot(), fmt.Errorf("probe accounts: %w", err)
	}
	if len(accounts) == 0 {
		m.logger.DebugContext(ctx, "no previously authorized accounts")
		return m.Snapshot(), nil
	}
	chainID, err := m.adapter.ChainID(ctx)
	if err != nil {
		return m.Snapshot(), fmt.Errorf("probe chain id: %w", err)
	}

	m.mu.Lock()
	account := accounts[0]
	m.state = Session{
		Account: &account,
		ChainID: chainID,
		Status:  statusForChain(chainID, m.requiredChain),
	}
	m.epoch++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "recovered wallet session",
		"account", account.Hex(),
		"chain_id", chainID,
		"status", snap.Status.String(),
	)
	return snap, nil
}

// Connect runs the full connect flow: authorization prompt, chain check,
// and, when on the wrong chain, one automatic switch attempt with an
// add-chain fallback. A Connect while another Connect is still waiting on
// the wallet fails fast with ErrAlreadyInProgress instead of issuing a
// second prompt.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.connecting {
		m.mu.Unlock()
		return Session{}, ErrAlreadyInProgress
	}
	m.connecting = true
	m.state = Session{Status: StatusConnecting}
	startEpoch := m.epoch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	accounts, err := m.adapter.RequestAccounts(ctx)
	if err != nil {
		return m.failConnect(ctx, startEpoch, fmt.Errorf("request accounts: %w", err)), err
	}
	if len(accounts) == 0 {
		m.applyConnectResult(startEpoch, Session{Status: StatusDisconnected})
		return m.Snapshot(), nil
	}

	chainID, err := m.adapter.ChainID(ctx)
	if err != nil {
		return m.failConnect(ctx, startEpoch, fmt.Errorf("query chain id: %w", err)), err
	}

	account := accounts[0]
	m.applyConnectResult(startEpoch, Session{
		Account: &account,
		ChainID: chainID,
		Status:  statusForChain(chainID, m.requiredChain),
	})

	if chainID != m.requiredChain {
		m.switchToRequiredChain(ctx, startEpoch, account)
	}

	snap := m.Snapshot()
	m.logger.InfoContext(ctx, "wallet connect finished",
		"status", snap.Status.String(),
		"chain_id", snap.ChainID,
	)
	return snap, nil
}

// switchToRequiredChain attempts the chain switch exactly once, falling
// back to wallet_addEthereumChain (then one retry of the switch) when the
// wallet does not know the chain. Any failure leaves the session in
// WrongNetwork, not Error: the account is still validly connected.
func (m *Manager) switchToRequiredChain(ctx context.Context, startEpoch uint64, account common.Address) {
	err := m.adapter.SwitchChain(ctx, m.requiredChain)
	if errors.Is(err, provider.ErrChainNotAdded) {
		m.logger.InfoContext(ctx, "required chain unknown to wallet, adding", "chain_id", m.requiredChain)
		if addErr := m.adapter.AddChain(ctx, m.chainSpec); addErr != nil {
			err = addErr
		} else {
			err = m.adapter.SwitchChain(ctx, m.requiredChain)
		}
	}
	if err != nil {
		m.logger.WarnContext(ctx, "chain switch failed, staying on wrong network", "error", err)
		m.mu.Lock()
		if m.epoch == startEpoch && m.state.Status == StatusWrongNetwork {
			m.state.LastError = err
		}
		m.mu.Unlock()
		return
	}

	// The switch succeeded; confirm what the wallet settled on.
	chainID, err := m.adapter.ChainID(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "chain id re-query failed after switch", "error", err)
		return
	}
	m.applyConnectResult(startEpoch, Session{
		Account: &account,
		ChainID: chainID,
		Status:  statusForChain(chainID, m.requiredChain),
	})
}

// applyConnectResult installs a connect outcome. When a provider event
// (or an explicit disconnect) landed while the connect was in flight,
// the event is newer than anything the connect flow fetched: an outcome
// that already resolved the session stands as is. A chain-only event
// leaves the session in Connecting, though, so in that case the connect's
// account is merged with the chain the event reported; the session must
// never be left waiting on a connect that has already finished.
func (m *Manager) applyConnectResult(startEpoch uint64, next Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == startEpoch {
		m.state = next
		return
	}
	if m.state.Status != StatusConnecting {
		return
	}
	if next.Account == nil {
		m.state = next
		return
	}
	chainID := m.state.ChainID
	if chainID == 0 {
		chainID = next.ChainID
	}
	m.state = Session{
		Account: next.Account,
		ChainID: chainID,
		Status:  statusForChain(chainID, m.requiredChain),
	}
}

func (m *Manager) failConnect(ctx context.Context, startEpoch uint64, err error) Session {
	m.logger.WarnContext(ctx, "wallet connect failed", "error", err)
	m.applyConnectResult(startEpoch, Session{Status: StatusError, LastError: err})
	return m.Snapshot()
}

// Disconnect resets the session locally. The wallet-provider model has no
// way to revoke the transport's authorization from this side, so this is
// a UI-level disconnect, not a revocation: the wallet will still report
// the account on the next probe unless the user revokes access in the
// wallet itself.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.state = Session{Status: StatusDisconnected}
	m.epoch++
	m.mu.Unlock()
	m.logger.Info("wallet session disconnected locally")
}

// Signer returns the signing capability for the connected account. Valid
// only while the session is Connected; WrongNetwork sessions cannot sign
// donations.
func (m *Manager) Signer() (provider.TransactionSender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status != StatusConnected || m.state.Account == nil {
		return nil, ErrNotConnected
	}
	return m.adapter.Signer(*m.state.Account), nil
}

// Run drains provider events until ctx is canceled or the channel
// closes. Handlers never propagate a fault: an internal panic degrades
// the session to StatusError instead of crashing the process.
func (m *Manager) Run(ctx context.Context, events <-chan provider.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ctx, ev)
		}
	}
}

func (m *Manager) handleEvent(ctx context.Context, ev provider.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.mu.Lock()
			m.state = Session{Status: StatusError, LastError: fmt.Errorf("event handler fault: %v", r)}
			m.epoch++
			m.mu.Unlock()
			m.logger.ErrorContext(ctx, "event handler panicked", "panic", r)
		}
	}()

	m.mu.Lock()
	before := m.state
	m.state = transition(m.state, ev, m.requiredChain)
	m.epoch++
	after := m.state
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "applied provider event",
		"kind", ev.Kind,
		"before", before.Status.String(),
		"after", after.Status.String(),
	)
}
