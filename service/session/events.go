package session

import (
	"github.com/donatechain/donatechain/service/provider"
)

// transition is the pure state-transition function for provider-pushed
// events: old state + event -> new state, no side effects. Keeping it
// pure lets the machine be tested exhaustively without a live transport.
//
// Properties the tests rely on:
//   - idempotent: re-applying the same account list or chain id is a no-op;
//   - an empty accountsChanged forces Disconnected from any state,
//     including mid-Connecting;
//   - a chainChanged while connected moves between Connected and
//     WrongNetwork without leaving the connected super-state;
//   - unknown event kinds are no-ops.
func transition(cur Session, ev provider.Event, requiredChain uint64) Session {
	switch ev.Kind {
	case provider.EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			// The wallet revoked our authorization (or the user removed
			// the last account). This overrides everything else.
			return Session{Status: StatusDisconnected}
		}
		account := ev.Accounts[0]
		next := cur
		next.Account = &account
		next.LastError = nil
		// An account implies the connected super-state; which half depends
		// on the chain we last observed.
		next.Status = statusForChain(next.ChainID, requiredChain)
		return next

	case provider.EventChainChanged:
		next := cur
		next.ChainID = ev.ChainID
		if cur.Status == StatusConnected || cur.Status == StatusWrongNetwork {
			next.Status = statusForChain(ev.ChainID, requiredChain)
		}
		return next
	}
	return cur
}

// statusForChain maps an observed chain id onto the connected super-state.
func statusForChain(chainID, requiredChain uint64) Status {
	if chainID == requiredChain {
		return StatusConnected
	}
	return StatusWrongNetwork
}
