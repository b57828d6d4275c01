package session

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the wallet session connection state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusWrongNetwork
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusWrongNetwork:
		return "wrong_network"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is an immutable snapshot of the wallet connection. Components
// read it via Manager.Snapshot and must re-read rather than cache across
// suspension points: a provider event may invalidate it at any time.
//
// Invariant: Account is non-nil iff Status is Connected or WrongNetwork.
type Session struct {
	Account   *common.Address
	ChainID   uint64 // 0 when unknown
	Status    Status
	LastError error
}

var (
	// ErrAlreadyInProgress means Connect was called while a previous
	// Connect is still waiting on the wallet. The caller should not issue
	// a second prompt; the wallet would reject it anyway.
	ErrAlreadyInProgress = errors.New("connect already in progress")

	// ErrNotConnected means an operation that needs a Connected session
	// was attempted without one.
	ErrNotConnected = errors.New("wallet session not connected")
)
