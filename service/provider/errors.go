package provider

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Wallet-facing JSON-RPC error codes (EIP-1193 / EIP-3085).
const (
	codeUserRejected   = 4001
	codeChainNotAdded  = 4902
	codeRequestPending = -32002
)

var (
	// ErrUnavailable means no wallet transport could be reached. Fatal to
	// the session and user-actionable; retrying cannot succeed until a
	// wallet is installed or the bridge endpoint comes up.
	ErrUnavailable = errors.New("wallet provider unavailable")

	// ErrUserRejected means the user declined a wallet prompt. Recoverable;
	// the caller may retry.
	ErrUserRejected = errors.New("request rejected by user")

	// ErrRequestPending means a prompt of the same kind is already open in
	// the wallet. Deliberately distinct from ErrUserRejected: the right
	// response is "check your wallet", not a retry that would stack
	// another prompt.
	ErrRequestPending = errors.New("request already pending in wallet")

	// ErrChainNotAdded means the wallet does not know the target chain and
	// it must be added before switching.
	ErrChainNotAdded = errors.New("target chain not added to wallet")
)

// mapRequestError translates wallet JSON-RPC error codes into the package
// sentinels so callers can classify with errors.Is. Unrecognized errors
// pass through wrapped.
func mapRequestError(method string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected:
			return fmt.Errorf("%w: %s", ErrUserRejected, method)
		case codeRequestPending:
			return fmt.Errorf("%w: %s", ErrRequestPending, method)
		case codeChainNotAdded:
			return fmt.Errorf("%w: %s", ErrChainNotAdded, method)
		}
	}
	return fmt.Errorf("wallet request %s failed: %w", method, err)
}
