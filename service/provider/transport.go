package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// Transport is the JSON-RPC bridge to the user's wallet. This is an
// interface so tests can drive the adapter without a live wallet; the
// production implementation wraps a go-ethereum rpc.Client pointed at the
// wallet bridge endpoint.
type Transport interface {
	// Request performs a single JSON-RPC call. result may be nil for
	// methods whose response is discarded.
	Request(ctx context.Context, result any, method string, params ...any) error
	Close()
}

// EventKind discriminates provider-pushed notifications.
type EventKind int

const (
	// EventAccountsChanged is pushed when the authorized account list
	// changes. An empty account list means the wallet disconnected us.
	EventAccountsChanged EventKind = iota
	// EventChainChanged is pushed when the wallet's active chain changes.
	EventChainChanged
)

// Event is one provider-pushed notification. It is a tagged union: only
// the field matching Kind is meaningful.
type Event struct {
	Kind     EventKind
	Accounts []common.Address // EventAccountsChanged
	ChainID  uint64           // EventChainChanged
}

// rpcTransport is the production Transport over a go-ethereum rpc.Client.
type rpcTransport struct {
	client *rpc.Client
	logger *slog.Logger
}

// Dial connects to a wallet bridge endpoint. Failure to reach the
// transport is reported as ErrUnavailable since the session cannot exist
// without it.
func Dial(ctx context.Context, url string, logger *slog.Logger) (Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, url, err)
	}
	return &rpcTransport{client: client, logger: logger}, nil
}

func (t *rpcTransport) Request(ctx context.Context, result any, method string, params ...any) error {
	t.logger.DebugContext(ctx, "wallet transport request", "method", method)
	return t.client.CallContext(ctx, result, method, params...)
}

func (t *rpcTransport) Close() {
	t.client.Close()
}
