package provider

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/donatechain/donatechain/service/metrics"
)

// ChainSpec describes a chain for wallet_addEthereumChain (EIP-3085).
type ChainSpec struct {
	ChainID           string         `json:"chainId"` // hex-encoded
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// NativeCurrency is the chain's native asset descriptor.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// switchChainParam is the single argument to wallet_switchEthereumChain.
type switchChainParam struct {
	ChainID string `json:"chainId"`
}

// TxRequest is the eth_sendTransaction parameter object. The wallet signs
// and broadcasts; keys never pass through this process.
type TxRequest struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// TransactionSender is the signing-and-broadcast capability handed out to
// the donation submitter. It stays an interface so submission logic tests
// without a wallet.
type TransactionSender interface {
	SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error)
}

// Adapter wraps the wallet Transport with typed account, chain, and
// signing operations. It has no state of its own beyond the transport;
// session state lives in the session manager.
type Adapter struct {
	transport Transport
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewAdapter creates a provider adapter over the given transport.
// If m is nil, no metrics are recorded.
func NewAdapter(transport Transport, m *metrics.Metrics, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		transport: transport,
		logger:    logger,
		metrics:   m,
	}
}

// request delegates to the transport, recording metrics and mapping
// wallet error codes onto the package sentinels.
func (a *Adapter) request(ctx context.Context, result any, method string, params ...any) error {
	start := time.Now()
	err := a.transport.Request(ctx, result, method, params...)
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordWalletCall(method, status, time.Since(start).Seconds())
	return mapRequestError(method, err)
}

// Accounts returns the accounts already authorized for this origin, in
// wallet order. Empty if none are authorized. Never prompts the user.
func (a *Adapter) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := a.request(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// RequestAccounts triggers the wallet's authorization prompt and suspends
// until the user approves or rejects. Callers must guard against issuing
// this concurrently; the wallet rejects duplicate prompts with
// ErrRequestPending.
func (a *Adapter) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := a.request(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Balance returns the account's native-token balance in wei at the
// latest block.
func (a *Adapter) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance hexutil.Big
	if err := a.request(ctx, &balance, "eth_getBalance", account, "latest"); err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

// ChainID returns the wallet's active chain id.
func (a *Adapter) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Big
	if err := a.request(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return id.ToInt().Uint64(), nil
}

// SwitchChain asks the wallet to switch to the target chain. Returns
// ErrChainNotAdded if the wallet does not know the chain, in which case
// the caller should AddChain and retry.
func (a *Adapter) SwitchChain(ctx context.Context, chainID uint64) error {
	param := switchChainParam{ChainID: hexutil.EncodeUint64(chainID)}
	return a.request(ctx, nil, "wallet_switchEthereumChain", param)
}

// AddChain asks the wallet to add a chain it does not yet know about.
func (a *Adapter) AddChain(ctx context.Context, spec ChainSpec) error {
	return a.request(ctx, nil, "wallet_addEthereumChain", spec)
}

// Signer returns a signing capability bound to the given account. The
// session manager hands these out only while the session is Connected.
func (a *Adapter) Signer(from common.Address) TransactionSender {
	return &walletSigner{adapter: a, from: from}
}

// walletSigner sends transactions through the wallet via
// eth_sendTransaction. The wallet prompts the user, signs, and
// broadcasts; the returned hash identifies the broadcast transaction.
type walletSigner struct {
	adapter *Adapter
	from    common.Address
}

func (s *walletSigner) SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error) {
	tx.From = s.from
	var hash common.Hash
	if err := s.adapter.request(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}
