// Package ledger reads the donation contract's on-chain state through a
// read-only RPC endpoint. No signing capability is ever required here: the
// reader works with any reachable endpoint for the contract's chain, even
// while the wallet session sits in WrongNetwork.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/donatechain/donatechain/service/donation"
	"github.com/donatechain/donatechain/service/metrics"
)

var (
	// ErrUnreachable means the RPC endpoint could not serve the call.
	// Transient; retrying is reasonable.
	ErrUnreachable = errors.New("donation contract unreachable")

	// ErrMisconfigured means the configured address does not behave like
	// the donation contract (no code, or un-decodable returndata).
	// Retrying cannot succeed without reconfiguration.
	ErrMisconfigured = errors.New("donation contract misconfigured")
)

// ContractCaller is the subset of ethclient the reader needs. An
// interface so the reader tests without a node; *ethclient.Client
// satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// rawDonation matches the contract's Donation tuple layout for ABI
// decoding.
type rawDonation struct {
	Donor     common.Address
	Amount    *big.Int
	Timestamp *big.Int
	Message   string
}

// Reader lists donations recorded by the contract.
type Reader struct {
	caller   ContractCaller
	contract common.Address
	abi      abi.ABI
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewReader creates a ledger reader against the given contract address.
// Supplying a caller for a different endpoint (or a different contract
// address) is allowed for inspection purposes, e.g. reading the ledger
// while the wallet is on the wrong network; that usage is non-default and
// the caller owns the override.
func NewReader(caller ContractCaller, contract common.Address, m *metrics.Metrics, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		caller:   caller,
		contract: contract,
		abi:      donation.ContractABI(),
		logger:   logger,
		metrics:  m,
	}
}

// ListDonations fetches the full donation list from the contract and
// normalizes it into records. Amounts stay exact integers; timestamps
// are converted from chain seconds to UTC instants. Order is the
// contract's insertion order, with Sequence assigned 1-based.
func (r *Reader) ListDonations(ctx context.Context) ([]donation.Record, error) {
	data, err := r.abi.Pack("getAllDonations")
	if err != nil {
		return nil, fmt.Errorf("%w: pack call: %v", ErrMisconfigured, err)
	}

	start := time.Now()
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordChainCall("eth_call", status, time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if len(out) == 0 {
		// An empty return usually means there is no contract at the
		// address at all. Distinguish that from a transient RPC problem.
		code, codeErr := r.caller.CodeAt(ctx, r.contract, nil)
		if codeErr != nil {
			return nil, fmt.Errorf("%w: code lookup: %v", ErrUnreachable, codeErr)
		}
		if len(code) == 0 {
			return nil, fmt.Errorf("%w: no contract code at %s", ErrMisconfigured, r.contract.Hex())
		}
	}

	values, err := r.abi.Unpack("getAllDonations", out)
	if err != nil {
		return nil, fmt.Errorf("%w: decode returndata: %v", ErrMisconfigured, err)
	}
	raws := *abi.ConvertType(values[0], new([]rawDonation)).(*[]rawDonation)

	records := make([]donation.Record, len(raws))
	for i, raw := range raws {
		records[i] = donation.Record{
			Source:    donation.SourceOnChain,
			Sequence:  i + 1,
			Donor:     raw.Donor,
			AmountWei: raw.Amount,
			Message:   raw.Message,
			Timestamp: time.Unix(raw.Timestamp.Int64(), 0).UTC(),
		}
	}

	r.logger.DebugContext(ctx, "fetched on-chain donations",
		"contract", r.contract.Hex(),
		"count", len(records),
	)
	return records, nil
}
