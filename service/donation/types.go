package donation

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Source identifies which ledger a donation record came from.
type Source string

const (
	// SourceOnChain marks records read directly from the donation contract.
	SourceOnChain Source = "chain"
	// SourceMirror marks records served by the off-chain mirror API.
	SourceMirror Source = "mirror"
)

// Record is a normalized donation, regardless of source.
// This is our domain model, independent of the contract return format
// and the mirror's JSON shape. Records are immutable once constructed;
// a refresh produces a new list, never in-place mutation.
type Record struct {
	Source    Source
	Sequence  int // 1-based position within its source
	Donor     common.Address
	AmountWei *big.Int // always the exact integer form; never a float
	Message   string
	Timestamp time.Time // UTC
}
