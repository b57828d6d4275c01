package donation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// etherDecimals is the fixed-point scale between ETH and wei.
const etherDecimals = 18

var (
	// ErrInvalidAmount means the amount failed to parse as a positive decimal.
	ErrInvalidAmount = errors.New("invalid donation amount")

	// ErrPrecision means the amount carries more than 18 fractional digits
	// and cannot be represented exactly in wei.
	ErrPrecision = errors.New("amount has more than 18 decimal places")
)

// ParseEtherValue converts a decimal ETH string to an exact wei value.
// The conversion is pure fixed-point scaling: no floating-point arithmetic
// is involved, so every input with at most 18 fractional digits round-trips
// exactly through FormatEther. Inputs with more fractional digits are
// rejected with ErrPrecision, negative or non-numeric inputs with
// ErrInvalidAmount. Zero is a valid value; ledger records may carry it.
func ParseEtherValue(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -etherDecimals {
		return nil, fmt.Errorf("%w: %q", ErrPrecision, s)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("%w: must not be negative, got %q", ErrInvalidAmount, s)
	}
	// The exponent check above guarantees the shifted value is integral,
	// so BigInt loses nothing here.
	return d.Shift(etherDecimals).BigInt(), nil
}

// ParseEther is the submission-side variant of ParseEtherValue: donations
// must move a strictly positive amount, so zero is rejected as well.
func ParseEther(s string) (*big.Int, error) {
	wei, err := ParseEtherValue(s)
	if err != nil {
		return nil, err
	}
	if wei.Sign() == 0 {
		return nil, fmt.Errorf("%w: must be positive, got %q", ErrInvalidAmount, s)
	}
	return wei, nil
}

// FormatEther renders a wei value as a decimal ETH string with trailing
// zeros trimmed. Display-only; comparisons and summation stay on the
// integer wei form.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}
