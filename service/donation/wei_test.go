package donation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther_ExactConversion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		wei   string
	}{
		{"one ether", "1", "1000000000000000000"},
		{"half ether", "0.5", "500000000000000000"},
		{"classic float trap", "0.1", "100000000000000000"},
		{"eighteen decimals", "0.000000000000000001", "1"},
		{"mixed integer and fraction", "12.345", "12345000000000000000"},
		{"large amount", "1000000", "1000000000000000000000000"},
		{"trailing zeros", "2.500", "2500000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wei, err := ParseEther(tt.input)
			require.NoError(t, err)

			expected, ok := new(big.Int).SetString(tt.wei, 10)
			require.True(t, ok)
			assert.Equal(t, 0, wei.Cmp(expected), "got %s, want %s", wei, expected)
		})
	}
}

func TestParseEther_RejectsExcessPrecision(t *testing.T) {
	// 19 fractional digits cannot be represented in wei.
	_, err := ParseEther("0.0000000000000000001")
	assert.ErrorIs(t, err, ErrPrecision)

	// 18 digits is the boundary and must pass.
	wei, err := ParseEther("0.100000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000001", wei.String())
}

func TestParseEther_RejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "abc", "1.2.3", "1e", "--1"} {
		_, err := ParseEther(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestParseEther_RejectsNonPositive(t *testing.T) {
	for _, input := range []string{"0", "0.0", "-1", "-0.5"} {
		_, err := ParseEther(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestParseEtherValue_AcceptsZero(t *testing.T) {
	for _, input := range []string{"0", "0.0", "0.000000000000000000"} {
		wei, err := ParseEtherValue(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, "0", wei.String(), "input %q", input)
	}
}

func TestParseEtherValue_RejectsNegativeAndMalformed(t *testing.T) {
	for _, input := range []string{"-1", "-0.5", "", "abc", "1.2.3"} {
		_, err := ParseEtherValue(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}

	_, err := ParseEtherValue("0.0000000000000000001")
	assert.ErrorIs(t, err, ErrPrecision)
}

func TestFormatEther_RoundTrip(t *testing.T) {
	for _, input := range []string{"1", "0.5", "0.1", "0.000000000000000001", "12.345"} {
		wei, err := ParseEther(input)
		require.NoError(t, err)

		back, err := ParseEther(FormatEther(wei))
		require.NoError(t, err)
		assert.Equal(t, 0, wei.Cmp(back), "round trip changed %q", input)
	}
}

func TestFormatEther_NilWei(t *testing.T) {
	assert.Equal(t, "0", FormatEther(nil))
}

func TestPackDonate_EncodesMessage(t *testing.T) {
	data, err := PackDonate("for the cause")
	require.NoError(t, err)

	// 4-byte selector for donate(string) followed by ABI-encoded args.
	method, ok := ContractABI().Methods["donate"]
	require.True(t, ok)
	assert.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, "for the cause", args[0])
}
