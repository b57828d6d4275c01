package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContractAddr = "0x742d35Cc6634C0532925a3b844Bc9e7595f8bE21"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WALLET_RPC_URL", "http://localhost:8545")
	t.Setenv("ETH_RPC_URL", "https://rpc.sepolia.org")
	t.Setenv("CONTRACT_ADDRESS", testContractAddr)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, uint64(DefaultChainID), cfg.ChainID)
	assert.Equal(t, "Sepolia Testnet", cfg.ChainName)
	assert.Equal(t, "ETH", cfg.NativeSymbol)
	assert.Equal(t, ":5000", cfg.ServerAddr)
	assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, cfg.ReceiptPollInterval)
	assert.Equal(t, 5*time.Second, cfg.EventPollInterval)
	assert.Equal(t, common.HexToAddress(testContractAddr), cfg.ContractAddress)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	t.Setenv("WALLET_RPC_URL", "")
	t.Setenv("ETH_RPC_URL", "")
	t.Setenv("CONTRACT_ADDRESS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_RPC_URL")
	assert.Contains(t, err.Error(), "ETH_RPC_URL")
	assert.Contains(t, err.Error(), "CONTRACT_ADDRESS")
}

func TestLoad_RejectsMalformedContractAddress(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONTRACT_ADDRESS", "not-an-address")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTRACT_ADDRESS")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHAIN_ID", "1")
	t.Setenv("CONFIRM_TIMEOUT", "2m")
	t.Setenv("SERVER_ADDR", ":9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.ChainID)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmTimeout)
	assert.Equal(t, ":9999", cfg.ServerAddr)
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIRM_TIMEOUT", "ninety seconds")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFIRM_TIMEOUT")
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.WalletRPCURL = "http://localhost:8545"
	valid.ChainRPCURL = "https://rpc.sepolia.org"
	valid.ContractAddress = common.HexToAddress(testContractAddr)
	require.NoError(t, valid.Validate())

	noContract := *valid
	noContract.ContractAddress = common.Address{}
	assert.Error(t, noContract.Validate())

	badPoll := *valid
	badPoll.ReceiptPollInterval = valid.ConfirmTimeout + time.Second
	assert.Error(t, badPoll.Validate())
}

func TestChainSpec_WalletAddChainShape(t *testing.T) {
	cfg := Default()
	cfg.ChainID = DefaultChainID

	spec := cfg.ChainSpec()
	assert.Equal(t, "0xaa36a7", spec.ChainID)
	assert.Equal(t, "Sepolia Testnet", spec.ChainName)
	assert.Equal(t, 18, spec.NativeCurrency.Decimals)
	require.Len(t, spec.RPCURLs, 1)
	assert.NotEmpty(t, spec.RPCURLs[0])
}
