package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/donatechain/donatechain/service/provider"
)

// Default target network: Sepolia testnet.
const (
	DefaultChainID      = 11155111
	defaultChainName    = "Sepolia Testnet"
	defaultChainRPCURL  = "https://rpc.sepolia.org"
	defaultExplorerURL  = "https://sepolia.etherscan.io"
	defaultNativeSymbol = "ETH"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Logging
	LogLevel string

	// Wallet transport (the bridge to the user's signing wallet)
	WalletRPCURL string

	// Read-only chain endpoint (ledger reads, receipt polling)
	ChainRPCURL string

	// Donation contract
	ContractAddress common.Address

	// Required network; donations are only accepted on this chain
	ChainID        uint64
	ChainName      string
	NativeSymbol   string
	ExplorerURL    string
	AddChainRPCURL string

	// Mirror service
	MirrorURL  string
	ServerAddr string // mirrord listen address

	// Timing
	ConfirmTimeout      time.Duration
	ReceiptPollInterval time.Duration
	EventPollInterval   time.Duration
}

// Default returns a Config populated with the Sepolia defaults. Load and
// the CLI flag layer both start from these values.
func Default() *Config {
	return &Config{
		LogLevel:            "info",
		ChainID:             DefaultChainID,
		ChainName:           defaultChainName,
		NativeSymbol:        defaultNativeSymbol,
		ExplorerURL:         defaultExplorerURL,
		AddChainRPCURL:      defaultChainRPCURL,
		MirrorURL:           "http://localhost:5000",
		ServerAddr:          ":5000",
		ConfirmTimeout:      90 * time.Second,
		ReceiptPollInterval: 2 * time.Second,
		EventPollInterval:   5 * time.Second,
	}
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.WalletRPCURL = os.Getenv("WALLET_RPC_URL")
	if cfg.WalletRPCURL == "" {
		errs = append(errs, fmt.Errorf("WALLET_RPC_URL is required"))
	}

	cfg.ChainRPCURL = os.Getenv("ETH_RPC_URL")
	if cfg.ChainRPCURL == "" {
		errs = append(errs, fmt.Errorf("ETH_RPC_URL is required"))
	}

	contractAddr := os.Getenv("CONTRACT_ADDRESS")
	switch {
	case contractAddr == "":
		errs = append(errs, fmt.Errorf("CONTRACT_ADDRESS is required"))
	case !common.IsHexAddress(contractAddr):
		errs = append(errs, fmt.Errorf("CONTRACT_ADDRESS: %q is not a hex address", contractAddr))
	default:
		cfg.ContractAddress = common.HexToAddress(contractAddr)
	}

	chainID, err := parseUint("CHAIN_ID", DefaultChainID)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ChainID = chainID
	}

	cfg.ChainName = getEnvOrDefault("CHAIN_NAME", defaultChainName)
	cfg.NativeSymbol = getEnvOrDefault("NATIVE_SYMBOL", defaultNativeSymbol)
	cfg.ExplorerURL = getEnvOrDefault("EXPLORER_URL", defaultExplorerURL)
	cfg.AddChainRPCURL = getEnvOrDefault("ADD_CHAIN_RPC_URL", defaultChainRPCURL)

	cfg.MirrorURL = getEnvOrDefault("MIRROR_URL", "http://localhost:5000")
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":5000")

	confirmTimeout, err := parseDuration("CONFIRM_TIMEOUT", "90s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmTimeout = confirmTimeout
	}

	receiptInterval, err := parseDuration("RECEIPT_POLL_INTERVAL", "2s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ReceiptPollInterval = receiptInterval
	}

	eventInterval, err := parseDuration("EVENT_POLL_INTERVAL", "5s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.EventPollInterval = eventInterval
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.WalletRPCURL == "" {
		errs = append(errs, fmt.Errorf("WalletRPCURL is required"))
	}

	if c.ChainRPCURL == "" {
		errs = append(errs, fmt.Errorf("ChainRPCURL is required"))
	}

	if c.ContractAddress == (common.Address{}) {
		errs = append(errs, fmt.Errorf("ContractAddress is required"))
	}

	if c.ChainID == 0 {
		errs = append(errs, fmt.Errorf("ChainID is required"))
	}

	if c.ConfirmTimeout < time.Second {
		errs = append(errs, fmt.Errorf("ConfirmTimeout must be at least 1 second"))
	}

	if c.ReceiptPollInterval < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("ReceiptPollInterval must be at least 100ms"))
	}

	if c.ReceiptPollInterval > c.ConfirmTimeout {
		errs = append(errs, fmt.Errorf("ReceiptPollInterval (%v) cannot be greater than ConfirmTimeout (%v)",
			c.ReceiptPollInterval, c.ConfirmTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// ChainSpec assembles the wallet_addEthereumChain descriptor for the
// required network.
func (c *Config) ChainSpec() provider.ChainSpec {
	return provider.ChainSpec{
		ChainID:   hexutil.EncodeUint64(c.ChainID),
		ChainName: c.ChainName,
		NativeCurrency: provider.NativeCurrency{
			Name:     c.NativeSymbol,
			Symbol:   c.NativeSymbol,
			Decimals: 18,
		},
		RPCURLs:           []string{c.AddChainRPCURL},
		BlockExplorerURLs: []string{c.ExplorerURL},
	}
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseUint parses an unsigned integer from an environment variable or uses a default.
func parseUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
