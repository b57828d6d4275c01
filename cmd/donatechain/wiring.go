package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"

	"github.com/donatechain/donatechain/client"
	"github.com/donatechain/donatechain/service/config"
	"github.com/donatechain/donatechain/service/ledger"
	"github.com/donatechain/donatechain/service/provider"
	"github.com/donatechain/donatechain/service/session"
	"github.com/donatechain/donatechain/service/view"
)

// newLogger builds a stderr JSON logger at the level from --log-level.
// CLI output goes to stdout, so logs stay out of pipelines.
func newLogger(c *cli.Context) *slog.Logger {
	var level slog.Level
	switch c.String("log-level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// cliConfig assembles a Config from the global flags, starting from the
// Sepolia defaults so subcommands agree with the daemon on chain metadata.
func cliConfig(c *cli.Context) *config.Config {
	cfg := config.Default()
	cfg.LogLevel = c.String("log-level")
	cfg.WalletRPCURL = c.String("wallet-rpc-url")
	cfg.ChainRPCURL = c.String("eth-rpc-url")
	cfg.ChainID = c.Uint64("chain-id")
	cfg.MirrorURL = c.String("mirror-url")
	if addr := c.String("contract"); addr != "" {
		if !common.IsHexAddress(addr) {
			// Validated again by Submitter/Reader; fail early with a clear message.
			fmt.Fprintf(os.Stderr, "warning: %q is not a hex address\n", addr)
		}
		cfg.ContractAddress = common.HexToAddress(addr)
	}
	return cfg
}

// dialWallet connects the wallet transport and wraps it in a session
// manager. The returned cleanup closes the transport.
func dialWallet(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*session.Manager, *provider.Adapter, func(), error) {
	if cfg.WalletRPCURL == "" {
		return nil, nil, nil, fmt.Errorf("wallet RPC URL is required (--wallet-rpc-url or WALLET_RPC_URL)")
	}
	transport, err := provider.Dial(ctx, cfg.WalletRPCURL, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to dial wallet provider: %w", err)
	}
	adapter := provider.NewAdapter(transport, nil, logger)
	mgr := session.NewManager(adapter, cfg.ChainID, cfg.ChainSpec(), logger)
	return mgr, adapter, transport.Close, nil
}

// dialChain opens the read-only chain endpoint used for ledger reads and
// receipt polling.
func dialChain(ctx context.Context, cfg *config.Config) (*ethclient.Client, error) {
	if cfg.ChainRPCURL == "" {
		return nil, fmt.Errorf("chain RPC URL is required (--eth-rpc-url or ETH_RPC_URL)")
	}
	ec, err := ethclient.DialContext(ctx, cfg.ChainRPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain RPC: %w", err)
	}
	return ec, nil
}

// newView wires a reconciliation view over the on-chain reader and the
// mirror client. The chain client cleanup is returned to the caller.
func newView(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*view.View, func(), error) {
	ec, err := dialChain(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ContractAddress == (common.Address{}) {
		ec.Close()
		return nil, nil, fmt.Errorf("contract address is required (--contract or CONTRACT_ADDRESS)")
	}
	reader := ledger.NewReader(ec, cfg.ContractAddress, nil, logger)
	mirror := client.NewClient(cfg.MirrorURL, nil, logger)
	return view.New(reader, mirror, nil, logger), ec.Close, nil
}
