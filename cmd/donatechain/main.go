package main

import (
	"fmt"
	"log"
	"os"

	"github.com/donatechain/donatechain/service/config"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "donatechain",
		Usage: "Donation dapp wallet and ledger CLI",
		Description: `A command-line tool for driving the donation flow end to end.

Use it to connect a wallet session, submit donations to the contract,
and list recorded donations from either the chain or the mirror service.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Wallet session commands
			{
				Name:  "wallet",
				Usage: "Wallet session commands",
				Subcommands: []*cli.Command{
					walletConnectCommand(),
					walletStatusCommand(),
					walletBalanceCommand(),
				},
			},
			// Donation submission
			donateCommand(),
			// Ledger/mirror reconciliation commands
			{
				Name:  "donations",
				Usage: "Donation listing commands",
				Subcommands: []*cli.Command{
					donationsListCommand(),
				},
			},
			// Mirror service commands (HTTP API)
			{
				Name:  "mirror",
				Usage: "Mirror service commands",
				Subcommands: []*cli.Command{
					mirrorHealthCommand(),
					mirrorGetCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "wallet-rpc-url",
				Usage:   "Wallet provider RPC endpoint (the signing bridge)",
				EnvVars: []string{"WALLET_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "eth-rpc-url",
				Usage:   "Read-only chain RPC endpoint",
				EnvVars: []string{"ETH_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "contract",
				Usage:   "Donation contract address",
				EnvVars: []string{"CONTRACT_ADDRESS"},
			},
			&cli.Uint64Flag{
				Name:    "chain-id",
				Usage:   "Required chain id for the wallet session",
				EnvVars: []string{"CHAIN_ID"},
				Value:   config.DefaultChainID,
			},
			&cli.StringFlag{
				Name:    "mirror-url",
				Usage:   "Mirror service base URL",
				EnvVars: []string{"MIRROR_URL"},
				Value:   "http://localhost:5000",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "error",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
