package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/donatechain/donatechain/service/donation"
	"github.com/donatechain/donatechain/service/session"
)

func walletConnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Request wallet accounts and switch to the required chain",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   2 * time.Minute,
				Usage:   "How long to wait for the wallet prompt",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output session as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			cfg := cliConfig(c)

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			mgr, _, closeTransport, err := dialWallet(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeTransport()

			sess, err := mgr.Connect(ctx)
			if err != nil {
				return fmt.Errorf("connect failed: %w", err)
			}

			return printSession(c, sess, cfg.ChainID)
		},
	}
}

func walletStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the current wallet session without prompting",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output session as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			cfg := cliConfig(c)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			mgr, adapter, closeTransport, err := dialWallet(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeTransport()

			// eth_accounts only; never pops a wallet prompt.
			sess, err := mgr.Probe(ctx)
			if err != nil {
				return fmt.Errorf("probe failed: %w", err)
			}

			if err := printSession(c, sess, cfg.ChainID); err != nil {
				return err
			}
			if sess.Account == nil || c.Bool("json") {
				return nil
			}
			wei, err := adapter.Balance(ctx, *sess.Account)
			if err != nil {
				logger.Warn("balance lookup failed", "error", err)
				return nil
			}
			fmt.Printf("Balance: %s %s\n", donation.FormatEther(wei), cfg.NativeSymbol)
			return nil
		},
	}
}

func walletBalanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Show the connected account's native-token balance",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output balance as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			cfg := cliConfig(c)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			mgr, adapter, closeTransport, err := dialWallet(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeTransport()

			sess, err := mgr.Probe(ctx)
			if err != nil {
				return fmt.Errorf("probe failed: %w", err)
			}
			if sess.Account == nil {
				return fmt.Errorf("no account connected; run `donatechain wallet connect` first")
			}

			wei, err := adapter.Balance(ctx, *sess.Account)
			if err != nil {
				return fmt.Errorf("balance lookup failed: %w", err)
			}

			eth := donation.FormatEther(wei)
			if c.Bool("json") {
				out := map[string]any{
					"account":     sess.Account.Hex(),
					"balance_wei": wei.String(),
					"balance_eth": eth,
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Account: %s\n", sess.Account.Hex())
			fmt.Printf("Balance: %s %s\n", eth, cfg.NativeSymbol)
			return nil
		},
	}
}

func printSession(c *cli.Context, sess session.Session, requiredChain uint64) error {
	if c.Bool("json") {
		out := map[string]any{
			"status":   sess.Status.String(),
			"chain_id": sess.ChainID,
		}
		if sess.Account != nil {
			out["account"] = sess.Account.Hex()
		}
		if sess.LastError != nil {
			out["last_error"] = sess.LastError.Error()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Status:  %s\n", sess.Status)
	if sess.Account != nil {
		fmt.Printf("Account: %s\n", sess.Account.Hex())
	}
	if sess.ChainID != 0 {
		fmt.Printf("Chain:   %d (required: %d)\n", sess.ChainID, requiredChain)
	}
	if sess.LastError != nil {
		fmt.Printf("Error:   %s\n", sess.LastError)
	}
	return nil
}
