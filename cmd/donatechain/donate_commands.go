package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/donatechain/donatechain/service/donation"
	"github.com/donatechain/donatechain/service/provider"
	"github.com/donatechain/donatechain/service/session"
	"github.com/donatechain/donatechain/service/view"
)

func donateCommand() *cli.Command {
	return &cli.Command{
		Name:      "donate",
		Usage:     "Submit a donation to the contract through the connected wallet",
		ArgsUsage: "AMOUNT_ETH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "message",
				Aliases: []string{"m"},
				Usage:   "Message recorded alongside the donation",
			},
			&cli.BoolFlag{
				Name:  "wait-indexed",
				Usage: "After confirmation, poll the on-chain ledger until the donation appears",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   5 * time.Minute,
				Usage:   "Overall deadline for the wallet prompt and confirmation wait",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("donation amount (in ETH) is required")
			}
			amount := c.Args().Get(0)
			message := c.String("message")

			logger := newLogger(c)
			cfg := cliConfig(c)

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			mgr, adapter, closeTransport, err := dialWallet(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeTransport()

			// Establish the session. Probe first so an already-authorized
			// wallet does not get a second prompt.
			sess, err := mgr.Probe(ctx)
			if err != nil {
				return fmt.Errorf("probe failed: %w", err)
			}
			if sess.Status != session.StatusConnected {
				sess, err = mgr.Connect(ctx)
				if err != nil {
					return fmt.Errorf("connect failed: %w", err)
				}
			}
			if sess.Status != session.StatusConnected {
				return fmt.Errorf("wallet session is %s, cannot donate", sess.Status)
			}

			// Keep the session current while we wait. Account or chain
			// changes in the wallet surface as events and invalidate the
			// signer before the next submission step.
			watcher := provider.NewWatcher(adapter, cfg.EventPollInterval, logger)
			go mgr.Run(ctx, watcher.Events())
			go watcher.Run(ctx)

			ec, err := dialChain(ctx, cfg)
			if err != nil {
				return err
			}
			defer ec.Close()

			poller := donation.NewReceiptPoller(ec, cfg.ReceiptPollInterval, nil, logger)
			submitter := donation.NewSubmitter(mgr, poller, cfg.ContractAddress, cfg.ConfirmTimeout, nil, logger)

			// Baseline count for --wait-indexed, taken before submission so
			// the target is "one more than what the ledger held".
			var (
				baseline int
				v        *view.View
			)
			if c.Bool("wait-indexed") {
				var closeChain func()
				v, closeChain, err = newView(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer closeChain()
				if err := v.Refresh(ctx, donation.SourceOnChain); err == nil {
					baseline = len(v.State(donation.SourceOnChain).Records)
				}
			}

			fmt.Fprintf(os.Stderr, "Donating %s ETH from %s...\n", amount, sess.Account.Hex())

			pending, err := submitter.Submit(ctx, amount, message)
			if err != nil {
				return fmt.Errorf("submission rejected: %w", err)
			}

			status := watchSubmission(ctx, pending)
			switch status.State {
			case donation.StateConfirmed:
				fmt.Printf("Confirmed: %s\n", status.TxHash.Hex())
			case donation.StateFailed:
				if status.TxHash != nil {
					// Timed out waiting for the receipt; the transaction may
					// still land. Keep the hash so the user can re-query.
					fmt.Fprintf(os.Stderr, "Transaction %s did not confirm: %v\n", status.TxHash.Hex(), status.Err)
					if errors.Is(status.Err, donation.ErrConfirmTimeout) {
						fmt.Fprintln(os.Stderr, "It may still confirm; check the explorer or re-run 'donations list --source chain'.")
					}
				}
				return fmt.Errorf("donation failed: %w", status.Err)
			default:
				return fmt.Errorf("donation interrupted in state %s", status.State)
			}

			if c.Bool("wait-indexed") {
				fmt.Fprintln(os.Stderr, "Waiting for the ledger to index the donation...")
				if err := v.RefreshOnChainUntil(ctx, baseline+1, cfg.ReceiptPollInterval); err != nil {
					return fmt.Errorf("ledger did not index the donation: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Indexed: ledger now holds %d donations\n", len(v.State(donation.SourceOnChain).Records))
			}
			return nil
		},
	}
}

// watchSubmission prints each state transition to stderr and returns the
// terminal status.
func watchSubmission(ctx context.Context, pending *donation.PendingSubmission) donation.SubmissionStatus {
	last := pending.Snapshot().State
	fmt.Fprintf(os.Stderr, "  %s\n", last)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-pending.Done():
			status := pending.Snapshot()
			if status.State != last {
				fmt.Fprintf(os.Stderr, "  %s\n", status.State)
			}
			return status
		case <-ctx.Done():
			return pending.Snapshot()
		case <-ticker.C:
			if s := pending.Snapshot().State; s != last {
				fmt.Fprintf(os.Stderr, "  %s\n", s)
				last = s
			}
		}
	}
}
