package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/donatechain/donatechain/client"
)

func mirrorHealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check mirror service health",
		Action: func(c *cli.Context) error {
			logger := newLogger(c)
			cfg := cliConfig(c)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cl := client.NewClient(cfg.MirrorURL, nil, logger)
			if err := cl.Health(ctx); err != nil {
				return fmt.Errorf("mirror unhealthy: %w", err)
			}
			fmt.Printf("Mirror at %s is healthy\n", cfg.MirrorURL)
			return nil
		},
	}
}

func mirrorGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a single mirror transaction by id",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("transaction id is required")
			}
			id, err := strconv.Atoi(c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", c.Args().Get(0), err)
			}

			logger := newLogger(c)
			cfg := cliConfig(c)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			cl := client.NewClient(cfg.MirrorURL, nil, logger)
			txn, err := cl.GetTransaction(ctx, id)
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("transaction %d not found", id)
				}
				return fmt.Errorf("failed to fetch transaction: %w", err)
			}

			data, err := json.MarshalIndent(txn, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal transaction: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
