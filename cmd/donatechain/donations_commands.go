package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/donatechain/donatechain/service/donation"
)

func donationsListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Usage:   "List donations from the chain or the mirror service",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Value:   string(donation.SourceMirror),
				Usage:   "Which source to read: chain or mirror",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output donations as JSON",
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Usage:   "jq filter expression that must evaluate to true (can be specified multiple times, all must match)",
				Aliases: []string{"jq"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   30 * time.Second,
				Usage:   "Fetch deadline",
			},
		},
		Action: func(c *cli.Context) error {
			source := donation.Source(c.String("source"))
			if source != donation.SourceOnChain && source != donation.SourceMirror {
				return fmt.Errorf("unknown source %q (want %q or %q)", source, donation.SourceOnChain, donation.SourceMirror)
			}

			logger := newLogger(c)
			cfg := cliConfig(c)

			// Compile jq filters up front.
			jqFilters := c.StringSlice("must-jq")
			compiledJQFilters := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiledJQFilters[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
			defer cancel()

			v, closeChain, err := newView(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeChain()

			v.SetActive(source)
			if err := v.Refresh(ctx, source); err != nil {
				return fmt.Errorf("failed to fetch donations from %s: %w", source, err)
			}

			state := v.State(source)
			records := make([]map[string]any, 0, len(state.Records))
			for _, rec := range state.Records {
				m := donationToMap(rec)
				ok, err := matchesAll(compiledJQFilters, m)
				if err != nil {
					logger.Debug("jq filter error", "error", err)
					continue
				}
				if ok {
					records = append(records, m)
				}
			}

			if c.Bool("json") {
				data, err := json.MarshalIndent(records, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal donations: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tDONOR\tAMOUNT (ETH)\tMESSAGE\tTIMESTAMP")
			for _, m := range records {
				fmt.Fprintf(w, "%v\t%s\t%s\t%s\t%s\n",
					m["sequence"],
					m["donor"],
					m["amount_eth"],
					m["message"],
					m["timestamp"],
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d donations (source: %s, fetched: %s)\n",
				len(records), source, state.FetchedAt.Format(time.RFC3339))
			return nil
		},
	}
}

// donationToMap flattens a record into the shape the jq filters and JSON
// output see.
func donationToMap(rec donation.Record) map[string]any {
	return map[string]any{
		"source":     string(rec.Source),
		"sequence":   rec.Sequence,
		"donor":      rec.Donor.Hex(),
		"amount_wei": rec.AmountWei.String(),
		"amount_eth": donation.FormatEther(rec.AmountWei),
		"message":    rec.Message,
		"timestamp":  rec.Timestamp.Format(time.RFC3339),
	}
}

// matchesAll runs every compiled filter against the record; all must
// produce a truthy first value.
func matchesAll(filters []*gojq.Code, input map[string]any) (bool, error) {
	for _, code := range filters {
		iter := code.Run(input)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, err
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy checks if a jq result value is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	// Everything else (numbers, strings, objects, arrays) is truthy
	return true
}
