package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/pigeonhole/internal/cli"
	"github.com/Veraticus/pigeonhole/internal/engine"
	"github.com/Veraticus/pigeonhole/internal/identity"
	"github.com/Veraticus/pigeonhole/internal/ofx"
	"github.com/Veraticus/pigeonhole/internal/storage"
)

func batchCmd() *cobra.Command {
	var (
		currency string
		useAI    bool
		record   bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file.ofx>",
		Short: "Categorize every transaction in an OFX/QFX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			requests, err := ofx.NewParser(currency).Parse(f)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				fmt.Println("No transactions found.")
				return nil
			}

			svc, err := buildServices()
			if err != nil {
				return err
			}

			bar := progressbar.Default(int64(len(requests)), "categorizing")

			// One call for the whole batch so the engine's windowing (and
			// the delay between windows) stays in effect; the bar ticks
			// from the per-item progress callback.
			results := svc.engine.CategorizeBatch(cmd.Context(), requests, engine.BatchOptions{
				UseAI: useAI,
				Progress: func(completed, _ int) {
					_ = bar.Set(completed)
				},
			})
			_ = bar.Finish()

			var history *storage.HistoryStore
			if record {
				history, err = storage.NewHistoryStore(svc.cfg.HistoryDBPath)
				if err != nil {
					return err
				}
				defer func() { _ = history.Close() }()
			}

			counts := make(map[string]int)
			for i, result := range results {
				counts[result.Category]++
				if history != nil {
					key := identity.CacheKey(requests[i].Description, requests[i].Merchant, requests[i].Amount, requests[i].Currency)
					if err := history.SaveDecision(cmd.Context(), key, result); err != nil {
						slog.Warn("Failed to record decision", "error", err)
					}
				}
			}

			fmt.Println(cli.TableHeaderStyle.Render("Category summary"))
			for category, n := range counts {
				fmt.Printf("  %-30s %d\n", category, n)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "USD", "currency for statements that do not declare one")
	cmd.Flags().BoolVar(&useAI, "ai", false, "force the AI classifier for every item")
	cmd.Flags().BoolVar(&record, "record", true, "record decisions in the history store")

	return cmd
}
