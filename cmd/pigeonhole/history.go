package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/pigeonhole/internal/cli"
	"github.com/Veraticus/pigeonhole/internal/config"
	"github.com/Veraticus/pigeonhole/internal/identity"
	"github.com/Veraticus/pigeonhole/internal/model"
	"github.com/Veraticus/pigeonhole/internal/storage"
)

// recordDecision appends the result to the sqlite history. A history write
// failure is logged, never fatal to the categorization itself.
func recordDecision(ctx context.Context, cfg config.Config, req model.CategorizationRequest, result model.CategorizationResult) error {
	store, err := storage.NewHistoryStore(cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cacheKey := identity.CacheKey(req.Description, req.Merchant, req.Amount, req.Currency)
	if err := store.SaveDecision(ctx, cacheKey, result); err != nil {
		slog.Warn("Failed to record decision", "error", err)
	}

	return nil
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent categorization decisions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store, err := storage.NewHistoryStore(cfg.HistoryDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			decisions, err := store.RecentDecisions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(decisions) == 0 {
				fmt.Println("No decisions recorded yet.")
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-19s %-24s %-20s %-6s %s", "When", "Merchant", "Category", "Conf", "Source")))
			for _, d := range decisions {
				fmt.Printf("%-19s %-24s %-20s %-6.2f %s\n",
					d.CreatedAt.Format("2006-01-02 15:04:05"),
					truncate(d.Merchant, 24),
					truncate(d.Category, 20),
					d.Confidence,
					d.Source)
			}

			counts, err := store.CountsBySource(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("\nBy source: ")
			for _, source := range []string{model.SourceCache, model.SourceLearned, model.SourceRule, model.SourceAI, model.SourceFallback} {
				if n, ok := counts[source]; ok {
					fmt.Printf("%s=%d ", source, n)
				}
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum decisions to show")

	return cmd
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
