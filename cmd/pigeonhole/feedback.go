package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/pigeonhole/internal/cli"
	"github.com/Veraticus/pigeonhole/internal/model"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Manage user corrections and the learned-pattern table",
	}

	cmd.AddCommand(feedbackAddCmd())
	cmd.AddCommand(feedbackRebuildCmd())
	cmd.AddCommand(feedbackPatternsCmd())

	return cmd
}

func feedbackAddCmd() *cobra.Command {
	var (
		category    string
		reason      string
		description string
		merchant    string
		amount      float64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a category correction",
		RunE: func(_ *cobra.Command, _ []string) error {
			if category == "" {
				return fmt.Errorf("--category is required")
			}
			if merchant == "" && description == "" {
				return fmt.Errorf("at least one of --merchant or --description is required")
			}

			svc, err := buildServices()
			if err != nil {
				return err
			}

			record := model.FeedbackRecord{
				ID:          uuid.NewString(),
				Category:    category,
				Reason:      reason,
				Description: description,
				Merchant:    merchant,
				Amount:      amount,
				Timestamp:   time.Now().UTC(),
			}

			if err := svc.log.Append(record); err != nil {
				return err
			}

			fmt.Printf("Recorded correction %s -> %s\n", firstNonEmpty(merchant, description), category)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "corrected category")
	cmd.Flags().StringVar(&reason, "reason", "", "optional free-text reason")
	cmd.Flags().StringVar(&description, "description", "", "transaction description")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name")
	cmd.Flags().Float64Var(&amount, "amount", 0, "signed amount")

	return cmd
}

func feedbackRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Force a rebuild of the learned-pattern table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}

			if err := svc.memory.Refresh(cmd.Context(), true); err != nil {
				return err
			}

			fmt.Printf("Learned memory rebuilt: %d patterns\n", len(svc.memory.Patterns()))
			return nil
		},
	}
}

func feedbackPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List promoted learned patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}

			if err := svc.memory.Refresh(cmd.Context(), true); err != nil {
				return err
			}

			patterns := svc.memory.Patterns()
			if len(patterns) == 0 {
				fmt.Println("No learned patterns yet.")
				return nil
			}

			keys := make([]string, 0, len(patterns))
			for key := range patterns {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-40s %-24s %-10s %s", "Key", "Category", "Conf", "Votes")))
			for _, key := range keys {
				p := patterns[key]
				fmt.Printf("%-40s %-24s %-10.2f %d\n", key, p.Category, p.Confidence, p.Votes)
			}

			return nil
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
