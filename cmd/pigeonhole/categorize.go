package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/pigeonhole/internal/cli"
	"github.com/Veraticus/pigeonhole/internal/model"
)

func categorizeCmd() *cobra.Command {
	var (
		merchant      string
		currency      string
		accountSuffix string
		messageID     string
		txType        string
		dateStr       string
		amount        float64
		useAI         bool
		record        bool
	)

	cmd := &cobra.Command{
		Use:   "categorize <description>",
		Short: "Categorize a single transaction",
		Example: `  pigeonhole categorize "SUPERMERCADO COTO" --amount -4300 --currency ARS
  pigeonhole categorize "ACME CORP PAYROLL" --amount 500000 --ai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount == 0 {
				return fmt.Errorf("--amount is required and must be non-zero")
			}

			var date time.Time
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date (want YYYY-MM-DD): %w", err)
				}
				date = parsed
			}

			svc, err := buildServices()
			if err != nil {
				return err
			}

			req := model.CategorizationRequest{
				Description:   args[0],
				Merchant:      merchant,
				Amount:        amount,
				Currency:      currency,
				Date:          date,
				AccountSuffix: accountSuffix,
				MessageID:     messageID,
				Type:          model.TransactionType(txType),
				UseAI:         useAI,
			}

			result := svc.engine.Categorize(cmd.Context(), req)
			fmt.Println(cli.FormatResult(result))

			if record {
				if err := recordDecision(cmd.Context(), svc.cfg, req, result); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&amount, "amount", 0, "signed amount (negative = expense, positive = income)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "merchant name, if known")
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO currency code")
	cmd.Flags().StringVar(&dateStr, "date", "", "transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&accountSuffix, "account", "", "account suffix")
	cmd.Flags().StringVar(&messageID, "message-id", "", "external message id")
	cmd.Flags().StringVar(&txType, "type", "", "transaction type hint (expense, income, transfer)")
	cmd.Flags().BoolVar(&useAI, "ai", false, "force the AI classifier even when a rule matches")
	cmd.Flags().BoolVar(&record, "record", true, "record the decision in the history store")

	return cmd
}
