package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/skillrise/payment-security/internal/config"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/validation"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate card details or payment amounts",
	}
	cmd.AddCommand(validateCardCmd())
	cmd.AddCommand(validateAmountCmd())
	return cmd
}

func validateCardCmd() *cobra.Command {
	var (
		cvv         string
		expiryMonth int
		expiryYear  int
	)

	cmd := &cobra.Command{
		Use:   "card [number]",
		Short: "Check a card number and optionally its CVV and expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := models.CardValidationResponse{Card: validation.ValidateCardNumber(args[0])}
			if cmd.Flags().Changed("cvv") {
				v := validation.ValidateCVV(cvv, resp.Card.CardType)
				resp.CVV = &v
			}
			if cmd.Flags().Changed("exp-month") || cmd.Flags().Changed("exp-year") {
				v := validation.ValidateExpiryDate(expiryMonth, expiryYear)
				resp.Expiry = &v
			}
			if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if !resp.Card.IsValid || (resp.CVV != nil && !resp.CVV.IsValid) || (resp.Expiry != nil && !resp.Expiry.IsValid) {
				return fmt.Errorf("card is not valid")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cvv, "cvv", "", "Card verification value")
	cmd.Flags().IntVar(&expiryMonth, "exp-month", 0, "Expiry month (1-12)")
	cmd.Flags().IntVar(&expiryYear, "exp-year", 0, "Expiry year (YY or YYYY)")
	return cmd
}

func validateAmountCmd() *cobra.Command {
	var (
		currency  string
		maxAmount string
	)

	cmd := &cobra.Command{
		Use:   "amount [amount]",
		Short: "Check a payment amount against the transaction ceiling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := decimal.NewFromString(maxAmount)
			if err != nil {
				return fmt.Errorf("invalid --max: %w", err)
			}

			result := validation.NewValidator(limit, nil).ValidatePaymentAmount(args[0], currency)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("amount is not valid")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", validation.DefaultCurrency, "ISO currency code")
	cmd.Flags().StringVar(&maxAmount, "max", config.DefaultLimits().MaxTransactionAmount.String(), "Maximum transaction amount")
	return cmd
}
