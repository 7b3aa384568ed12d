package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bookkeeper/internal/ledger"
	"bookkeeper/internal/logger"
	"bookkeeper/pkg/models"
)

var openingBalanceCmd = &cobra.Command{
	Use:   "opening-balance",
	Short: "Manage opening balances",
}

var openingBalanceSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the opening balance of an account currency",
	Long: `Create or replace the opening balance of one (account, currency) pair.

Wallet currencies without an opening balance are treated as zero; setting one
here initializes them.`,
	Example: `  bookkeeper opening-balance set --account-id 42 --account-type wallet --currency BTC --amount 0.25`,
	RunE:    runOpeningBalanceSet,
}

func init() {
	rootCmd.AddCommand(openingBalanceCmd)
	openingBalanceCmd.AddCommand(openingBalanceSetCmd)

	openingBalanceSetCmd.Flags().String("account-id", "", "Account ID")
	openingBalanceSetCmd.Flags().String("account-type", "bank", "Account type (bank or wallet)")
	openingBalanceSetCmd.Flags().String("currency", "", "Currency code")
	openingBalanceSetCmd.Flags().String("amount", "", "Opening amount")
	openingBalanceSetCmd.Flags().String("notes", "", "Free-form notes")
	_ = openingBalanceSetCmd.MarkFlagRequired("currency")
	_ = openingBalanceSetCmd.MarkFlagRequired("amount")
}

func runOpeningBalanceSet(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("opening-balance")

	accountID, _ := cmd.Flags().GetString("account-id")
	accountType, _ := cmd.Flags().GetString("account-type")
	currencyStr, _ := cmd.Flags().GetString("currency")
	amountStr, _ := cmd.Flags().GetString("amount")
	notes, _ := cmd.Flags().GetString("notes")

	key, err := accountKeyFlags(accountID, accountType)
	if err != nil {
		return err
	}
	currency, err := ledger.ValidateCurrency(currencyStr)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", amountStr, err)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.store.FindAccount(ctx, key)
	if err != nil {
		return fmt.Errorf("account %s: %w", key, err)
	}
	declared := false
	for _, c := range ledger.DeclaredCurrencies(account) {
		if c == currency {
			declared = true
		}
	}
	if !declared {
		log.Warn().
			Str("account", key.String()).
			Str("currency", currency).
			Msg("Setting an opening balance for a currency the account does not declare")
	}

	ob := &models.OpeningBalance{
		AccountID:   key.ID,
		AccountType: key.Type,
		Currency:    currency,
		Amount:      amount,
		Notes:       notes,
	}
	if err := a.store.UpsertOpeningBalance(ctx, ob); err != nil {
		return err
	}

	log.Info().
		Str("account", key.String()).
		Str("currency", currency).
		Str("amount", amount.String()).
		Msg("Opening balance set")
	fmt.Printf("Opening balance of %s %s set to %s\n", key, currency, amount.String())
	return nil
}
