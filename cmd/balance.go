package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookkeeper/internal/ledger"
	"bookkeeper/internal/logger"
	"bookkeeper/internal/sheets"
	"bookkeeper/pkg/services"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the balance of one account",
	Long: `Resolve the balance of a bank account or wallet.

The balance is the opening balance plus the net of every transaction dated on
or before the as-of day. Without --currency every currency the account
declares is shown; an undeclared currency may still be queried explicitly.`,
	Example: `  # Current balance of every currency of a wallet
  bookkeeper balance --account-id 42 --account-type wallet

  # EUR balance of a bank account at the end of June
  bookkeeper balance --account-id 7 --account-type bank --currency EUR --as-of 2025-06-30`,
	RunE: runBalance,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Multi-account reports",
}

var reportBalancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Balance of every active account and currency",
	Long: `Resolve the balance of every active account, one line per currency.

A line that cannot be resolved is shown as unavailable; the rest of the
report is still produced.`,
	Example: `  bookkeeper report balances --company acme --as-of 2025-12-31
  bookkeeper report balances --sheet "Balances 2025"`,
	RunE: runReportBalances,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportBalancesCmd)

	balanceCmd.Flags().String("account-id", "", "Account ID")
	balanceCmd.Flags().String("account-type", "bank", "Account type (bank or wallet)")
	balanceCmd.Flags().String("currency", "", "Currency code (default: every declared currency)")
	balanceCmd.Flags().String("as-of", "", "Cutoff day (format: YYYY-MM-DD, default: all history)")
	balanceCmd.Flags().Bool("json", false, "Output as JSON format")

	reportBalancesCmd.Flags().String("company", "", "Only accounts of this company")
	reportBalancesCmd.Flags().String("as-of", "", "Cutoff day (format: YYYY-MM-DD, default: all history)")
	reportBalancesCmd.Flags().String("sheet", "", "Also write the report to this Google Sheets tab")
	reportBalancesCmd.Flags().Bool("json", false, "Output as JSON format")
}

func runBalance(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("balance")

	accountID, _ := cmd.Flags().GetString("account-id")
	accountType, _ := cmd.Flags().GetString("account-type")
	currency, _ := cmd.Flags().GetString("currency")
	asOfStr, _ := cmd.Flags().GetString("as-of")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	key, err := accountKeyFlags(accountID, accountType)
	if err != nil {
		return err
	}
	asOf, err := asOfFlag(asOfStr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var currencies []string
	if currency != "" {
		currencies = []string{currency}
	} else {
		account, err := a.store.FindAccount(ctx, key)
		if err != nil {
			return fmt.Errorf("account %s: %w", key, err)
		}
		currencies = ledger.DeclaredCurrencies(account)
	}

	var balances []*ledger.Balance
	for _, c := range currencies {
		b, err := a.engine.Balance(ctx, key, c, asOf)
		if err != nil {
			return err
		}
		balances = append(balances, b)
	}

	log.Info().
		Str("account", key.String()).
		Int("currencies", len(balances)).
		Msg("Balance resolved")

	if jsonOutput {
		return printJSON(balances)
	}

	printBanner("BALANCE " + key.String())
	tw := newTable()
	fmt.Fprintln(tw, "Currency\tOpening\tMovements\tBalance\tTransactions\t")
	for _, b := range balances {
		note := ""
		if b.Uninitialized {
			note = " (no opening balance)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			b.Currency, b.Opening.StringFixed(2), b.Movements.StringFixed(2), b.Amount.StringFixed(2), b.TransactionCount, note)
	}
	return tw.Flush()
}

func runReportBalances(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report-balances")

	company, _ := cmd.Flags().GetString("company")
	asOfStr, _ := cmd.Flags().GetString("as-of")
	sheetName, _ := cmd.Flags().GetString("sheet")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	asOf, err := asOfFlag(asOfStr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	accounts, err := a.store.ListAccounts(ctx, services.AccountFilter{CompanyID: company, ActiveOnly: true})
	if err != nil {
		return err
	}
	lines := a.engine.BalanceReport(ctx, accounts, asOf)

	if sheetName != "" {
		if a.cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
		}
		svc, err := sheets.NewSheetsService(ctx, a.cfg.GoogleSheetURL)
		if err != nil {
			return err
		}
		if err := svc.WriteTable(ctx, sheetName, sheets.BalanceHeaders, sheets.BalanceTable(lines)); err != nil {
			return err
		}
		log.Info().Str("sheet", sheetName).Int("rows", len(lines)).Msg("Balance report exported")
	}

	if jsonOutput {
		return printJSON(lines)
	}

	printBanner("BALANCE REPORT")
	tw := newTable()
	fmt.Fprintln(tw, "Type\tAccount\tCurrency\tBalance\t")
	for _, l := range lines {
		switch {
		case l.Unavailable:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Account.Type, l.Name, l.Currency, "unavailable", l.Error)
		case l.Uninitialized:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Account.Type, l.Name, l.Currency, l.Balance.Amount.StringFixed(2), "no opening balance")
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", l.Account.Type, l.Name, l.Currency, l.Balance.Amount.StringFixed(2))
		}
	}
	return tw.Flush()
}
