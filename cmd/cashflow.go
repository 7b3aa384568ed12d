package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookkeeper/internal/ledger"
	"bookkeeper/internal/logger"
	"bookkeeper/internal/sheets"
	"bookkeeper/pkg/models"
	"bookkeeper/pkg/services"
)

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Aggregate cashflow over a date range",
	Long: `Aggregate inflow and outflow of active accounts over a date range.

Transactions provide the automatic flows, manual cashflow entries the manual
flows; both are reported separately and combined. Figures are never added
across currencies.

Required environment variables for --sheet:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL to write the summary to`,
	Example: `  # First quarter, one flat list
  bookkeeper cashflow --from 2025-01-01 --to 2025-03-31

  # Grouped by company, EUR only
  bookkeeper cashflow --from 2025-01-01 --to 2025-12-31 --group-by company --currency EUR

  # Export to Google Sheets
  bookkeeper cashflow --from 2025-01-01 --to 2025-01-31 --group-by account --sheet "Cashflow Jan"`,
	RunE: runCashflow,
}

func init() {
	rootCmd.AddCommand(cashflowCmd)

	cashflowCmd.Flags().String("from", "", "First day (format: YYYY-MM-DD)")
	cashflowCmd.Flags().String("to", "", "Last day (format: YYYY-MM-DD)")
	cashflowCmd.Flags().String("group-by", "none", "Grouping: none, account or company")
	cashflowCmd.Flags().String("company", "", "Only accounts of this company")
	cashflowCmd.Flags().String("currency", "", "Only this currency")
	cashflowCmd.Flags().String("sheet", "", "Also write the summary to this Google Sheets tab")
	cashflowCmd.Flags().Bool("json", false, "Output as JSON format")
	_ = cashflowCmd.MarkFlagRequired("from")
	_ = cashflowCmd.MarkFlagRequired("to")
}

func runCashflow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("cashflow")

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	groupByStr, _ := cmd.Flags().GetString("group-by")
	company, _ := cmd.Flags().GetString("company")
	currency, _ := cmd.Flags().GetString("currency")
	sheetName, _ := cmd.Flags().GetString("sheet")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	from, err := parseDay("from", fromStr)
	if err != nil {
		return err
	}
	to, err := parseDay("to", toStr)
	if err != nil {
		return err
	}
	groupBy, err := ledger.ParseGroupBy(groupByStr)
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
	keys := make([]models.AccountKey, 0, len(accounts))
	for i := range accounts {
		keys = append(keys, accounts[i].Key())
	}

	summary, err := a.engine.Cashflow(ctx, ledger.CashflowQuery{
		Accounts: keys,
		Range:    ledger.DayRange(from, to),
		GroupBy:  groupBy,
		Currency: currency,
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("accounts", len(keys)).
		Int("groups", len(summary.Groups)).
		Int("lines", len(summary.Lines())).
		Msg("Cashflow aggregated")

	if sheetName != "" {
		if a.cfg.GoogleSheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
		}
		svc, err := sheets.NewSheetsService(ctx, a.cfg.GoogleSheetURL)
		if err != nil {
			return err
		}
		if err := svc.WriteTable(ctx, sheetName, sheets.CashflowHeaders, sheets.CashflowTable(summary)); err != nil {
			return err
		}
		log.Info().Str("sheet", sheetName).Msg("Cashflow exported")
	}

	if jsonOutput {
		return printJSON(summary)
	}

	printBanner(fmt.Sprintf("CASHFLOW %s .. %s", fromStr, toStr))
	tw := newTable()
	for _, g := range summary.Groups {
		if groupBy != ledger.GroupNone {
			fmt.Fprintf(tw, "[%s]\t\t\t\t\t\t\n", g.Label)
		}
		fmt.Fprintln(tw, "Account\tCurrency\tInflow\tOutflow\tManual net\tNet\t")
		for _, l := range g.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				l.Name, l.Currency,
				l.Combined.Inflow.StringFixed(2), l.Combined.Outflow.StringFixed(2),
				l.Manual.Net.StringFixed(2), l.Combined.Net.StringFixed(2))
		}
		for _, t := range g.Totals {
			fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t%s\t%s\t\n",
				t.Currency,
				t.Combined.Inflow.StringFixed(2), t.Combined.Outflow.StringFixed(2),
				t.Manual.Net.StringFixed(2), t.Combined.Net.StringFixed(2))
		}
		fmt.Fprintln(tw, "\t\t\t\t\t\t")
	}
	return tw.Flush()
}
