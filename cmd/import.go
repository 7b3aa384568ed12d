package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookkeeper/internal/importer"
	"bookkeeper/internal/logger"
	"bookkeeper/internal/sheets"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import transactions and manual entries from Google Sheets",
	Long: `Import ledger transactions and manual cashflow entries from Google Sheets.

Transactions sheet columns: Date, AccountType, AccountID, Currency, Incoming,
Outgoing, Description, Reference.
Manual sheet columns: Month, AccountType, AccountID, Currency, Type (inflow or
outflow), Amount, Description, Notes.

Dates may be DD.MM.YYYY or YYYY-MM-DD, amounts German (1.234,56) or plain.
Rows that cannot be parsed are logged and skipped.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL - Google Sheets URL containing the sheets`,
	Example: `  # Import both sheets
  bookkeeper import

  # Parse only
  bookkeeper import --dry-run

  # Only manual entries, from a custom tab
  bookkeeper import --transactions-sheet "" --manual-sheet "Manual 2025"`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("transactions-sheet", "Transactions", "Sheet with ledger transactions (empty to skip)")
	importCmd.Flags().String("manual-sheet", "Manual", "Sheet with manual cashflow entries (empty to skip)")
	importCmd.Flags().Bool("dry-run", false, "Parse the sheets but write nothing")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	txSheet, _ := cmd.Flags().GetString("transactions-sheet")
	manualSheet, _ := cmd.Flags().GetString("manual-sheet")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
	}

	log.Info().
		Str("transactions_sheet", txSheet).
		Str("manual_sheet", manualSheet).
		Bool("dry_run", dryRun).
		Msg("Starting import")

	svc, err := sheets.NewSheetsService(ctx, a.cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}

	result, err := importer.NewReader(svc).Import(ctx, a.store, importer.Options{
		TransactionsSheet: txSheet,
		ManualSheet:       manualSheet,
		DryRun:            dryRun,
	})
	if err != nil {
		return err
	}

	printBanner("IMPORT")
	fmt.Printf("Transactions: %d\n", result.Transactions)
	fmt.Printf("Manual entries: %d\n", result.ManualEntries)
	if result.Failed > 0 {
		fmt.Printf("Failed: %d\n", result.Failed)
	}
	if dryRun {
		fmt.Println("Dry run, nothing was written")
	}
	return nil
}
