package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookkeeper/internal/booking"
	"bookkeeper/internal/logger"
)

var cogsCmd = &cobra.Command{
	Use:   "cogs [invoice-id]",
	Short: "Compute the cost of goods sold of an invoice",
	Long: `Compute the COGS of an invoice from the current cost of its products.

Items without a product, or whose product was deleted, contribute zero.
Costs in different currencies are summed as-is and flagged.`,
	Args: cobra.ExactArgs(1),
	RunE: runCOGS,
}

var payInvoiceCmd = &cobra.Command{
	Use:   "pay-invoice [invoice-id]",
	Short: "Mark an invoice paid and book its revenue",
	Long: `Mark an invoice paid and create its revenue bookkeeping entry.

The entry carries the invoice COGS as of the payment; later product cost
changes do not alter it. Paying an already booked invoice returns the
existing entry.`,
	Example: `  bookkeeper pay-invoice 1f0c... --date 2025-03-14`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPayInvoice,
}

func init() {
	rootCmd.AddCommand(cogsCmd)
	rootCmd.AddCommand(payInvoiceCmd)

	cogsCmd.Flags().Bool("json", false, "Output as JSON format")
	payInvoiceCmd.Flags().String("date", "", "Payment day (format: YYYY-MM-DD, default: now)")
}

func runCOGS(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.InvoiceCOGS(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	printBanner("COGS " + result.InvoiceID)
	tw := newTable()
	fmt.Fprintln(tw, "Item\tProduct\tQuantity\tUnit cost\tCost\tCurrency\t")
	for _, l := range result.Lines {
		product := l.ProductID
		if !l.Matched {
			product += " (unmatched)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			l.ItemID, product, l.Quantity.String(), l.UnitCost.StringFixed(2), l.Cost.StringFixed(2), l.Currency)
	}
	fmt.Fprintf(tw, "Total\t\t\t\t%s\t%s\t\n", result.Total.StringFixed(2), result.Currency)
	if err := tw.Flush(); err != nil {
		return err
	}
	if result.MixedCurrencyWarning {
		fmt.Println("Warning: products are costed in more than one currency, the total is not converted")
	}
	return nil
}

func runPayInvoice(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pay-invoice")

	dateStr, _ := cmd.Flags().GetString("date")
	paidAt := time.Now().UTC()
	if dateStr != "" {
		day, err := parseDay("date", dateStr)
		if err != nil {
			return err
		}
		paidAt = day
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, created, err := booking.NewRecorder(a.store).RecordInvoicePayment(ctx, args[0], paidAt)
	if err != nil {
		return err
	}

	log.Info().
		Str("invoice_id", args[0]).
		Str("entry_id", entry.ID).
		Bool("created", created).
		Msg("Invoice payment processed")

	if !created {
		fmt.Printf("Invoice already booked as entry %s\n", entry.ID)
		return nil
	}
	fmt.Printf("Booked entry %s: %s %s revenue, COGS %s\n",
		entry.ID, entry.Amount.StringFixed(2), entry.Currency, entry.COGS.StringFixed(2))
	return nil
}
