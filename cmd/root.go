package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"bookkeeper/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "bookkeeper",
	Short: "Bookkeeper - ledger balances, cashflow and COGS",
	Long: `Bookkeeper resolves account balances, aggregates cashflow and computes
cost of goods sold over a company ledger stored in SQLite or PostgreSQL.

Accounts are bank accounts or wallets; wallets may hold several currencies.
Balances and cashflow are always reported per currency.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		stop()
		os.Exit(1)
	}
}
