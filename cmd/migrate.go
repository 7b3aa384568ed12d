package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookkeeper/internal/config"
	"bookkeeper/internal/logger"
	"bookkeeper/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update every ledger table in the configured database.

Environment variables:
  DB_DRIVER - sqlite (default) or postgres
  DB_DSN    - database file or connection string (default: bookkeeper.db)`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("migrate")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := store.OpenDatabase(store.DatabaseConfig{Driver: cfg.DBDriver, DSN: cfg.DBDSN, LogMode: cfg.DBLogSQL})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := store.Migrate(db); err != nil {
		return err
	}

	log.Info().Str("driver", cfg.DBDriver).Msg("Schema migrated")
	fmt.Println("Schema is up to date")
	return nil
}
