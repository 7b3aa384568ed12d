package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"bookkeeper/internal/cache"
	"bookkeeper/internal/config"
	"bookkeeper/internal/ledger"
	"bookkeeper/internal/logger"
	"bookkeeper/internal/store"
	"bookkeeper/pkg/models"
)

// app holds everything a command needs, wired from configuration
type app struct {
	cfg    *config.Config
	db     *gorm.DB
	cache  *cache.Memory
	store  *store.Gorm
	engine *ledger.Engine
	log    zerolog.Logger
}

// openApp opens the database and builds the engine. Store writes invalidate
// the engine cache through the cache invalidator.
func openApp(ctx context.Context) (*app, error) {
	const op = "openApp"
	log := logger.WithComponent("app")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := store.OpenDatabase(store.DatabaseConfig{
		Driver:  cfg.DBDriver,
		DSN:     cfg.DBDSN,
		LogMode: cfg.DBLogSQL,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.DBAutoMigrate {
		if err := store.Migrate(db); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	c := cache.NewMemory()
	if cfg.CacheTTL > 0 {
		c.StartJanitor(ctx, cfg.CacheTTL)
	}
	s := store.NewGorm(db, cache.NewInvalidator(c))

	log.Debug().
		Str("driver", cfg.DBDriver).
		Dur("cache_ttl", cfg.CacheTTL).
		Int("workers", cfg.ReportWorkers).
		Msg("Application wired")

	return &app{
		cfg:    cfg,
		db:     db,
		cache:  c,
		store:  s,
		engine: ledger.NewEngine(s, c, ledger.Options{CacheTTL: cfg.CacheTTL, Workers: cfg.ReportWorkers}),
		log:    log,
	}, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close database")
	}
}

// parseDay parses a YYYY-MM-DD flag value as a UTC calendar day
func parseDay(flag, value string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, use YYYY-MM-DD: %w", flag, value, err)
	}
	return day, nil
}

// asOfFlag returns the end of the given day, or nil when the flag is empty
func asOfFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := parseDay("as-of", value)
	if err != nil {
		return nil, err
	}
	asOf := ledger.EndOfDay(day)
	return &asOf, nil
}

func accountKeyFlags(id, accountType string) (models.AccountKey, error) {
	if strings.TrimSpace(id) == "" {
		return models.AccountKey{}, fmt.Errorf("--account-id is required")
	}
	t, err := models.ParseAccountType(accountType)
	if err != nil {
		return models.AccountKey{}, err
	}
	return models.AccountKey{ID: id, Type: t}, nil
}
