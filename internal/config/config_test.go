package config

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DB_DSN", "DB_AUTO_MIGRATE", "CACHE_TTL_SECONDS", "REPORT_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "bookkeeper.db", cfg.DBDSN)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.ReportWorkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "host=localhost dbname=books")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("CACHE_TTL_SECONDS", "0")
	t.Setenv("REPORT_WORKERS", "3")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL)
	assert.Equal(t, 3, cfg.ReportWorkers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("REPORT_WORKERS", "many")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("REPORT_WORKERS", "0")
	_, err = Load()
	assert.Error(t, err)
}
