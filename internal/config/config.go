package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bookkeeper/internal/logger"
)

type Config struct {
	// Database Configuration
	DBDriver      string // sqlite or postgres
	DBDSN         string
	DBAutoMigrate bool
	DBLogSQL      bool

	// Engine Configuration
	CacheTTL      time.Duration
	ReportWorkers int

	// Optional: Google Sheets import/export
	GoogleSheetURL string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	cacheTTL, err := getEnvInt("CACHE_TTL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("REPORT_WORKERS", 8)
	if err != nil {
		return nil, err
	}

	config := &Config{
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:          getEnv("DB_DSN", "bookkeeper.db"),
		DBAutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
		DBLogSQL:       getEnvBool("DB_LOG_SQL", false),
		CacheTTL:       time.Duration(cacheTTL) * time.Second,
		ReportWorkers:  workers,
		GoogleSheetURL: getEnv("GOOGLE_SHEET_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be 'sqlite' or 'postgres', got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must not be negative")
	}
	if c.ReportWorkers <= 0 {
		return fmt.Errorf("REPORT_WORKERS must be positive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "":
		return defaultValue
	case "false", "0", "no":
		return false
	default:
		return true
	}
}
