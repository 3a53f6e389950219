package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	HTTPPort string

	// Interest configuration
	DayCountBasis    int64  // Divisor converting an annual rate to a daily one (365 or 366)
	AccrualBatchSize int    // Accounts fetched and processed per page
	AccrualWorkers   int    // Bounded worker pool size for per-account writes
	AccrualTimezone  string // Zone in which calendar dates are evaluated
	UseRowLocks      bool   // Lock rows instead of relying on the version check alone

	// Scheduler configuration
	DailyAccrualCron string // Cron spec for the daily job

	// Environment
	Environment string // "development", "production" or "test"

	location *time.Location
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPPort:    os.Getenv("HTTP_PORT"),

		// Interest settings with defaults
		DayCountBasis:    365,
		AccrualBatchSize: 100,
		AccrualWorkers:   1,
		AccrualTimezone:  "UTC",
		UseRowLocks:      os.Getenv("ACCRUAL_USE_ROW_LOCKS") == "true",

		DailyAccrualCron: "59 23 * * *",

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if basis := os.Getenv("DAY_COUNT_BASIS"); basis != "" {
		parsed, err := strconv.ParseInt(basis, 10, 64)
		if err != nil || (parsed != 365 && parsed != 366) {
			return nil, fmt.Errorf("DAY_COUNT_BASIS must be 365 or 366, got %q", basis)
		}
		config.DayCountBasis = parsed
	}
	if size := os.Getenv("ACCRUAL_BATCH_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 {
			config.AccrualBatchSize = parsed
		}
	}
	if workers := os.Getenv("ACCRUAL_WORKERS"); workers != "" {
		if parsed, err := strconv.Atoi(workers); err == nil && parsed > 0 {
			config.AccrualWorkers = parsed
		}
	}
	if zone := os.Getenv("ACCRUAL_TIMEZONE"); zone != "" {
		config.AccrualTimezone = zone
	}
	if cronSpec := os.Getenv("DAILY_ACCRUAL_CRON"); cronSpec != "" {
		config.DailyAccrualCron = cronSpec
	}

	loc, err := time.LoadLocation(config.AccrualTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ACCRUAL_TIMEZONE %q: %w", config.AccrualTimezone, err)
	}
	config.location = loc

	if config.HTTPPort == "" {
		config.HTTPPort = "8080"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// Location returns the timezone in which accrual dates are evaluated
func (c *Config) Location() *time.Location {
	if c.location == nil {
		loc, err := time.LoadLocation(c.AccrualTimezone)
		if err != nil {
			return time.UTC
		}
		c.location = loc
	}
	return c.location
}
