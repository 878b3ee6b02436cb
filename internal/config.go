package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string

	// Worker Configuration
	WorkerEnabled         bool
	WorkerJobTimeout      time.Duration
	WorkerShutdownTimeout time.Duration

	// WorkerCatchUp runs every maintenance task once at startup
	WorkerCatchUp bool

	// Cron schedules for the maintenance tasks (standard 5-field syntax or
	// descriptors such as "@hourly")
	SweepSchedule     string
	JobExpirySchedule string

	// SweepBatchSize is how many expired subscriptions the sweep loads per page
	SweepBatchSize int

	// DefaultCurrency is used for plan changes that do not name one
	DefaultCurrency string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Worker defaults
		WorkerEnabled:         getEnvBool("WORKER_ENABLED", true),
		WorkerJobTimeout:      getEnvDuration("WORKER_JOB_TIMEOUT", 5*time.Minute),
		WorkerShutdownTimeout: getEnvDuration("WORKER_SHUTDOWN_TIMEOUT", 30*time.Second),
		WorkerCatchUp:         getEnvBool("WORKER_CATCH_UP", true),

		// Sweep daily at 03:00, expire listings hourly
		SweepSchedule:     getEnv("SWEEP_SCHEDULE", "0 3 * * *"),
		JobExpirySchedule: getEnv("JOB_EXPIRY_SCHEDULE", "@hourly"),
		SweepBatchSize:    getEnvInt("SWEEP_BATCH_SIZE", 100),

		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	if cfg.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Validate schedules
	if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
		return nil, fmt.Errorf("SWEEP_SCHEDULE is invalid: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.JobExpirySchedule); err != nil {
		return nil, fmt.Errorf("JOB_EXPIRY_SCHEDULE is invalid: %w", err)
	}

	if cfg.SweepBatchSize < 1 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be at least 1, got: %d", cfg.SweepBatchSize)
	}

	if len(cfg.DefaultCurrency) != 3 {
		return nil, fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter ISO code, got: %s", cfg.DefaultCurrency)
	}

	// Credentials are all or nothing
	if (cfg.MetricsUsername == "") != (cfg.MetricsPassword == "") {
		return nil, fmt.Errorf("METRICS_USERNAME and METRICS_PASSWORD must be set together")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
