package worker

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds the configuration for the scheduled task runner.
type Config struct {
	// JobTimeout is the maximum time a single task run is allowed to take.
	// If a run exceeds this timeout, its context is canceled and it's recorded as failed.
	// Default: 5 minutes
	JobTimeout time.Duration

	// ShutdownTimeout is how long to wait for running tasks to complete during graceful shutdown.
	// After this timeout, running tasks have their context canceled.
	// Default: 30 seconds
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		JobTimeout:      5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any values are invalid.
func (c Config) Validate() error {
	if c.JobTimeout < 1*time.Second {
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	}
	if c.ShutdownTimeout < 1*time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	return nil
}

// ValidateSchedule checks a standard five-field cron expression or a
// descriptor such as "@daily" or "@every 1h".
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}
