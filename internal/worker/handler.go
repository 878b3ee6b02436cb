package worker

import "context"

// Task type identifiers. These must match the JobHandler.Type() values.
const (
	TaskSweepExpiredSubscriptions = "sweep_expired_subscriptions"
	TaskExpireJobListings         = "expire_job_listings"
)

// JobHandler defines the interface that all scheduled tasks must implement.
type JobHandler interface {
	// Type returns the task identifier used in logs and metrics.
	Type() string

	// Handle runs the task once. The context carries the configured
	// JobTimeout and is canceled on shutdown.
	Handle(ctx context.Context) error
}
