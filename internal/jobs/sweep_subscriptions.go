// Package jobs contains the scheduled task handlers run by the worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/hirewell/internal/service"
	"github.com/DukeRupert/hirewell/internal/worker"
)

// SubscriptionSweeper downgrades expired subscriptions in bulk.
type SubscriptionSweeper interface {
	SweepExpiredSubscriptions(ctx context.Context) (service.SweepResult, error)
}

// SweepSubscriptionsHandler moves every expired active subscription to the
// free tier so stale paid plans do not linger for users who never come back.
type SweepSubscriptionsHandler struct {
	sweeper SubscriptionSweeper
	logger  *slog.Logger
}

// NewSweepSubscriptionsHandler creates a new handler for the expiry sweep.
func NewSweepSubscriptionsHandler(sweeper SubscriptionSweeper, logger *slog.Logger) *SweepSubscriptionsHandler {
	return &SweepSubscriptionsHandler{
		sweeper: sweeper,
		logger:  logger,
	}
}

// Type returns the task identifier.
func (h *SweepSubscriptionsHandler) Type() string {
	return worker.TaskSweepExpiredSubscriptions
}

// Handle runs one sweep. Rows that failed are retried on the next run, so
// they are reported but do not fail the task.
func (h *SweepSubscriptionsHandler) Handle(ctx context.Context) error {
	result, err := h.sweeper.SweepExpiredSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired subscriptions: %w", err)
	}

	if result.Failed > 0 {
		h.logger.Warn("Some expired subscriptions were not downgraded",
			"failed", result.Failed,
			"downgraded", result.Downgraded,
		)
	}
	return nil
}
