package service

import (
	"context"
	"errors"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
)

// SweepResult summarizes one run of the expiry sweep.
type SweepResult struct {
	// Scanned is the number of expired active subscriptions found.
	Scanned int
	// Downgraded is the number moved to the free tier by this run.
	Downgraded int
	// Skipped were already handled by a concurrent resolver.
	Skipped int
	// Failed could not be downgraded and are retried next run.
	Failed int
}

// SweepExpiredSubscriptions downgrades expired active subscriptions page by
// page. A failure on one row is logged and does not stop the sweep.
func (s *subscriptionService) SweepExpiredSubscriptions(ctx context.Context) (SweepResult, error) {
	const op = "subscription.sweep"

	now := s.now()
	var (
		result  SweepResult
		afterID = uuid.Nil
	)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := s.store.ListExpiredActiveSubscriptions(ctx, repository.ListExpiredActiveSubscriptionsParams{
			Now:     now,
			AfterID: afterID,
			Limit:   int32(s.config.SweepBatchSize),
		})
		if err != nil {
			return result, domain.Internal(err, op, "failed to list expired subscriptions")
		}

		for _, row := range page {
			afterID = row.ID
			result.Scanned++

			prev := toDomainSubscription(row)
			_, err := s.downgrade(ctx, prev, now)
			switch {
			case errors.Is(err, errConcurrentUpdate):
				result.Skipped++
			case err != nil:
				result.Failed++
				s.logger.Error("Failed to downgrade expired subscription",
					"subscription_id", prev.ID,
					"user_id", prev.UserID,
					"role", prev.Role,
					"error", err,
				)
			default:
				result.Downgraded++
				metrics.Downgraded("sweep")
			}
		}

		if len(page) < s.config.SweepBatchSize {
			break
		}
	}

	s.logger.Info("Expired subscription sweep finished",
		"scanned", result.Scanned,
		"downgraded", result.Downgraded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
