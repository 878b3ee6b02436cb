package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
)

// ListingService manages the lifetime of published job listings.
type ListingService interface {
	// ExtendActiveJobs pushes the expiry of every active or paused job the
	// recruiter owns forward by the new plan's listing duration. It returns
	// how many jobs were extended. It is a no-op for the free plan. Jobs
	// that vanish or fail to update are skipped; only a failed listing
	// returns an error.
	ExtendActiveJobs(ctx context.Context, userID uuid.UUID, newPlan domain.Plan) (int, error)

	// ExpireJobListings marks active listings past their expiry as expired.
	ExpireJobListings(ctx context.Context) (int64, error)
}

type listingService struct {
	jobs   JobStore
	logger *slog.Logger
	now    func() time.Time
}

// NewListingService creates a new ListingService.
func NewListingService(jobs JobStore, logger *slog.Logger) ListingService {
	return &listingService{
		jobs:   jobs,
		logger: logger,
		now:    systemClock,
	}
}

func extendableStatuses() []string {
	statuses := make([]string, len(domain.ExtendableJobStatuses))
	for i, s := range domain.ExtendableJobStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

func (s *listingService) ExtendActiveJobs(ctx context.Context, userID uuid.UUID, newPlan domain.Plan) (int, error) {
	const op = "listing.extend_active_jobs"

	if !newPlan.Valid() || newPlan == domain.PlanFree {
		return 0, nil
	}

	statuses := extendableStatuses()
	jobs, err := s.jobs.ListJobsByRecruiterAndStatuses(ctx, repository.ListJobsByRecruiterAndStatusesParams{
		RecruiterID: userID,
		Statuses:    statuses,
	})
	if err != nil {
		return 0, domain.Internal(err, op, "failed to list jobs")
	}

	days := int32(domain.JobListingDurationDays(newPlan))
	extended := 0
	for _, job := range jobs {
		_, err := s.jobs.ExtendJobExpiry(ctx, repository.ExtendJobExpiryParams{
			ID:       job.ID,
			Days:     days,
			Statuses: statuses,
		})
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("Job no longer extendable, skipping", "job_id", job.ID)
			continue
		}
		if err != nil {
			s.logger.Warn("Failed to extend job, skipping", "job_id", job.ID, "error", err)
			continue
		}
		extended++
	}

	metrics.JobsExtended.Add(float64(extended))
	s.logger.Info("Extended job listings",
		"user_id", userID,
		"plan", newPlan,
		"days", days,
		"extended", extended,
	)
	return extended, nil
}

func (s *listingService) ExpireJobListings(ctx context.Context) (int64, error) {
	const op = "listing.expire_job_listings"

	n, err := s.jobs.ExpireJobListings(ctx, s.now())
	if err != nil {
		return 0, domain.Internal(err, op, "failed to expire job listings")
	}
	metrics.JobListingsExpired.Add(float64(n))
	if n > 0 {
		s.logger.Info("Expired job listings", "count", n)
	}
	return n, nil
}
