package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
)

const maxJobTitleLength = 200

// JobService publishes job postings under the recruiter's plan.
type JobService interface {
	// Publish checks the recruiter's posting quota, creates the job and then
	// records the usage.
	// Returns domain.EPAYMENT when the quota is exhausted and
	// domain.EUNAVAILABLE when the subscription could not be read.
	Publish(ctx context.Context, recruiterID uuid.UUID, params domain.PublishJobParams) (*domain.Job, error)
}

type jobService struct {
	jobs          JobStore
	subscriptions SubscriptionService
	entitlements  EntitlementService
	usage         UsageService
	logger        *slog.Logger
	now           func() time.Time
}

// NewJobService creates a new JobService.
func NewJobService(
	jobs JobStore,
	subscriptions SubscriptionService,
	entitlements EntitlementService,
	usage UsageService,
	logger *slog.Logger,
) JobService {
	return &jobService{
		jobs:          jobs,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		usage:         usage,
		logger:        logger,
		now:           systemClock,
	}
}

func (s *jobService) Publish(ctx context.Context, recruiterID uuid.UUID, params domain.PublishJobParams) (*domain.Job, error) {
	const op = "job.publish"

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, domain.Invalid(op, "title is required")
	}
	if len(title) > maxJobTitleLength {
		return nil, domain.Invalid(op, "title must be 200 characters or less")
	}

	res, err := s.subscriptions.ResolveActiveForRole(ctx, recruiterID, domain.RoleRecruiter)
	if err != nil {
		return nil, err
	}
	if res.IsFallback() {
		return nil, domain.Unavailable(nil, op)
	}
	sub := res.Subscription

	if err := s.entitlements.CheckPosting(sub).Err(op); err != nil {
		return nil, err
	}

	now := s.now()
	featured := domain.IsFeaturedPlan(sub.Plan)
	row, err := s.jobs.CreateJob(ctx, repository.CreateJobParams{
		ID:          uuid.New(),
		RecruiterID: recruiterID,
		Title:       title,
		Status:      string(domain.JobStatusActive),
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		ExpiresAt:   sql.NullTime{Time: domain.JobExpiry(sub.Plan, now), Valid: true},
		IsFeatured:  featured,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create job")
	}

	s.usage.RecordJobPosting(ctx, recruiterID, domain.RoleRecruiter)
	if featured {
		s.usage.RecordFeaturedJob(ctx, recruiterID, domain.RoleRecruiter)
	}

	metrics.JobsPublished.WithLabelValues(string(sub.Plan)).Inc()
	s.logger.Info("Job published",
		"job_id", row.ID,
		"recruiter_id", recruiterID,
		"plan", sub.Plan,
		"featured", featured,
	)

	job := toDomainJob(row)
	return &job, nil
}

func toDomainJob(r repository.Job) domain.Job {
	return domain.Job{
		ID:          r.ID,
		RecruiterID: r.RecruiterID,
		Title:       r.Title,
		Status:      domain.JobStatus(r.Status),
		PublishedAt: r.PublishedAt.Time,
		ExpiresAt:   r.ExpiresAt.Time,
		IsFeatured:  r.IsFeatured,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
