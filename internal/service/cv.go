package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
)

// CVService creates CVs under the job seeker's plan.
type CVService interface {
	// Create checks the CV creation quota, creates the CV and records usage.
	// Premium templates require a paid plan (domain.EFORBIDDEN otherwise).
	Create(ctx context.Context, ownerID uuid.UUID, params domain.CreateCVParams) (*domain.CV, error)
}

type cvService struct {
	cvs           CVStore
	subscriptions SubscriptionService
	entitlements  EntitlementService
	usage         UsageService
	logger        *slog.Logger
	now           func() time.Time
}

// NewCVService creates a new CVService.
func NewCVService(
	cvs CVStore,
	subscriptions SubscriptionService,
	entitlements EntitlementService,
	usage UsageService,
	logger *slog.Logger,
) CVService {
	return &cvService{
		cvs:           cvs,
		subscriptions: subscriptions,
		entitlements:  entitlements,
		usage:         usage,
		logger:        logger,
		now:           systemClock,
	}
}

func (s *cvService) Create(ctx context.Context, ownerID uuid.UUID, params domain.CreateCVParams) (*domain.CV, error) {
	const op = "cv.create"

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, domain.Invalid(op, "title is required")
	}
	if params.TemplateID == "" {
		return nil, domain.Invalid(op, "template is required")
	}

	res, err := s.subscriptions.ResolveActiveForRole(ctx, ownerID, domain.RoleJobSeeker)
	if err != nil {
		return nil, err
	}
	if res.IsFallback() {
		return nil, domain.Unavailable(nil, op)
	}
	sub := res.Subscription

	if err := s.entitlements.CheckCVCreation(sub).Err(op); err != nil {
		return nil, err
	}
	if params.IsPremiumTemplate && sub.Plan == domain.PlanFree {
		return nil, domain.Forbidden(op, "Premium templates require a paid plan.")
	}

	row, err := s.cvs.CreateCV(ctx, repository.CreateCVParams{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Title:             title,
		TemplateID:        params.TemplateID,
		IsPremiumTemplate: params.IsPremiumTemplate,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create CV")
	}

	s.usage.RecordCVCreation(ctx, ownerID, domain.RoleJobSeeker)
	if params.IsPremiumTemplate {
		s.usage.RecordPremiumTemplate(ctx, ownerID, domain.RoleJobSeeker)
	}

	metrics.CVsCreated.Inc()
	s.logger.Info("CV created", "cv_id", row.ID, "owner_id", ownerID, "plan", sub.Plan)

	return &domain.CV{
		ID:                row.ID,
		OwnerID:           row.OwnerID,
		Title:             row.Title,
		TemplateID:        row.TemplateID,
		IsPremiumTemplate: row.IsPremiumTemplate,
		CreatedAt:         row.CreatedAt,
	}, nil
}
