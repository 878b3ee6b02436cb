package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
)

// UsageService counts consumption after an action succeeds.
//
// Recording is fire-and-forget: the action being counted has already
// happened, so failures are logged and never returned. Each call is a single
// atomic increment in storage, so concurrent calls never lose counts.
type UsageService interface {
	RecordJobPosting(ctx context.Context, userID uuid.UUID, role domain.Role)
	RecordFeaturedJob(ctx context.Context, userID uuid.UUID, role domain.Role)
	RecordCVCreation(ctx context.Context, userID uuid.UUID, role domain.Role)
	RecordCVDownload(ctx context.Context, userID uuid.UUID, role domain.Role)
	RecordPremiumTemplate(ctx context.Context, userID uuid.UUID, role domain.Role)
}

type usageService struct {
	store  UsageStore
	logger *slog.Logger
}

// NewUsageService creates a new UsageService.
func NewUsageService(store UsageStore, logger *slog.Logger) UsageService {
	return &usageService{store: store, logger: logger}
}

func (s *usageService) RecordJobPosting(ctx context.Context, userID uuid.UUID, role domain.Role) {
	s.record(ctx, userID, role, domain.QuotaTypeJobPostings)
}

func (s *usageService) RecordFeaturedJob(ctx context.Context, userID uuid.UUID, role domain.Role) {
	s.record(ctx, userID, role, domain.QuotaTypeFeaturedJobs)
}

func (s *usageService) RecordCVCreation(ctx context.Context, userID uuid.UUID, role domain.Role) {
	s.record(ctx, userID, role, domain.QuotaTypeCVCreations)
}

func (s *usageService) RecordCVDownload(ctx context.Context, userID uuid.UUID, role domain.Role) {
	s.record(ctx, userID, role, domain.QuotaTypeCVDownloads)
}

func (s *usageService) RecordPremiumTemplate(ctx context.Context, userID uuid.UUID, role domain.Role) {
	s.record(ctx, userID, role, domain.QuotaTypePremiumTemplates)
}

func (s *usageService) record(ctx context.Context, userID uuid.UUID, role domain.Role, quota domain.QuotaType) {
	value, err := s.store.IncrementSubscriptionUsage(ctx, repository.IncrementSubscriptionUsageParams{
		UserID:  userID,
		Role:    string(role),
		Counter: string(quota),
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.UsageIncrement(string(quota), "missing")
		s.logger.Warn("No subscription to record usage against",
			"user_id", userID,
			"role", role,
			"counter", quota,
		)
	case err != nil:
		metrics.UsageIncrement(string(quota), "error")
		s.logger.Error("Failed to record usage",
			"user_id", userID,
			"role", role,
			"counter", quota,
			"error", err,
		)
	default:
		metrics.UsageIncrement(string(quota), "ok")
		s.logger.Debug("Recorded usage",
			"user_id", userID,
			"role", role,
			"counter", quota,
			"value", value,
		)
	}
}
