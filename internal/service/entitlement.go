package service

import (
	"log/slog"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
)

// EntitlementService answers "may this subscription do X?" from the
// subscription alone. It never touches storage.
type EntitlementService interface {
	CheckPosting(sub domain.Subscription) domain.PermissionResult
	CheckCVCreation(sub domain.Subscription) domain.PermissionResult
}

type entitlementService struct {
	logger *slog.Logger
}

// NewEntitlementService creates a new EntitlementService.
func NewEntitlementService(logger *slog.Logger) EntitlementService {
	return &entitlementService{logger: logger}
}

func (s *entitlementService) CheckPosting(sub domain.Subscription) domain.PermissionResult {
	return s.observe(sub, domain.CheckPosting(sub))
}

func (s *entitlementService) CheckCVCreation(sub domain.Subscription) domain.PermissionResult {
	return s.observe(sub, domain.CheckCVCreation(sub))
}

func (s *entitlementService) observe(sub domain.Subscription, result domain.PermissionResult) domain.PermissionResult {
	metrics.Checked(string(result.Quota), result.Allowed)
	if !result.Allowed {
		s.logger.Info("Entitlement denied",
			"user_id", sub.UserID,
			"role", sub.Role,
			"plan", sub.Plan,
			"quota", result.Quota,
			"used", result.Used,
			"limit", result.Limit.String(),
		)
	}
	return result
}
