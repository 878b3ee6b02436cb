// Package service contains the business logic layer.
//
// This file implements subscription resolution: finding the user's active
// entitlement for a role, creating the free tier on first use and lazily
// downgrading expired subscriptions. It also owns plan changes.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/hirewell/internal/domain"
	"github.com/DukeRupert/hirewell/internal/metrics"
	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const (
	// DefaultSweepBatchSize is how many expired subscriptions the sweep loads per page.
	DefaultSweepBatchSize = 100

	// MaxSweepBatchSize caps the sweep page size.
	MaxSweepBatchSize = 1000

	// maxResolveAttempts bounds re-reads after losing a conditional write to
	// a concurrent request or the sweep.
	maxResolveAttempts = 3
)

// errConcurrentUpdate signals that a conditional write matched no row because
// another writer changed it first. Resolution re-reads and tries again.
var errConcurrentUpdate = errors.New("subscription changed concurrently")

// =============================================================================
// Interface Definition
// =============================================================================

// SubscriptionService resolves and manages subscriptions.
type SubscriptionService interface {
	// ResolveActiveForRole returns the user's active subscription for role.
	// A missing or non-active subscription becomes a fresh free tier and an
	// expired one is downgraded in place. Storage failures never surface:
	// the result is then a ResolutionFallback free tier that was not persisted.
	ResolveActiveForRole(ctx context.Context, userID uuid.UUID, role domain.Role) (domain.Resolution, error)

	// ResolveActiveInferringRole looks up the user's account role first.
	// Returns domain.ENOTFOUND if the user does not exist.
	ResolveActiveInferringRole(ctx context.Context, userID uuid.UUID) (domain.Resolution, error)

	// ChangePlan starts a new billing cycle on a plan. Upgrades by a
	// recruiter extend their open job listings.
	// Returns domain.EINVALID for an unknown role, plan or billing period.
	ChangePlan(ctx context.Context, params domain.ChangePlanParams) (*domain.Subscription, error)

	// SetAutoRenew toggles renewal at the end of the current cycle.
	// Returns domain.ENOTFOUND if the subscription does not exist.
	SetAutoRenew(ctx context.Context, userID uuid.UUID, role domain.Role, autoRenew bool) (*domain.Subscription, error)

	// Usage returns the resolved plan's consumption for dashboards.
	// Returns domain.EUNAVAILABLE if storage could not be read.
	Usage(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.UsageSummary, error)

	// SweepExpiredSubscriptions downgrades every active subscription past its
	// end date. It is run by the scheduler, never by request handlers.
	SweepExpiredSubscriptions(ctx context.Context) (SweepResult, error)
}

// SubscriptionServiceConfig holds tunables for the subscription service.
type SubscriptionServiceConfig struct {
	// DefaultCurrency is used when a plan change does not name one.
	DefaultCurrency string

	// SweepBatchSize is the page size of the expiry sweep.
	SweepBatchSize int
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	store    SubscriptionStore
	users    UserDirectory
	listings ListingService
	logger   *slog.Logger
	config   SubscriptionServiceConfig
	now      func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	store SubscriptionStore,
	users UserDirectory,
	listings ListingService,
	logger *slog.Logger,
	config SubscriptionServiceConfig,
) SubscriptionService {
	return &subscriptionService{
		store:    store,
		users:    users,
		listings: listings,
		logger:   logger,
		config:   normalizeConfig(config),
		now:      systemClock,
	}
}

func normalizeConfig(cfg SubscriptionServiceConfig) SubscriptionServiceConfig {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = domain.DefaultCurrency
	}
	cfg.SweepBatchSize = normalizeSweepBatchSize(cfg.SweepBatchSize)
	return cfg
}

func normalizeSweepBatchSize(n int) int {
	switch {
	case n <= 0:
		return DefaultSweepBatchSize
	case n > MaxSweepBatchSize:
		return MaxSweepBatchSize
	}
	return n
}

// ResolveActiveForRole returns the user's active subscription for role.
func (s *subscriptionService) ResolveActiveForRole(ctx context.Context, userID uuid.UUID, role domain.Role) (domain.Resolution, error) {
	const op = "subscription.resolve"

	if !role.Valid() {
		return domain.Resolution{}, domain.Invalid(op, fmt.Sprintf("unknown role %q", role))
	}

	res, err := s.resolve(ctx, userID, role)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return domain.Resolution{}, err
		}
		// Fail closed: free-tier limits for this call only, nothing persisted.
		s.logger.Error("Subscription resolution failed, falling back to free tier",
			"user_id", userID,
			"role", role,
			"error", err,
		)
		res = domain.Resolution{
			Outcome:      domain.ResolutionFallback,
			Subscription: domain.NewFreeSubscription(userID, role, s.now()),
		}
	}

	metrics.Resolved(string(res.Outcome))
	if res.Outcome == domain.ResolutionDowngraded {
		metrics.Downgraded("resolver")
	}
	return res, nil
}

// ResolveActiveInferringRole resolves the subscription for the user's account role.
func (s *subscriptionService) ResolveActiveInferringRole(ctx context.Context, userID uuid.UUID) (domain.Resolution, error) {
	const op = "subscription.resolve_inferring_role"

	raw, err := s.users.GetUserRole(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Resolution{}, domain.UserNotFound(op, userID.String())
		}
		return domain.Resolution{}, domain.Internal(err, op, "failed to look up user role")
	}

	role, err := domain.ParseRole(raw)
	if err != nil {
		return domain.Resolution{}, domain.Internal(err, op, "user has an unknown role")
	}

	return s.ResolveActiveForRole(ctx, userID, role)
}

// resolve retries resolveOnce when it loses a conditional write. The retry
// re-reads the row the winner wrote.
func (s *subscriptionService) resolve(ctx context.Context, userID uuid.UUID, role domain.Role) (domain.Resolution, error) {
	var err error
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		var res domain.Resolution
		res, err = s.resolveOnce(ctx, userID, role, s.now())
		if !errors.Is(err, errConcurrentUpdate) {
			return res, err
		}
		s.logger.Debug("Subscription changed during resolution, re-reading",
			"user_id", userID,
			"role", role,
			"attempt", attempt+1,
		)
	}
	return domain.Resolution{}, err
}

func (s *subscriptionService) resolveOnce(ctx context.Context, userID uuid.UUID, role domain.Role, now time.Time) (domain.Resolution, error) {
	row, err := s.store.GetSubscriptionByUserAndRole(ctx, repository.GetSubscriptionByUserAndRoleParams{
		UserID: userID,
		Role:   string(role),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return s.createFree(ctx, userID, role, now)
	}
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("get subscription: %w", err)
	}

	sub := toDomainSubscription(row)
	switch {
	case sub.Status != domain.SubscriptionStatusActive:
		return s.resetInactive(ctx, sub, now)
	case sub.IsExpired(now):
		return s.downgradeExpired(ctx, sub, now)
	}

	return domain.Resolution{Outcome: domain.ResolutionUnchanged, Subscription: sub}, nil
}

// createFree inserts the fallback free tier. Losing the insert race to a
// concurrent request is not an error: the caller re-reads the winner's row.
func (s *subscriptionService) createFree(ctx context.Context, userID uuid.UUID, role domain.Role, now time.Time) (domain.Resolution, error) {
	const op = "subscription.create_free"

	fresh := domain.NewFreeSubscription(userID, role, now)
	row, err := s.store.InsertSubscriptionIfAbsent(ctx, repository.InsertSubscriptionParams{
		ID:            fresh.ID,
		UserID:        fresh.UserID,
		Role:          string(fresh.Role),
		Plan:          string(fresh.Plan),
		Status:        string(fresh.Status),
		StartDate:     fresh.StartDate,
		EndDate:       fresh.EndDate,
		BillingPeriod: string(fresh.BillingPeriod),
		PriceCents:    fresh.PriceCents,
		Currency:      fresh.Currency,
		AutoRenew:     fresh.AutoRenew,
		PaymentMethod: fresh.PaymentMethod,
		Now:           now,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Resolution{}, errConcurrentUpdate
	}
	if repository.IsForeignKeyViolation(err) {
		return domain.Resolution{}, domain.UserNotFound(op, userID.String())
	}
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("insert free subscription: %w", err)
	}

	sub := toDomainSubscription(row)
	s.logger.Info("Created free subscription", "user_id", userID, "role", role)
	s.recordEvent(ctx, sub, domain.SubscriptionEventCreated, "", nil)
	return domain.Resolution{Outcome: domain.ResolutionCreated, Subscription: sub}, nil
}

func (s *subscriptionService) resetInactive(ctx context.Context, prev domain.Subscription, now time.Time) (domain.Resolution, error) {
	fresh := prev
	fresh.ResetToFree(now)

	row, err := s.store.ResetInactiveSubscription(ctx, repository.ResetInactiveSubscriptionParams{
		UserID:         prev.UserID,
		Role:           string(prev.Role),
		StartDate:      fresh.StartDate,
		EndDate:        fresh.EndDate,
		ExpectedStatus: string(prev.Status),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Resolution{}, errConcurrentUpdate
	}
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("reset inactive subscription: %w", err)
	}

	sub := toDomainSubscription(row)
	s.logger.Info("Reset inactive subscription to free tier",
		"user_id", sub.UserID,
		"role", sub.Role,
		"previous_status", prev.Status,
		"previous_plan", prev.Plan,
	)
	s.recordEvent(ctx, sub, domain.SubscriptionEventReset, prev.Plan, map[string]any{
		"previous_status": prev.Status,
	})
	return domain.Resolution{Outcome: domain.ResolutionReset, Subscription: sub}, nil
}

func (s *subscriptionService) downgradeExpired(ctx context.Context, prev domain.Subscription, now time.Time) (domain.Resolution, error) {
	sub, err := s.downgrade(ctx, prev, now)
	if err != nil {
		return domain.Resolution{}, err
	}
	s.logger.Info("Downgraded expired subscription",
		"user_id", sub.UserID,
		"role", sub.Role,
		"previous_plan", prev.Plan,
		"expired_at", prev.EndDate,
	)
	return domain.Resolution{Outcome: domain.ResolutionDowngraded, Subscription: sub}, nil
}

// downgrade applies the expiry transition shared by the resolver and the
// sweep. It returns errConcurrentUpdate if the row was no longer expired.
func (s *subscriptionService) downgrade(ctx context.Context, prev domain.Subscription, now time.Time) (domain.Subscription, error) {
	fresh := prev
	fresh.ResetToFree(now)

	row, err := s.store.DowngradeExpiredSubscription(ctx, repository.DowngradeExpiredSubscriptionParams{
		UserID:    prev.UserID,
		Role:      string(prev.Role),
		StartDate: fresh.StartDate,
		EndDate:   fresh.EndDate,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subscription{}, errConcurrentUpdate
	}
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("downgrade expired subscription: %w", err)
	}

	sub := toDomainSubscription(row)
	s.recordEvent(ctx, sub, domain.SubscriptionEventDowngraded, prev.Plan, map[string]any{
		"expired_at": prev.EndDate,
	})
	return sub, nil
}

// ChangePlan starts a new billing cycle on a plan.
func (s *subscriptionService) ChangePlan(ctx context.Context, params domain.ChangePlanParams) (*domain.Subscription, error) {
	const op = "subscription.change_plan"

	if !params.Role.Valid() {
		return nil, domain.Invalid(op, fmt.Sprintf("unknown role %q", params.Role))
	}
	if !params.Plan.Valid() {
		return nil, domain.Invalid(op, fmt.Sprintf("unknown plan %q", params.Plan))
	}
	if params.BillingPeriod == "" {
		params.BillingPeriod = domain.BillingMonthly
	}
	if !params.BillingPeriod.Valid() {
		return nil, domain.Invalid(op, fmt.Sprintf("unknown billing period %q", params.BillingPeriod))
	}

	fromPlan := domain.PlanFree
	current, err := s.store.GetSubscriptionByUserAndRole(ctx, repository.GetSubscriptionByUserAndRoleParams{
		UserID: params.UserID,
		Role:   string(params.Role),
	})
	switch {
	case err == nil:
		if prev := toDomainSubscription(current); prev.IsActive(s.now()) {
			fromPlan = prev.Plan
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, domain.Internal(err, op, "failed to load subscription")
	}

	now := s.now()
	end := params.BillingPeriod.End(now)
	paymentMethod := params.PaymentMethod
	if params.Plan == domain.PlanFree {
		params.BillingPeriod = domain.BillingMonthly
		end = now.AddDate(0, 0, domain.FreeTierDays)
		paymentMethod = domain.FreePaymentMethod
	}
	currency := params.Currency
	if currency == "" {
		currency = s.config.DefaultCurrency
	}

	row, err := s.store.UpsertSubscriptionPlan(ctx, repository.UpsertSubscriptionPlanParams{
		ID:            uuid.New(),
		UserID:        params.UserID,
		Role:          string(params.Role),
		Plan:          string(params.Plan),
		StartDate:     now,
		EndDate:       end,
		BillingPeriod: string(params.BillingPeriod),
		PriceCents:    domain.PlanPrice(params.Plan, params.BillingPeriod),
		Currency:      currency,
		AutoRenew:     params.AutoRenew,
		PaymentMethod: paymentMethod,
	})
	if repository.IsForeignKeyViolation(err) {
		return nil, domain.UserNotFound(op, params.UserID.String())
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to change plan")
	}

	sub := toDomainSubscription(row)
	metrics.PlanChanges.WithLabelValues(string(sub.Plan)).Inc()
	s.logger.Info("Subscription plan changed",
		"user_id", sub.UserID,
		"role", sub.Role,
		"from_plan", fromPlan,
		"to_plan", sub.Plan,
		"billing_period", sub.BillingPeriod,
		"end_date", sub.EndDate,
	)
	s.recordEvent(ctx, sub, domain.SubscriptionEventPlanChanged, fromPlan, map[string]any{
		"billing_period": sub.BillingPeriod,
		"price_cents":    sub.PriceCents,
		"currency":       sub.Currency,
	})

	if sub.Role == domain.RoleRecruiter && sub.Plan.Rank() > fromPlan.Rank() {
		// The plan change stands even if listings could not be extended.
		if _, err := s.listings.ExtendActiveJobs(ctx, sub.UserID, sub.Plan); err != nil {
			s.logger.Error("Failed to extend job listings after upgrade",
				"user_id", sub.UserID,
				"plan", sub.Plan,
				"error", err,
			)
		}
	}

	return &sub, nil
}

// SetAutoRenew toggles renewal at the end of the current cycle.
func (s *subscriptionService) SetAutoRenew(ctx context.Context, userID uuid.UUID, role domain.Role, autoRenew bool) (*domain.Subscription, error) {
	const op = "subscription.set_auto_renew"

	row, err := s.store.SetSubscriptionAutoRenew(ctx, repository.SetSubscriptionAutoRenewParams{
		UserID:    userID,
		Role:      string(role),
		AutoRenew: autoRenew,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "subscription", userID.String())
		}
		return nil, domain.Internal(err, op, "failed to update auto-renew")
	}

	sub := toDomainSubscription(row)
	s.recordEvent(ctx, sub, domain.SubscriptionEventAutoRenewChanged, sub.Plan, map[string]any{
		"auto_renew": autoRenew,
	})
	return &sub, nil
}

// Usage returns the resolved plan's consumption.
func (s *subscriptionService) Usage(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.UsageSummary, error) {
	const op = "subscription.usage"

	res, err := s.ResolveActiveForRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if res.IsFallback() {
		return nil, domain.Unavailable(nil, op)
	}

	summary := domain.Summarize(res.Subscription)
	return &summary, nil
}

// recordEvent appends to the subscription history. History is best-effort:
// a failed write is logged and never fails the transition it describes.
func (s *subscriptionService) recordEvent(ctx context.Context, sub domain.Subscription, eventType domain.SubscriptionEventType, fromPlan domain.Plan, details map[string]any) {
	var raw pqtype.NullRawMessage
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("Failed to encode subscription event details", "event", eventType, "error", err)
		} else {
			raw = pqtype.NullRawMessage{RawMessage: b, Valid: true}
		}
	}

	err := s.store.InsertSubscriptionEvent(ctx, repository.InsertSubscriptionEventParams{
		ID:             uuid.New(),
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Role:           string(sub.Role),
		EventType:      string(eventType),
		FromPlan:       string(fromPlan),
		ToPlan:         string(sub.Plan),
		Details:        raw,
		CreatedAt:      s.now(),
	})
	if err != nil {
		s.logger.Warn("Failed to record subscription event",
			"subscription_id", sub.ID,
			"event", eventType,
			"error", err,
		)
	}
}

// =============================================================================
// Conversion helpers
// =============================================================================

func toDomainSubscription(r repository.Subscription) domain.Subscription {
	return domain.Subscription{
		ID:            r.ID,
		UserID:        r.UserID,
		Role:          domain.Role(r.Role),
		Plan:          domain.Plan(r.Plan),
		Status:        domain.SubscriptionStatus(r.Status),
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		BillingPeriod: domain.BillingPeriod(r.BillingPeriod),
		PriceCents:    r.PriceCents,
		Currency:      r.Currency,
		AutoRenew:     r.AutoRenew,
		PaymentMethod: r.PaymentMethod,
		Usage: domain.Usage{
			JobPostings:      r.JobPostingsUsed,
			CVCreations:      r.CvCreationsUsed,
			CVDownloads:      r.CvDownloadsUsed,
			FeaturedJobs:     r.FeaturedJobsUsed,
			PremiumTemplates: r.PremiumTemplatesUsed,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
