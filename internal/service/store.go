// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories and domain logic.
// They are responsible for:
// - Input validation
// - Business rule enforcement (entitlements, quotas, lifecycle transitions)
// - Error translation (database errors -> domain errors)
//
// Storage is injected through the narrow interfaces below. *repository.Queries
// satisfies all of them; tests use in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/DukeRupert/hirewell/internal/repository"
	"github.com/google/uuid"
)

// UserDirectory resolves an account's role. Unknown users return sql.ErrNoRows.
type UserDirectory interface {
	GetUserRole(ctx context.Context, id uuid.UUID) (string, error)
}

// SubscriptionStore persists subscriptions and their history.
type SubscriptionStore interface {
	GetSubscriptionByUserAndRole(ctx context.Context, arg repository.GetSubscriptionByUserAndRoleParams) (repository.Subscription, error)
	InsertSubscriptionIfAbsent(ctx context.Context, arg repository.InsertSubscriptionParams) (repository.Subscription, error)
	ResetInactiveSubscription(ctx context.Context, arg repository.ResetInactiveSubscriptionParams) (repository.Subscription, error)
	DowngradeExpiredSubscription(ctx context.Context, arg repository.DowngradeExpiredSubscriptionParams) (repository.Subscription, error)
	UpsertSubscriptionPlan(ctx context.Context, arg repository.UpsertSubscriptionPlanParams) (repository.Subscription, error)
	SetSubscriptionAutoRenew(ctx context.Context, arg repository.SetSubscriptionAutoRenewParams) (repository.Subscription, error)
	ListExpiredActiveSubscriptions(ctx context.Context, arg repository.ListExpiredActiveSubscriptionsParams) ([]repository.Subscription, error)
	InsertSubscriptionEvent(ctx context.Context, arg repository.InsertSubscriptionEventParams) error
}

// UsageStore increments usage counters in place.
type UsageStore interface {
	IncrementSubscriptionUsage(ctx context.Context, arg repository.IncrementSubscriptionUsageParams) (int64, error)
}

// JobStore persists job postings.
type JobStore interface {
	CreateJob(ctx context.Context, arg repository.CreateJobParams) (repository.Job, error)
	ListJobsByRecruiterAndStatuses(ctx context.Context, arg repository.ListJobsByRecruiterAndStatusesParams) ([]repository.Job, error)
	ExtendJobExpiry(ctx context.Context, arg repository.ExtendJobExpiryParams) (repository.Job, error)
	ExpireJobListings(ctx context.Context, now time.Time) (int64, error)
}

// CVStore persists CVs.
type CVStore interface {
	CreateCV(ctx context.Context, arg repository.CreateCVParams) (repository.Cv, error)
}

var (
	_ UserDirectory     = (*repository.Queries)(nil)
	_ SubscriptionStore = (*repository.Queries)(nil)
	_ UsageStore        = (*repository.Queries)(nil)
	_ JobStore          = (*repository.Queries)(nil)
	_ CVStore           = (*repository.Queries)(nil)
)

func systemClock() time.Time {
	return time.Now().UTC()
}
