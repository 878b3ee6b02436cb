// Package domain contains core business types and interfaces.
//
// This file defines the Subscription entitlement record, its lifecycle
// transitions and the tagged result returned by subscription resolution.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the possible states of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusPending  SubscriptionStatus = "pending"
)

const (
	// DefaultCurrency is used for free-tier records.
	DefaultCurrency = "USD"

	// FreePaymentMethod marks a subscription nobody pays for.
	FreePaymentMethod = "free"
)

// Subscription is one user's entitlement state for one role context.
// A user holds at most one subscription per role.
type Subscription struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Role          Role
	Plan          Plan
	Status        SubscriptionStatus
	StartDate     time.Time
	EndDate       time.Time
	BillingPeriod BillingPeriod
	PriceCents    int64
	Currency      string
	AutoRenew     bool
	PaymentMethod string
	Usage         Usage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewFreeSubscription builds the free-tier record used when a user has no
// usable subscription: a 30-day window starting at now with zeroed usage.
func NewFreeSubscription(userID uuid.UUID, role Role, now time.Time) Subscription {
	sub := Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
	}
	sub.ResetToFree(now)
	return sub
}

// ResetToFree applies the in-place downgrade: free plan, fresh window, no usage.
func (s *Subscription) ResetToFree(now time.Time) {
	s.Plan = PlanFree
	s.Status = SubscriptionStatusActive
	s.StartDate = now
	s.EndDate = now.AddDate(0, 0, FreeTierDays)
	s.BillingPeriod = BillingMonthly
	s.PriceCents = 0
	s.AutoRenew = true
	s.PaymentMethod = FreePaymentMethod
	s.Usage = Usage{}
	s.UpdatedAt = now
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
}

// IsActive reports whether the subscription currently grants its plan.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.EndDate)
}

// IsExpired reports whether an active subscription has run past its window.
func (s *Subscription) IsExpired(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && !now.Before(s.EndDate)
}

// ResolutionOutcome tags how a resolved subscription was obtained.
type ResolutionOutcome string

const (
	// ResolutionUnchanged: the stored record was returned as-is.
	ResolutionUnchanged ResolutionOutcome = "unchanged"
	// ResolutionCreated: no record existed and a free tier was inserted.
	ResolutionCreated ResolutionOutcome = "created"
	// ResolutionReset: a non-active record was reset to a fresh free tier.
	ResolutionReset ResolutionOutcome = "reset"
	// ResolutionDowngraded: an expired active record was downgraded to free.
	ResolutionDowngraded ResolutionOutcome = "downgraded"
	// ResolutionFallback: storage failed; the subscription is synthesized
	// in memory for this call only and nothing was written.
	ResolutionFallback ResolutionOutcome = "fallback"
)

// Resolution is the result of resolving a user's active subscription.
type Resolution struct {
	Outcome      ResolutionOutcome
	Subscription Subscription
}

// Wrote reports whether resolving persisted a change.
func (r Resolution) Wrote() bool {
	switch r.Outcome {
	case ResolutionCreated, ResolutionReset, ResolutionDowngraded:
		return true
	}
	return false
}

// IsFallback reports whether entitlement could not be read from storage.
func (r Resolution) IsFallback() bool {
	return r.Outcome == ResolutionFallback
}

// SubscriptionEventType names a lifecycle transition.
type SubscriptionEventType string

const (
	SubscriptionEventCreated          SubscriptionEventType = "created"
	SubscriptionEventReset            SubscriptionEventType = "reset"
	SubscriptionEventDowngraded       SubscriptionEventType = "downgraded"
	SubscriptionEventPlanChanged      SubscriptionEventType = "plan_changed"
	SubscriptionEventAutoRenewChanged SubscriptionEventType = "auto_renew_changed"
)

// SubscriptionEvent is an append-only history entry for a subscription.
type SubscriptionEvent struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	Role           Role
	Type           SubscriptionEventType
	FromPlan       Plan
	ToPlan         Plan
	Details        json.RawMessage
	CreatedAt      time.Time
}

// ChangePlanParams contains the parameters for moving a subscription to a plan.
type ChangePlanParams struct {
	UserID        uuid.UUID
	Role          Role
	Plan          Plan
	BillingPeriod BillingPeriod
	PaymentMethod string
	Currency      string
	AutoRenew     bool
}
