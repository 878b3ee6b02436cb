package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Subscription struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Role                 string
	Plan                 string
	Status               string
	StartDate            time.Time
	EndDate              time.Time
	BillingPeriod        string
	PriceCents           int64
	Currency             string
	AutoRenew            bool
	PaymentMethod        string
	JobPostingsUsed      int64
	CvCreationsUsed      int64
	CvDownloadsUsed      int64
	FeaturedJobsUsed     int64
	PremiumTemplatesUsed int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type SubscriptionEvent struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	Role           string
	EventType      string
	FromPlan       string
	ToPlan         string
	Details        pqtype.NullRawMessage
	CreatedAt      time.Time
}

type Job struct {
	ID          uuid.UUID
	RecruiterID uuid.UUID
	Title       string
	Status      string
	PublishedAt sql.NullTime
	ExpiresAt   sql.NullTime
	IsFeatured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cv struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Title             string
	TemplateID        string
	IsPremiumTemplate bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
