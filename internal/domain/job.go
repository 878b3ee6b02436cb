// Package domain contains core business types and interfaces.
//
// This file defines the Job and CV documents as far as the entitlement
// engine reads and writes them.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job posting.
type JobStatus string

const (
	JobStatusDraft   JobStatus = "draft"
	JobStatusActive  JobStatus = "active"
	JobStatusPaused  JobStatus = "paused"
	JobStatusClosed  JobStatus = "closed"
	JobStatusExpired JobStatus = "expired"
)

// ExtendableJobStatuses are the statuses whose expiry moves on plan upgrade.
var ExtendableJobStatuses = []JobStatus{JobStatusActive, JobStatusPaused}

// Job is a job posting owned by a recruiter.
type Job struct {
	ID          uuid.UUID
	RecruiterID uuid.UUID
	Title       string
	Status      JobStatus
	PublishedAt time.Time
	ExpiresAt   time.Time
	IsFeatured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublishJobParams contains the validated parameters for publishing a job.
type PublishJobParams struct {
	Title string
}

// JobExpiry returns when a job published at publishedAt on plan stops being listed.
func JobExpiry(plan Plan, publishedAt time.Time) time.Time {
	return publishedAt.AddDate(0, 0, JobListingDurationDays(plan))
}

// IsFeaturedPlan reports whether jobs posted on plan are featured.
// Unknown plans are treated as free.
func IsFeaturedPlan(plan Plan) bool {
	return plan.Valid() && plan != PlanFree
}

// CV is a job seeker's curriculum vitae.
type CV struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Title             string
	TemplateID        string
	IsPremiumTemplate bool
	CreatedAt         time.Time
}

// CreateCVParams contains the validated parameters for creating a CV.
type CreateCVParams struct {
	Title             string
	TemplateID        string
	IsPremiumTemplate bool
}
