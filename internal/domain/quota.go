// Package domain contains core business types and interfaces.
//
// This file defines the metered quota types and the per-cycle usage counters
// stored on a subscription.
package domain

// QuotaType identifies a metered usage counter.
type QuotaType string

const (
	QuotaTypeJobPostings      QuotaType = "job_postings"
	QuotaTypeCVCreations      QuotaType = "cv_creations"
	QuotaTypeCVDownloads      QuotaType = "cv_downloads"
	QuotaTypeFeaturedJobs     QuotaType = "featured_jobs"
	QuotaTypePremiumTemplates QuotaType = "premium_templates"
)

// QuotaTypes lists every counter tracked on a subscription.
var QuotaTypes = []QuotaType{
	QuotaTypeJobPostings,
	QuotaTypeCVCreations,
	QuotaTypeCVDownloads,
	QuotaTypeFeaturedJobs,
	QuotaTypePremiumTemplates,
}

// Noun returns the counter's name as used in messages.
func (q QuotaType) Noun() string {
	switch q {
	case QuotaTypeJobPostings:
		return "job postings"
	case QuotaTypeCVCreations:
		return "CVs"
	case QuotaTypeCVDownloads:
		return "CV downloads"
	case QuotaTypeFeaturedJobs:
		return "featured jobs"
	case QuotaTypePremiumTemplates:
		return "premium templates"
	}
	return string(q)
}

// Usage holds the counters consumed during the current billing cycle.
type Usage struct {
	JobPostings      int64
	CVCreations      int64
	CVDownloads      int64
	FeaturedJobs     int64
	PremiumTemplates int64
}

// Get returns the value of one counter.
func (u Usage) Get(q QuotaType) int64 {
	switch q {
	case QuotaTypeJobPostings:
		return u.JobPostings
	case QuotaTypeCVCreations:
		return u.CVCreations
	case QuotaTypeCVDownloads:
		return u.CVDownloads
	case QuotaTypeFeaturedJobs:
		return u.FeaturedJobs
	case QuotaTypePremiumTemplates:
		return u.PremiumTemplates
	}
	return 0
}

// IsZero reports whether no counter has been consumed.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// QuotaUsage is one counter's consumption against its plan limit.
type QuotaUsage struct {
	Type      QuotaType
	Used      int64
	Limit     Limit
	Remaining Limit
}

// UsageSummary is the dashboard view of a resolved subscription.
type UsageSummary struct {
	Plan        Plan
	Role        Role
	JobPostings QuotaUsage
	CVCreations QuotaUsage
	Usage       Usage
}

// Summarize builds the usage summary of a subscription.
func Summarize(sub Subscription) UsageSummary {
	jobs := JobPostingLimit(sub.Plan)
	cvs := CVCreationLimit(sub.Plan)
	return UsageSummary{
		Plan: sub.Plan,
		Role: sub.Role,
		JobPostings: QuotaUsage{
			Type:      QuotaTypeJobPostings,
			Used:      sub.Usage.JobPostings,
			Limit:     jobs,
			Remaining: jobs.Remaining(sub.Usage.JobPostings),
		},
		CVCreations: QuotaUsage{
			Type:      QuotaTypeCVCreations,
			Used:      sub.Usage.CVCreations,
			Limit:     cvs,
			Remaining: cvs.Remaining(sub.Usage.CVCreations),
		},
		Usage: sub.Usage,
	}
}
