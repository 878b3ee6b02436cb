// Package domain contains core business types and interfaces.
//
// This file defines the plan policy table: the single source of truth for
// per-plan quotas, listing durations and pricing. Unknown plans always
// degrade to the free tier's policy instead of failing.
package domain

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Plan identifies a subscription plan.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// DisplayName returns the plan name for user-facing messages.
func (p Plan) DisplayName() string {
	if !p.Valid() {
		return PlanFree.DisplayName()
	}
	return cases.Title(language.English).String(string(p))
}

// Rank orders plans from free (0) upwards. Unknown plans rank as free.
func (p Plan) Rank() int {
	switch p {
	case PlanBasic:
		return 1
	case PlanPremium:
		return 2
	case PlanEnterprise:
		return 3
	}
	return 0
}

// ParsePlan converts a raw string into a Plan.
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown plan %q", s)
	}
	return p, nil
}

// BillingPeriod is the length of a paid billing cycle.
type BillingPeriod string

const (
	BillingMonthly   BillingPeriod = "monthly"
	BillingQuarterly BillingPeriod = "quarterly"
	BillingAnnual    BillingPeriod = "annual"
)

// Valid reports whether b is a known billing period.
func (b BillingPeriod) Valid() bool {
	switch b {
	case BillingMonthly, BillingQuarterly, BillingAnnual:
		return true
	}
	return false
}

// End returns the end of a cycle starting at start. Unknown periods are monthly.
func (b BillingPeriod) End(start time.Time) time.Time {
	switch b {
	case BillingQuarterly:
		return start.AddDate(0, 3, 0)
	case BillingAnnual:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// FreeTierDays is the length of a free-tier window.
const FreeTierDays = 30

// Limit is a quota ceiling. Unlimited is a flag, never a large Max.
type Limit struct {
	Max       int64
	Unlimited bool
}

// Finite returns a bounded limit.
func Finite(n int64) Limit {
	return Limit{Max: n}
}

// Unlimited returns the unbounded limit.
func Unlimited() Limit {
	return Limit{Unlimited: true}
}

// Remaining returns what is left of the limit after used units.
// A finite remainder never goes below zero.
func (l Limit) Remaining(used int64) Limit {
	if l.Unlimited {
		return l
	}
	left := l.Max - used
	if left < 0 {
		left = 0
	}
	return Finite(left)
}

// Allows reports whether one more unit may be consumed.
func (l Limit) Allows(used int64) bool {
	return l.Unlimited || l.Max-used > 0
}

func (l Limit) String() string {
	if l.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(l.Max, 10)
}

type planPolicy struct {
	jobPostings  Limit
	listingDays  int
	cvCreations  Limit
	monthlyCents int64
}

var planPolicies = map[Plan]planPolicy{
	PlanFree: {
		jobPostings: Finite(5),
		listingDays: 30,
		cvCreations: Finite(3),
	},
	PlanBasic: {
		jobPostings:  Finite(20),
		listingDays:  60,
		cvCreations:  Unlimited(),
		monthlyCents: 2900,
	},
	PlanPremium: {
		jobPostings:  Unlimited(),
		listingDays:  90,
		cvCreations:  Unlimited(),
		monthlyCents: 7900,
	},
	PlanEnterprise: {
		jobPostings:  Unlimited(),
		listingDays:  90,
		cvCreations:  Unlimited(),
		monthlyCents: 19900,
	},
}

func policyFor(plan Plan) planPolicy {
	if p, ok := planPolicies[plan]; ok {
		return p
	}
	return planPolicies[PlanFree]
}

// JobPostingLimit returns how many jobs a plan may post per billing cycle.
func JobPostingLimit(plan Plan) Limit {
	return policyFor(plan).jobPostings
}

// JobListingDurationDays returns how long a job posted on plan stays listed.
func JobListingDurationDays(plan Plan) int {
	return policyFor(plan).listingDays
}

// CVCreationLimit returns how many CVs a job seeker on plan may create per cycle.
func CVCreationLimit(plan Plan) Limit {
	return policyFor(plan).cvCreations
}

// PlanPrice returns the price in cents of one billing period of plan.
// Longer periods are discounted: a quarter costs 2.75 months, a year 10.
func PlanPrice(plan Plan, period BillingPeriod) int64 {
	monthly := policyFor(plan).monthlyCents
	switch period {
	case BillingQuarterly:
		return monthly * 11 / 4
	case BillingAnnual:
		return monthly * 10
	default:
		return monthly
	}
}
