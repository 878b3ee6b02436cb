package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobPostingLimit(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		want Limit
	}{
		{"free", PlanFree, Finite(5)},
		{"basic", PlanBasic, Finite(20)},
		{"premium", PlanPremium, Unlimited()},
		{"enterprise", PlanEnterprise, Unlimited()},
		{"unknown falls back to free", Plan("platinum"), Finite(5)},
		{"empty falls back to free", Plan(""), Finite(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JobPostingLimit(tt.plan))
		})
	}
}

func TestJobListingDurationDays(t *testing.T) {
	tests := []struct {
		plan Plan
		want int
	}{
		{PlanFree, 30},
		{PlanBasic, 60},
		{PlanPremium, 90},
		{PlanEnterprise, 90},
		{Plan("legacy"), 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			assert.Equal(t, tt.want, JobListingDurationDays(tt.plan))
		})
	}
}

func TestCVCreationLimit(t *testing.T) {
	assert.Equal(t, Finite(3), CVCreationLimit(PlanFree))
	assert.Equal(t, Unlimited(), CVCreationLimit(PlanBasic))
	assert.Equal(t, Unlimited(), CVCreationLimit(PlanPremium))
	assert.Equal(t, Unlimited(), CVCreationLimit(PlanEnterprise))
	assert.Equal(t, Finite(3), CVCreationLimit(Plan("bogus")))
}

func TestLimit_Remaining(t *testing.T) {
	tests := []struct {
		name  string
		limit Limit
		used  int64
		want  Limit
	}{
		{"untouched", Finite(5), 0, Finite(5)},
		{"partially used", Finite(5), 3, Finite(2)},
		{"exhausted", Finite(5), 5, Finite(0)},
		{"overshoot clamps to zero", Finite(5), 7, Finite(0)},
		{"unlimited stays unlimited", Unlimited(), 1000, Unlimited()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.Remaining(tt.used))
		})
	}
}

func TestLimit_String(t *testing.T) {
	assert.Equal(t, "5", Finite(5).String())
	assert.Equal(t, "unlimited", Unlimited().String())
}

func TestPlan_DisplayName(t *testing.T) {
	assert.Equal(t, "Premium", PlanPremium.DisplayName())
	assert.Equal(t, "Enterprise", PlanEnterprise.DisplayName())
	assert.Equal(t, "Free", Plan("nope").DisplayName())
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan("basic")
	assert.NoError(t, err)
	assert.Equal(t, PlanBasic, p)

	_, err = ParsePlan("gold")
	assert.Error(t, err)
}

func TestBillingPeriod_End(t *testing.T) {
	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), BillingMonthly.End(start))
	assert.Equal(t, time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC), BillingQuarterly.End(start))
	assert.Equal(t, time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC), BillingAnnual.End(start))
	assert.Equal(t, BillingMonthly.End(start), BillingPeriod("weekly").End(start))
}

func TestPlanPrice(t *testing.T) {
	assert.Equal(t, int64(0), PlanPrice(PlanFree, BillingAnnual))
	assert.Equal(t, int64(2900), PlanPrice(PlanBasic, BillingMonthly))
	assert.Equal(t, int64(29000), PlanPrice(PlanBasic, BillingAnnual))
	assert.Equal(t, int64(7975), PlanPrice(PlanBasic, BillingQuarterly))
	assert.Equal(t, PlanPrice(PlanFree, BillingMonthly), PlanPrice(Plan("x"), BillingMonthly))
}
