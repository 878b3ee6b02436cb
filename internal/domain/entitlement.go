package domain

// Reasons carried by a PermissionResult. They are for display only.
const (
	ReasonOK             = "OK"
	ReasonQuotaExhausted = "quota exhausted for this billing cycle, upgrade required."
)

// PermissionResult is the outcome of an entitlement check.
type PermissionResult struct {
	Allowed        bool
	Reason         string
	QuotaRemaining Limit
	Used           int64
	Limit          Limit
	Quota          QuotaType
	Plan           Plan
}

// CheckPosting decides whether the subscription may post another job.
// It performs no I/O and does not modify sub.
func CheckPosting(sub Subscription) PermissionResult {
	return check(sub.Plan, QuotaTypeJobPostings, JobPostingLimit(sub.Plan), sub.Usage.JobPostings)
}

// CheckCVCreation decides whether the subscription may create another CV.
func CheckCVCreation(sub Subscription) PermissionResult {
	return check(sub.Plan, QuotaTypeCVCreations, CVCreationLimit(sub.Plan), sub.Usage.CVCreations)
}

func check(plan Plan, quota QuotaType, limit Limit, used int64) PermissionResult {
	result := PermissionResult{
		Allowed:        limit.Allows(used),
		Reason:         ReasonOK,
		QuotaRemaining: limit.Remaining(used),
		Used:           used,
		Limit:          limit,
		Quota:          quota,
		Plan:           plan,
	}
	if !result.Allowed {
		result.Reason = ReasonQuotaExhausted
	}
	return result
}

// Err converts a denied result into the error surfaced to the caller.
// It returns nil when the action is allowed.
func (r PermissionResult) Err(op string) error {
	if r.Allowed {
		return nil
	}
	return QuotaExceeded(op, r.Plan, r.Quota, r.Limit)
}
