package metrics

// Resolved records how a subscription resolution ended.
func Resolved(outcome string) {
	SubscriptionResolutions.WithLabelValues(outcome).Inc()
}

// Checked records an entitlement decision.
func Checked(quota string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	EntitlementChecks.WithLabelValues(quota, result).Inc()
}

// UsageIncrement records the result of a usage counter increment:
// "ok", "missing" or "error".
func UsageIncrement(counter, result string) {
	UsageRecorded.WithLabelValues(counter, result).Inc()
}

// Downgraded records an expired subscription moved to the free tier.
func Downgraded(source string) {
	SubscriptionsDowngraded.WithLabelValues(source).Inc()
}
