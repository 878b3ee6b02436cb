package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hirewell"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// Scheduled task metrics
var (
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_tasks_total",
			Help:      "Total number of scheduled task runs",
		},
		[]string{"task", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduled_task_duration_seconds",
			Help:      "Scheduled task execution time distribution",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"task"},
	)
)

// Entitlement metrics
var (
	SubscriptionResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_resolutions_total",
			Help:      "Subscription resolutions by outcome",
		},
		[]string{"outcome"},
	)

	EntitlementChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_checks_total",
			Help:      "Entitlement decisions by quota and result",
		},
		[]string{"quota", "result"},
	)

	UsageRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_recorded_total",
			Help:      "Usage counter increments by counter and result",
		},
		[]string{"counter", "result"},
	)

	SubscriptionsDowngraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_downgraded_total",
			Help:      "Expired subscriptions moved to the free tier",
		},
		[]string{"source"}, // "resolver" or "sweep"
	)

	PlanChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_changes_total",
			Help:      "Plan changes by target plan",
		},
		[]string{"plan"},
	)
)

// Job lifecycle metrics
var (
	JobsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_published_total",
			Help:      "Total number of jobs published",
		},
		[]string{"plan"},
	)

	JobsExtended = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_extended_total",
			Help:      "Job listings whose expiry was extended after an upgrade",
		},
	)

	JobListingsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_listings_expired_total",
			Help:      "Job listings marked expired",
		},
	)

	CVsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cvs_created_total",
			Help:      "Total number of CVs created",
		},
	)
)
