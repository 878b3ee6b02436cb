package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const subscriptionColumns = `id, user_id, role, plan, status, start_date, end_date, billing_period,
    price_cents, currency, auto_renew, payment_method,
    job_postings_used, cv_creations_used, cv_downloads_used, featured_jobs_used, premium_templates_used,
    created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var i Subscription
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Role,
		&i.Plan,
		&i.Status,
		&i.StartDate,
		&i.EndDate,
		&i.BillingPeriod,
		&i.PriceCents,
		&i.Currency,
		&i.AutoRenew,
		&i.PaymentMethod,
		&i.JobPostingsUsed,
		&i.CvCreationsUsed,
		&i.CvDownloadsUsed,
		&i.FeaturedJobsUsed,
		&i.PremiumTemplatesUsed,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getSubscriptionByUserAndRole = `-- name: GetSubscriptionByUserAndRole :one
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE user_id = $1 AND role = $2
`

type GetSubscriptionByUserAndRoleParams struct {
	UserID uuid.UUID
	Role   string
}

func (q *Queries) GetSubscriptionByUserAndRole(ctx context.Context, arg GetSubscriptionByUserAndRoleParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, getSubscriptionByUserAndRole, arg.UserID, arg.Role)
	return scanSubscription(row)
}

const insertSubscriptionIfAbsent = `-- name: InsertSubscriptionIfAbsent :one
INSERT INTO subscriptions (
    id, user_id, role, plan, status, start_date, end_date, billing_period,
    price_cents, currency, auto_renew, payment_method, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
ON CONFLICT (user_id, role) DO NOTHING
RETURNING ` + subscriptionColumns

type InsertSubscriptionParams struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Role          string
	Plan          string
	Status        string
	StartDate     time.Time
	EndDate       time.Time
	BillingPeriod string
	PriceCents    int64
	Currency      string
	AutoRenew     bool
	PaymentMethod string
	Now           time.Time
}

// InsertSubscriptionIfAbsent inserts a subscription unless one already exists
// for (user_id, role). It returns sql.ErrNoRows when another writer got there
// first; callers then read the existing row.
func (q *Queries) InsertSubscriptionIfAbsent(ctx context.Context, arg InsertSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, insertSubscriptionIfAbsent,
		arg.ID,
		arg.UserID,
		arg.Role,
		arg.Plan,
		arg.Status,
		arg.StartDate,
		arg.EndDate,
		arg.BillingPeriod,
		arg.PriceCents,
		arg.Currency,
		arg.AutoRenew,
		arg.PaymentMethod,
		arg.Now,
	)
	return scanSubscription(row)
}

// The free-tier reset shared by the inactive reset and the expiry downgrade.
const resetToFreeSet = `
SET plan = 'free',
    status = 'active',
    start_date = $3,
    end_date = $4,
    billing_period = 'monthly',
    price_cents = 0,
    auto_renew = TRUE,
    payment_method = 'free',
    job_postings_used = 0,
    cv_creations_used = 0,
    cv_downloads_used = 0,
    featured_jobs_used = 0,
    premium_templates_used = 0,
    updated_at = $3
`

const resetInactiveSubscription = `-- name: ResetInactiveSubscription :one
UPDATE subscriptions` + resetToFreeSet + `
WHERE user_id = $1 AND role = $2 AND status = $5
RETURNING ` + subscriptionColumns

type ResetInactiveSubscriptionParams struct {
	UserID         uuid.UUID
	Role           string
	StartDate      time.Time
	EndDate        time.Time
	ExpectedStatus string
}

// ResetInactiveSubscription resets a non-active subscription to a fresh free
// tier. It matches only while the row still has ExpectedStatus, so a
// concurrent writer's change is never overwritten; no match is sql.ErrNoRows.
func (q *Queries) ResetInactiveSubscription(ctx context.Context, arg ResetInactiveSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, resetInactiveSubscription,
		arg.UserID,
		arg.Role,
		arg.StartDate,
		arg.EndDate,
		arg.ExpectedStatus,
	)
	return scanSubscription(row)
}

const downgradeExpiredSubscription = `-- name: DowngradeExpiredSubscription :one
UPDATE subscriptions` + resetToFreeSet + `
WHERE user_id = $1 AND role = $2 AND status = 'active' AND end_date <= $3
RETURNING ` + subscriptionColumns

type DowngradeExpiredSubscriptionParams struct {
	UserID    uuid.UUID
	Role      string
	StartDate time.Time
	EndDate   time.Time
}

// DowngradeExpiredSubscription moves an expired active subscription to a fresh
// free tier. The expiry guard makes the transition happen exactly once: a
// second caller racing on the same row gets sql.ErrNoRows.
func (q *Queries) DowngradeExpiredSubscription(ctx context.Context, arg DowngradeExpiredSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, downgradeExpiredSubscription,
		arg.UserID,
		arg.Role,
		arg.StartDate,
		arg.EndDate,
	)
	return scanSubscription(row)
}

const upsertSubscriptionPlan = `-- name: UpsertSubscriptionPlan :one
INSERT INTO subscriptions (
    id, user_id, role, plan, status, start_date, end_date, billing_period,
    price_cents, currency, auto_renew, payment_method, created_at, updated_at
) VALUES ($1, $2, $3, $4, 'active', $5, $6, $7, $8, $9, $10, $11, $5, $5)
ON CONFLICT (user_id, role) DO UPDATE SET
    plan = EXCLUDED.plan,
    status = 'active',
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    billing_period = EXCLUDED.billing_period,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    auto_renew = EXCLUDED.auto_renew,
    payment_method = EXCLUDED.payment_method,
    job_postings_used = 0,
    cv_creations_used = 0,
    cv_downloads_used = 0,
    featured_jobs_used = 0,
    premium_templates_used = 0,
    updated_at = EXCLUDED.updated_at
RETURNING ` + subscriptionColumns

type UpsertSubscriptionPlanParams struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Role          string
	Plan          string
	StartDate     time.Time
	EndDate       time.Time
	BillingPeriod string
	PriceCents    int64
	Currency      string
	AutoRenew     bool
	PaymentMethod string
}

// UpsertSubscriptionPlan starts a new active cycle on a plan, creating the
// row if needed. Usage counters restart at zero.
func (q *Queries) UpsertSubscriptionPlan(ctx context.Context, arg UpsertSubscriptionPlanParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, upsertSubscriptionPlan,
		arg.ID,
		arg.UserID,
		arg.Role,
		arg.Plan,
		arg.StartDate,
		arg.EndDate,
		arg.BillingPeriod,
		arg.PriceCents,
		arg.Currency,
		arg.AutoRenew,
		arg.PaymentMethod,
	)
	return scanSubscription(row)
}

const setSubscriptionAutoRenew = `-- name: SetSubscriptionAutoRenew :one
UPDATE subscriptions
SET auto_renew = $3, updated_at = NOW()
WHERE user_id = $1 AND role = $2
RETURNING ` + subscriptionColumns

type SetSubscriptionAutoRenewParams struct {
	UserID    uuid.UUID
	Role      string
	AutoRenew bool
}

func (q *Queries) SetSubscriptionAutoRenew(ctx context.Context, arg SetSubscriptionAutoRenewParams) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, setSubscriptionAutoRenew, arg.UserID, arg.Role, arg.AutoRenew)
	return scanSubscription(row)
}

// Column names cannot be bound as parameters, so each counter has its own
// statement. Each one is a single in-place increment.
var incrementUsageQueries = map[string]string{
	"job_postings":      incrementUsageQuery("job_postings_used"),
	"cv_creations":      incrementUsageQuery("cv_creations_used"),
	"cv_downloads":      incrementUsageQuery("cv_downloads_used"),
	"featured_jobs":     incrementUsageQuery("featured_jobs_used"),
	"premium_templates": incrementUsageQuery("premium_templates_used"),
}

func incrementUsageQuery(column string) string {
	return `-- name: IncrementSubscriptionUsage :one
UPDATE subscriptions
SET ` + column + ` = ` + column + ` + 1, updated_at = NOW()
WHERE user_id = $1 AND role = $2
RETURNING ` + column
}

type IncrementSubscriptionUsageParams struct {
	UserID  uuid.UUID
	Role    string
	Counter string
}

// IncrementSubscriptionUsage atomically adds one to a usage counter and
// returns the new value. It returns sql.ErrNoRows if the row does not exist.
func (q *Queries) IncrementSubscriptionUsage(ctx context.Context, arg IncrementSubscriptionUsageParams) (int64, error) {
	query, ok := incrementUsageQueries[arg.Counter]
	if !ok {
		return 0, fmt.Errorf("unknown usage counter %q", arg.Counter)
	}
	row := q.db.QueryRowContext(ctx, query, arg.UserID, arg.Role)
	var value int64
	err := row.Scan(&value)
	return value, err
}

const listExpiredActiveSubscriptions = `-- name: ListExpiredActiveSubscriptions :many
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE status = 'active' AND end_date <= $1 AND id > $2
ORDER BY id
LIMIT $3
`

type ListExpiredActiveSubscriptionsParams struct {
	Now     time.Time
	AfterID uuid.UUID
	Limit   int32
}

// ListExpiredActiveSubscriptions returns one page of active subscriptions past
// their end date, ordered by id. Pass the last id of a page as AfterID to get
// the next one.
func (q *Queries) ListExpiredActiveSubscriptions(ctx context.Context, arg ListExpiredActiveSubscriptionsParams) ([]Subscription, error) {
	rows, err := q.db.QueryContext(ctx, listExpiredActiveSubscriptions, arg.Now, arg.AfterID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Subscription
	for rows.Next() {
		i, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertSubscriptionEvent = `-- name: InsertSubscriptionEvent :exec
INSERT INTO subscription_events (
    id, subscription_id, user_id, role, event_type, from_plan, to_plan, details, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type InsertSubscriptionEventParams struct {
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

func (q *Queries) InsertSubscriptionEvent(ctx context.Context, arg InsertSubscriptionEventParams) error {
	_, err := q.db.ExecContext(ctx, insertSubscriptionEvent,
		arg.ID,
		arg.SubscriptionID,
		arg.UserID,
		arg.Role,
		arg.EventType,
		arg.FromPlan,
		arg.ToPlan,
		arg.Details,
		arg.CreatedAt,
	)
	return err
}
