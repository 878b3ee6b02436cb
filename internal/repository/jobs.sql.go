package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const jobColumns = `id, recruiter_id, title, status, published_at, expires_at, is_featured, created_at, updated_at`

func scanJob(row rowScanner) (Job, error) {
	var i Job
	err := row.Scan(
		&i.ID,
		&i.RecruiterID,
		&i.Title,
		&i.Status,
		&i.PublishedAt,
		&i.ExpiresAt,
		&i.IsFeatured,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createJob = `-- name: CreateJob :one
INSERT INTO jobs (id, recruiter_id, title, status, published_at, expires_at, is_featured, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING ` + jobColumns

type CreateJobParams struct {
	ID          uuid.UUID
	RecruiterID uuid.UUID
	Title       string
	Status      string
	PublishedAt sql.NullTime
	ExpiresAt   sql.NullTime
	IsFeatured  bool
	CreatedAt   time.Time
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (Job, error) {
	row := q.db.QueryRowContext(ctx, createJob,
		arg.ID,
		arg.RecruiterID,
		arg.Title,
		arg.Status,
		arg.PublishedAt,
		arg.ExpiresAt,
		arg.IsFeatured,
		arg.CreatedAt,
	)
	return scanJob(row)
}

const listJobsByRecruiterAndStatuses = `-- name: ListJobsByRecruiterAndStatuses :many
SELECT ` + jobColumns + `
FROM jobs
WHERE recruiter_id = $1 AND status = ANY($2::text[])
ORDER BY created_at
`

type ListJobsByRecruiterAndStatusesParams struct {
	RecruiterID uuid.UUID
	Statuses    []string
}

func (q *Queries) ListJobsByRecruiterAndStatuses(ctx context.Context, arg ListJobsByRecruiterAndStatusesParams) ([]Job, error) {
	rows, err := q.db.QueryContext(ctx, listJobsByRecruiterAndStatuses, arg.RecruiterID, pq.Array(arg.Statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Job
	for rows.Next() {
		i, err := scanJob(rows)
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

const extendJobExpiry = `-- name: ExtendJobExpiry :one
UPDATE jobs
SET expires_at = COALESCE(expires_at, NOW()) + make_interval(days => $2::int),
    updated_at = NOW()
WHERE id = $1 AND status = ANY($3::text[])
RETURNING ` + jobColumns

type ExtendJobExpiryParams struct {
	ID       uuid.UUID
	Days     int32
	Statuses []string
}

// ExtendJobExpiry pushes a job's expiry forward by Days in a single update.
// It returns sql.ErrNoRows if the job is gone or left the given statuses.
func (q *Queries) ExtendJobExpiry(ctx context.Context, arg ExtendJobExpiryParams) (Job, error) {
	row := q.db.QueryRowContext(ctx, extendJobExpiry, arg.ID, arg.Days, pq.Array(arg.Statuses))
	return scanJob(row)
}

const expireJobListings = `-- name: ExpireJobListings :execrows
UPDATE jobs
SET status = 'expired', updated_at = $1
WHERE status = 'active' AND expires_at <= $1
`

// ExpireJobListings marks active jobs past their expiry as expired.
func (q *Queries) ExpireJobListings(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, expireJobListings, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
