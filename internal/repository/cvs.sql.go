package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createCV = `-- name: CreateCV :one
INSERT INTO cvs (id, owner_id, title, template_id, is_premium_template, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id, owner_id, title, template_id, is_premium_template, created_at, updated_at
`

type CreateCVParams struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Title             string
	TemplateID        string
	IsPremiumTemplate bool
	CreatedAt         time.Time
}

func (q *Queries) CreateCV(ctx context.Context, arg CreateCVParams) (Cv, error) {
	row := q.db.QueryRowContext(ctx, createCV,
		arg.ID,
		arg.OwnerID,
		arg.Title,
		arg.TemplateID,
		arg.IsPremiumTemplate,
		arg.CreatedAt,
	)
	var i Cv
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Title,
		&i.TemplateID,
		&i.IsPremiumTemplate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
