package repository

import (
	"context"

	"github.com/google/uuid"
)

const getUserRole = `-- name: GetUserRole :one
SELECT role FROM users
WHERE id = $1
`

// GetUserRole returns the account role of a user, or sql.ErrNoRows.
func (q *Queries) GetUserRole(ctx context.Context, id uuid.UUID) (string, error) {
	row := q.db.QueryRowContext(ctx, getUserRole, id)
	var role string
	err := row.Scan(&role)
	return role, err
}
