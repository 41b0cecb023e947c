package users

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/octabox/octabox/internal/platform/db"
)

// Repository provides PostgreSQL backed directory reads.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// ListMembers returns every principal, newest first.
func (r *Repository) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := r.db.Query(ctx, `SELECT p.id::text, p.email, p.name, p.created_at, p.last_sign_in_at, p.suspended_until,
	EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = p.id AND ur.role = 'admin')
FROM principals p
ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Member, error) {
		var m Member
		err := row.Scan(&m.ID, &m.Email, &m.Name, &m.CreatedAt, &m.LastSignInAt, &m.SuspendedUntil, &m.IsAdmin)
		return m, err
	})
}

// ListPrincipalIDs returns the id of every principal.
func (r *Repository) ListPrincipalIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id::text FROM principals ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
