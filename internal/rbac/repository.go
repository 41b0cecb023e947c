package rbac

import (
	"context"

	"github.com/octabox/octabox/internal/platform/db"
)

// RoleStore answers role membership questions.
type RoleStore interface {
	HasRole(ctx context.Context, principalID string, role Role) (bool, error)
}

const hasRoleSQL = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1::uuid AND role = $2)`

// PGRoleStore reads user_roles from PostgreSQL.
type PGRoleStore struct {
	db db.DBTX
}

// NewRoleStore constructs a PGRoleStore.
func NewRoleStore(conn db.DBTX) *PGRoleStore {
	return &PGRoleStore{db: conn}
}

// HasRole reports whether at least one (principal, role) row exists.
// Duplicate rows collapse into a single true. A principal id that is not a
// UUID fails the cast and returns an error, which the gate treats as a
// denial.
func (s *PGRoleStore) HasRole(ctx context.Context, principalID string, role Role) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, hasRoleSQL, principalID, string(role)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

var _ RoleStore = (*PGRoleStore)(nil)
