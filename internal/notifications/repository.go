package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/octabox/octabox/internal/platform/db"
)

// Repository defines persistence for notifications.
type Repository interface {
	InsertBatch(ctx context.Context, actorID string, recipients []string, d Draft) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]Notification, error)
	Count(ctx context.Context) (int64, error)
}

// PGRepository implements Repository with PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PGRepository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const insertBatchSQL = `INSERT INTO notifications (id, user_id, title, message, type, read, created_at)
SELECT t.id, t.user_id, $2, $3, $4, FALSE, NOW()
FROM unnest($5::uuid[], $6::uuid[]) AS t(id, user_id)
WHERE EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1::uuid AND role = 'admin')`

// InsertBatch writes one row per recipient in a single statement. The
// statement only inserts when actorID holds the admin role; a rejected write
// returns ErrForbidden.
func (r *PGRepository) InsertBatch(ctx context.Context, actorID string, recipients []string, d Draft) (int64, error) {
	if len(recipients) == 0 {
		return 0, nil
	}
	ids := make([]string, len(recipients))
	for i := range recipients {
		ids[i] = uuid.NewString()
	}
	tag, err := r.db.Exec(ctx, insertBatchSQL, actorID, d.Title, d.Message, string(d.Category), ids, recipients)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrForbidden
	}
	return tag.RowsAffected(), nil
}

// ListRecent returns the newest notifications across all recipients.
func (r *PGRepository) ListRecent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `SELECT id::text, user_id::text, title, message, type, read, created_at
FROM notifications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		var category string
		err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &category, &n.Read, &n.CreatedAt)
		n.Category = Category(category)
		return n, err
	})
}

// Count returns the total number of stored notifications.
func (r *PGRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&n)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
