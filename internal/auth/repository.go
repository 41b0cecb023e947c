package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octabox/octabox/internal/platform/db"
	"github.com/octabox/octabox/internal/shared"
)

// Repository defines persistence operations for the identity provider.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	GetPrincipal(ctx context.Context, id string) (*Principal, error)
	CreatePrincipal(ctx context.Context, p Principal, passwordHash string) (*Principal, error)
	CreateSession(ctx context.Context, s AuthSession) error
	FindSession(ctx context.Context, id string) (*AuthSession, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const principalColumns = `id::text, email, name, created_at, last_sign_in_at, suspended_until`

func scanPrincipal(row pgx.Row, extra ...any) (*Principal, error) {
	var p Principal
	dest := append([]any{&p.ID, &p.Email, &p.Name, &p.CreatedAt, &p.LastSignInAt, &p.SuspendedUntil}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByEmail fetches an account by case-insensitive email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var hash string
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+`, password_hash FROM principals WHERE lower(email) = lower($1)`, email)
	p, err := scanPrincipal(row, &hash)
	if err != nil {
		return nil, err
	}
	return &Account{Principal: *p, PasswordHash: hash}, nil
}

// GetPrincipal fetches a principal by id.
func (r *PGRepository) GetPrincipal(ctx context.Context, id string) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id::text = $1`, id)
	return scanPrincipal(row)
}

// CreatePrincipal inserts a new principal.
func (r *PGRepository) CreatePrincipal(ctx context.Context, p Principal, passwordHash string) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO principals (id, email, name, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING `+principalColumns, p.ID, p.Email, p.Name, passwordHash)
	created, err := scanPrincipal(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// CreateSession records the auth session and stamps the principal's
// last_sign_in_at in one transaction.
func (r *PGRepository) CreateSession(ctx context.Context, s AuthSession) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO auth_sessions (id, principal_id, created_at, expires_at, ip, user_agent)
VALUES ($1, $2::uuid, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
			s.ID, s.PrincipalID, s.CreatedAt.UTC(), s.ExpiresAt.UTC(), s.IP, s.UserAgent); err != nil {
			return fmt.Errorf("insert auth session: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE principals SET last_sign_in_at = $2 WHERE id = $1::uuid`, s.PrincipalID, s.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("stamp last sign in: %w", err)
		}
		return nil
	})
}

// FindSession fetches an auth session by cookie session id.
func (r *PGRepository) FindSession(ctx context.Context, id string) (*AuthSession, error) {
	var (
		s      AuthSession
		ip, ua *string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, principal_id::text, created_at, expires_at, ip, user_agent FROM auth_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.PrincipalID, &s.CreatedAt, &s.ExpiresAt, &ip, &ua)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if ip != nil {
		s.IP = *ip
	}
	if ua != nil {
		s.UserAgent = *ua
	}
	return &s, nil
}

// DeleteSession removes an auth session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpiredSessions removes sessions that expired before the cutoff.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
