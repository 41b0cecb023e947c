package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	exists bool
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.exists
	return nil
}

type fakeDB struct {
	row  *fakeRow
	sql  string
	args []any
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.sql = sql
	f.args = args
	return f.row
}

func TestHasRoleComparesUUIDColumn(t *testing.T) {
	conn := &fakeDB{row: &fakeRow{exists: true}}
	store := NewRoleStore(conn)

	ok, err := store.HasRole(context.Background(), "00000000-0000-0000-0000-00000000000a", RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, conn.sql, "user_id = $1::uuid")
	assert.NotContains(t, conn.sql, "user_id::text")
	assert.Equal(t, []any{"00000000-0000-0000-0000-00000000000a", "admin"}, conn.args)
}

func TestHasRoleNoRows(t *testing.T) {
	store := NewRoleStore(&fakeDB{row: &fakeRow{exists: false}})

	ok, err := store.HasRole(context.Background(), "00000000-0000-0000-0000-00000000000b", RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasRoleScanError(t *testing.T) {
	store := NewRoleStore(&fakeDB{row: &fakeRow{err: errors.New("invalid input syntax for type uuid")}})

	ok, err := store.HasRole(context.Background(), "not-a-uuid", RoleAdmin)
	assert.Error(t, err)
	assert.False(t, ok)
}
