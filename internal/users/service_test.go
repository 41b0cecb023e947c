package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octabox/octabox/internal/auth"
)

type stubRepo struct {
	members []Member
	err     error
}

func (s stubRepo) ListMembers(ctx context.Context) ([]Member, error) {
	return s.members, s.err
}

func (s stubRepo) ListPrincipalIDs(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]string, 0, len(s.members))
	for _, m := range s.members {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func TestListPrincipalIDs(t *testing.T) {
	svc := NewService(stubRepo{members: []Member{
		{Principal: auth.Principal{ID: "a"}},
		{Principal: auth.Principal{ID: "b"}},
	}})

	ids, err := svc.ListPrincipalIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestListMembersWrapsError(t *testing.T) {
	svc := NewService(stubRepo{err: errors.New("boom")})

	_, err := svc.ListMembers(context.Background())
	assert.ErrorContains(t, err, "list members")
}

func TestHandlerListsMembers(t *testing.T) {
	joined := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	handler := NewHandler(nil, NewService(stubRepo{members: []Member{
		{Principal: auth.Principal{ID: "a", Email: "admin@octabox.test", CreatedAt: joined}, IsAdmin: true},
	}}))
	r := chi.NewRouter()
	handler.MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Users []memberResponse `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Users, 1)
	assert.True(t, body.Users[0].Admin)
	assert.Nil(t, body.Users[0].LastSignInAt)
}

func TestHandlerFailure(t *testing.T) {
	handler := NewHandler(nil, NewService(stubRepo{err: errors.New("boom")}))
	r := chi.NewRouter()
	handler.MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
