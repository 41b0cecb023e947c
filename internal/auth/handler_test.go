package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/view"
	_ "github.com/octabox/octabox/testing"
)

type recordingMailer struct {
	sent []string
}

func (m *recordingMailer) EnqueueWelcome(ctx context.Context, email, name string) error {
	m.sent = append(m.sent, email)
	return nil
}

type authFixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	repo     *memoryRepo
	mailer   *recordingMailer
}

func newAuthFixture(t *testing.T, repo *memoryRepo) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	service := auth.NewService(repo, sessions, nil)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	mailer := &recordingMailer{}
	handler := auth.NewHandler(nil, service, auth.NewResolver(service, nil, nil), templates, shared.NewCSRFManager("csrfsecret"), mailer)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	withSession := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		sess, err := sessions.Load(req.Context(), req)
		require.NoError(t, err)
		ctx := shared.ContextWithSession(req.Context(), sess)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req.WithContext(ctx))
		require.NoError(t, sessions.Commit(ctx, w, sess))
		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
	})
	return &authFixture{router: withSession, sessions: sessions, repo: repo, mailer: mailer}
}

func (f *authFixture) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "test_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthPageRendersLoginForm(t *testing.T) {
	f := newAuthFixture(t, newMemoryRepo())

	rr := f.do(httptest.NewRequest(http.MethodGet, "/auth", nil), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<form")
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, newMemoryRepo(&auth.Account{
		Principal:    auth.Principal{ID: "p-1", Email: "user@octabox.test"},
		PasswordHash: hashed(t, "correctpass"),
	}))

	rr := f.do(postForm("/auth/login", url.Values{"email": {"user@octabox.test"}, "password": {"wrongpass"}}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid login credentials")
	assert.Zero(t, f.repo.sessionCount())
}

func TestLoginValidationErrors(t *testing.T) {
	f := newAuthFixture(t, newMemoryRepo())

	rr := f.do(postForm("/auth/login", url.Values{"email": {"not-an-email"}}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Enter a valid email address")
}

func TestLoginSuccessRedirectsWithFlash(t *testing.T) {
	f := newAuthFixture(t, newMemoryRepo(&auth.Account{
		Principal:    auth.Principal{ID: "p-1", Email: "user@octabox.test"},
		PasswordHash: hashed(t, "correctpass"),
	}))

	rr := f.do(postForm("/auth/login", url.Values{"email": {"user@octabox.test"}, "password": {"correctpass"}}), nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, 1, f.repo.sessionCount())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rr))
	sess, err := f.sessions.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "p-1", sess.User())
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Welcome back!", flash.Title)
}

func TestSignUpQueuesWelcomeMail(t *testing.T) {
	f := newAuthFixture(t, newMemoryRepo())

	rr := f.do(postForm("/auth/signup", url.Values{"name": {"Grace"}, "email": {"grace@octabox.test"}, "password": {"secret1"}}), nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, []string{"grace@octabox.test"}, f.mailer.sent)

	rr = f.do(postForm("/auth/signup", url.Values{"email": {"grace@octabox.test"}, "password": {"secret1"}}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "user already registered")
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t, newMemoryRepo(&auth.Account{
		Principal:    auth.Principal{ID: "p-1", Email: "user@octabox.test"},
		PasswordHash: hashed(t, "correctpass"),
	}))

	rr := f.do(postForm("/auth/login", url.Values{"email": {"user@octabox.test"}, "password": {"correctpass"}}), nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookie := sessionCookie(t, rr)

	rr = f.do(postForm("/auth/logout", url.Values{}), cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Zero(t, f.repo.sessionCount())
	assert.NotEqual(t, cookie.Value, sessionCookie(t, rr).Value)
}
