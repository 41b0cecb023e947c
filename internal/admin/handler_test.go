package admin

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/notifications"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/users"
	"github.com/octabox/octabox/internal/view"
)

type consoleFixture struct {
	router   chi.Router
	identity *fakeIdentity
	rows     *notificationRows
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	identity := newFakeIdentity(adminPrincipal, userPrincipal)
	roles := fakeRoles{adminPrincipal.ID: true}
	gate := rbac.NewGate(roles, nil, nil)
	mw := rbac.Middleware{Resolver: auth.NewResolver(identity, nil, nil), Gate: gate, Revoker: identity}
	rows := &notificationRows{admins: roles}
	templates, err := view.NewEngine()
	require.NoError(t, err)

	handler := NewHandler(HandlerParams{
		Flow:          NewLoginFlow(identity, identity, gate, mw, nil, nil),
		Gate:          mw,
		Templates:     templates,
		CSRF:          shared.NewCSRFManager("csrfsecret"),
		Directory:     users.NewService(identity),
		Notifications: notifications.NewService(notifications.ServiceDeps{Repo: rows, Directory: identity}),
		LoginLimit:    10,
	})
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return &consoleFixture{router: r, identity: identity, rows: rows}
}

func (f *consoleFixture) do(req *http.Request, sess *shared.Session) *httptest.ResponseRecorder {
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func signedIn(id string) *shared.Session {
	sess := &shared.Session{ID: "s-" + id}
	if id != "" {
		sess.SetUser(id)
	}
	return sess
}

func form(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginPagePrecheckRedirectsAdmin(t *testing.T) {
	f := newConsoleFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/admin-login", nil), signedIn(adminPrincipal.ID))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin", rr.Header().Get("Location"))

	rr = f.do(httptest.NewRequest(http.MethodGet, "/admin-login", nil), signedIn(""))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Admin Portal")
}

func TestLoginNonAdminDeniedAndRevoked(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn("")

	rr := f.do(form("/admin-login", url.Values{"email": {userPrincipal.Email}, "password": {"secret1"}}), sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Empty(t, sess.User())
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Access Denied", flash.Title)
}

func TestLoginAdminGranted(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn("")

	rr := f.do(form("/admin-login", url.Values{"email": {adminPrincipal.Email}, "password": {"secret1"}}), sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin", rr.Header().Get("Location"))
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Welcome Admin!", flash.Title)
	assert.Equal(t, "Login successful", flash.Message)
}

func TestLoginBadCredentialsRerendersForm(t *testing.T) {
	f := newConsoleFixture(t)

	rr := f.do(form("/admin-login", url.Values{"email": {adminPrincipal.Email}, "password": {"wrong"}}), signedIn(""))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid login credentials")
}

func TestConsoleRequiresSession(t *testing.T) {
	f := newConsoleFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/admin", nil), signedIn(""))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin-login", rr.Header().Get("Location"))
}

func TestConsoleRendersForAdmin(t *testing.T) {
	f := newConsoleFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/admin", nil), signedIn(adminPrincipal.ID))
	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Admin Dashboard")
	assert.Contains(t, body, userPrincipal.Email)
	assert.Contains(t, body, `name="idempotency_key"`)
}

func TestConsoleBroadcastToAll(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn(adminPrincipal.ID)

	rr := f.do(form("/admin/notifications", url.Values{
		"recipient": {"all"}, "category": {"upload"}, "title": {"T"}, "body": {"B"},
	}), sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Len(t, f.rows.rows, 2)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Notification sent to 2 user(s)", flash.Message)
}

func TestConsoleBroadcastValidation(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn(adminPrincipal.ID)

	f.do(form("/admin/notifications", url.Values{"recipient": {"all"}, "title": {" "}, "body": {"B"}}), sess)
	assert.Empty(t, f.rows.rows)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Validation Error", flash.Title)
	assert.Equal(t, "title is required", flash.Message)
}

func TestConsoleBroadcastUnknownCategoryFlash(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn(adminPrincipal.ID)

	f.do(form("/admin/notifications", url.Values{
		"recipient": {"all"}, "category": {"promo"}, "title": {"T"}, "body": {"B"},
	}), sess)
	assert.Empty(t, f.rows.rows)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "unknown category promo", flash.Message)
}

func TestSuspendIsNotImplemented(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn(adminPrincipal.ID)

	rr := f.do(form("/admin/users/"+userPrincipal.ID+"/suspend", url.Values{}), sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Feature Coming Soon", flash.Title)
}

func TestConsoleNonAdminRevoked(t *testing.T) {
	f := newConsoleFixture(t)
	sess := signedIn(userPrincipal.ID)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/admin", nil), sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, 1, f.identity.signedOut)
}
