package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/platform/httpx"
	"github.com/octabox/octabox/internal/shared"
)

// Redirect targets used on denial.
const (
	AdminLoginPath = "/admin-login"
	PublicPath     = "/"
)

// Access denied notice shown after a not_admin decision.
const (
	deniedTitle   = "Access Denied"
	deniedMessage = "You don't have admin privileges."
)

// SessionRevoker signs a cookie session out of the identity provider.
type SessionRevoker interface {
	SignOut(ctx context.Context, sess *shared.Session) error
}

// Middleware wires session resolution and the admin gate into HTTP handlers.
type Middleware struct {
	Resolver *auth.Resolver
	Gate     *Gate
	Revoker  SessionRevoker
	Audit    *shared.AuditLogger
	Logger   *slog.Logger
}

// Check resolves the request principal and runs the gate once.
func (m Middleware) Check(ctx context.Context, sess *shared.Session) (*auth.Principal, Decision) {
	principal := m.Resolver.Resolve(ctx, sess)
	return principal, m.Gate.Authorize(ctx, principal)
}

// RequireSession redirects to loginPath when no principal is signed in. No
// role is checked.
func (m Middleware) RequireSession(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := m.Resolver.Resolve(r.Context(), shared.SessionFromContext(r.Context()))
			if principal == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin guards HTML admin pages. Without a session the client goes to
// the admin login; a signed-in non-admin is signed out, shown the denial
// notice and sent to the public page.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			principal, decision := m.Check(r.Context(), sess)
			switch {
			case decision.Allowed:
				next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
			case decision.Reason == ReasonNoSession:
				http.Redirect(w, r, AdminLoginPath, http.StatusSeeOther)
			default:
				m.revoke(r.Context(), sess, principal)
				if sess != nil {
					sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Title: deniedTitle, Message: deniedMessage})
				}
				http.Redirect(w, r, PublicPath, http.StatusSeeOther)
			}
		})
	}
}

// RequireAdminAPI guards JSON endpoints with RFC7807 responses.
func (m Middleware) RequireAdminAPI() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			principal, decision := m.Check(r.Context(), sess)
			switch {
			case decision.Allowed:
				next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
			case decision.Reason == ReasonNoSession:
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrNoSession.Error())
			default:
				m.revoke(r.Context(), sess, principal)
				httpx.Problem(w, http.StatusForbidden, deniedTitle, deniedMessage)
			}
		})
	}
}

// Revoke signs sess out after a not_admin decision and audits the denial.
func (m Middleware) Revoke(ctx context.Context, sess *shared.Session, principal *auth.Principal) {
	m.revoke(ctx, sess, principal)
}

func (m Middleware) revoke(ctx context.Context, sess *shared.Session, principal *auth.Principal) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	entityID := "unknown"
	if sess != nil {
		entityID = sess.ID
	}
	if m.Revoker != nil {
		if err := m.Revoker.SignOut(ctx, sess); err != nil {
			logger.Warn("revoke session after denial", slog.Any("error", err))
		}
	}
	if m.Audit == nil || principal == nil {
		return
	}
	if err := m.Audit.Record(ctx, shared.AuditLog{
		ActorID:  principal.ID,
		Action:   shared.AuditAccessDeny,
		Entity:   shared.AuditEntitySess,
		EntityID: entityID,
		Meta:     map[string]any{"reason": string(ReasonNotAdmin)},
	}); err != nil {
		logger.Warn("audit access denial", slog.Any("error", err))
	}
}
