package admin

import (
	"context"
	"errors"
	"log/slog"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
)

// State is a step of the admin login flow.
type State string

const (
	StateIdle             State = "idle"
	StateAuthenticating   State = "authenticating"
	StateAdminVerifying   State = "admin_verifying"
	StateGranted          State = "granted"
	StateRevokedAndDenied State = "revoked_and_denied"
	StateAuthFailed       State = "auth_failed"
)

// Messages surfaced by the flow.
const (
	msgInFlight     = "A sign-in is already in progress for this session."
	msgStartFailed  = "Could not start your session. Please try again."
	msgNotAdmin     = "You don't have admin privileges."
	msgLoginSuccess = "Login successful"
)

// Authenticator checks credentials against the identity provider.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Principal, error)
}

// SessionStarter binds a principal to the cookie session.
type SessionStarter interface {
	StartSession(ctx context.Context, sess *shared.Session, principal *auth.Principal, ip, userAgent string) error
}

// Authorizer is the admin gate.
type Authorizer interface {
	Authorize(ctx context.Context, principal *auth.Principal) rbac.Decision
}

// DenialRevoker signs a denied principal back out.
type DenialRevoker interface {
	Revoke(ctx context.Context, sess *shared.Session, principal *auth.Principal)
}

// Locker guards a login per cookie session.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Credentials is one submission of the admin login form.
type Credentials struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// Outcome reports where a submission ended. Trail lists every state visited.
type Outcome struct {
	State     State
	Principal *auth.Principal
	Message   string
	Trail     []State
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Trail = append(o.Trail, s)
}

// LoginFlow runs the admin login state machine.
type LoginFlow struct {
	authn    Authenticator
	sessions SessionStarter
	gate     Authorizer
	revoker  DenialRevoker
	locker   Locker
	logger   *slog.Logger
}

// NewLoginFlow constructs a LoginFlow. locker may be nil.
func NewLoginFlow(authn Authenticator, sessions SessionStarter, gate Authorizer, revoker DenialRevoker, locker Locker, logger *slog.Logger) *LoginFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginFlow{authn: authn, sessions: sessions, gate: gate, revoker: revoker, locker: locker, logger: logger}
}

// Submit drives one credential submission to a terminal state. A non-admin
// principal is always signed out before the denial is reported.
func (f *LoginFlow) Submit(ctx context.Context, sess *shared.Session, creds Credentials) Outcome {
	out := Outcome{}
	out.enter(StateIdle)

	if f.locker != nil && sess != nil {
		release, err := f.locker.Acquire(ctx, shared.LoginLockKey(sess.ID))
		if err != nil {
			if !errors.Is(err, shared.ErrLocked) {
				f.logger.Warn("admin login lock unavailable", slog.Any("error", err))
			}
			return f.fail(out, msgInFlight)
		}
		defer release()
	}

	out.enter(StateAuthenticating)
	principal, err := f.authn.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		return f.fail(out, err.Error())
	}
	if err := f.sessions.StartSession(ctx, sess, principal, creds.IP, creds.UserAgent); err != nil {
		f.logger.Error("start admin session", slog.Any("error", err))
		return f.fail(out, msgStartFailed)
	}
	out.Principal = principal

	out.enter(StateAdminVerifying)
	if decision := f.gate.Authorize(ctx, principal); !decision.Allowed {
		f.revoker.Revoke(ctx, sess, principal)
		out.enter(StateRevokedAndDenied)
		out.Message = msgNotAdmin
		return out
	}
	out.enter(StateGranted)
	out.Message = msgLoginSuccess
	return out
}

// fail records AuthFailed and the return to Idle.
func (f *LoginFlow) fail(out Outcome, message string) Outcome {
	out.enter(StateAuthFailed)
	out.Trail = append(out.Trail, StateIdle)
	out.Message = message
	return out
}
