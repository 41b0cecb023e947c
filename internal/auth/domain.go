package auth

import "time"

// Principal is an authenticated identity as known to the identity provider.
type Principal struct {
	ID             string
	Email          string
	Name           string
	CreatedAt      time.Time
	LastSignInAt   *time.Time
	SuspendedUntil *time.Time
}

// HasSignedIn reports whether the principal ever completed a sign-in.
func (p Principal) HasSignedIn() bool {
	return p.LastSignInAt != nil
}

// SuspendedAt reports whether the suspension marker is still in effect at t.
func (p Principal) SuspendedAt(t time.Time) bool {
	return p.SuspendedUntil != nil && p.SuspendedUntil.After(t)
}

// Account pairs a principal with its stored password hash.
type Account struct {
	Principal
	PasswordHash string
}

// AuthSession records a live sign-in bound to a cookie session id.
type AuthSession struct {
	ID          string
	PrincipalID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	IP          string
	UserAgent   string
}

// SessionEventKind enumerates session change notifications.
type SessionEventKind string

const (
	SessionSignedIn  SessionEventKind = "signed_in"
	SessionSignedOut SessionEventKind = "signed_out"
)

// SessionEvent is delivered to the session feed subscriber.
type SessionEvent struct {
	Kind        SessionEventKind
	PrincipalID string
	SessionID   string
	At          time.Time
}
