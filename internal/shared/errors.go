package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is surfaced verbatim on failed sign-in.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrEmailTaken indicates a sign-up for an existing email.
	ErrEmailTaken = errors.New("user already registered")
	// ErrNoSession indicates the request carries no authenticated principal.
	ErrNoSession = errors.New("no active session")
	// ErrNotAdmin indicates the principal lacks the admin role.
	ErrNotAdmin = errors.New("you don't have admin privileges")
	// ErrLocked indicates another request holds the same in-flight lock.
	ErrLocked = errors.New("operation already in progress")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
