package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/octabox/octabox/internal/shared"
)

// SignUpInput carries a new account's credentials.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// Service is the identity provider: credential checks, sign-up and the
// binding between cookie sessions and principals.
type Service struct {
	repo     Repository
	sessions *shared.SessionManager
	feed     *SessionFeed
	now      func() time.Time
}

// NewService constructs a new Service. feed may be nil.
func NewService(repo Repository, sessions *shared.SessionManager, feed *SessionFeed) *Service {
	return &Service{repo: repo, sessions: sessions, feed: feed, now: time.Now}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	account, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	principal := account.Principal
	return &principal, nil
}

// SignUp creates a principal with a bcrypt password hash.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	principal, err := s.repo.CreatePrincipal(ctx, Principal{
		ID:    uuid.NewString(),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Name:  strings.TrimSpace(in.Name),
	}, string(hash))
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create principal: %w", err)
	}
	return principal, nil
}

// StartSession binds the cookie session to principal under a fresh session id
// and records the auth session.
func (s *Service) StartSession(ctx context.Context, sess *shared.Session, principal *Principal, ip, userAgent string) error {
	if sess == nil || principal == nil {
		return errors.New("auth: session and principal required")
	}
	s.sessions.Renew(sess)
	now := s.now().UTC()
	if err := s.repo.CreateSession(ctx, AuthSession{
		ID:          sess.ID,
		PrincipalID: principal.ID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessions.TTL()),
		IP:          ip,
		UserAgent:   userAgent,
	}); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	sess.SetUser(principal.ID)
	s.feed.Publish(SessionEvent{Kind: SessionSignedIn, PrincipalID: principal.ID, SessionID: sess.ID, At: now})
	return nil
}

// GetSession returns the principal bound to sess. It returns (nil, nil) when
// no live session exists and an error only when the lookup itself failed.
func (s *Service) GetSession(ctx context.Context, sess *shared.Session) (*Principal, error) {
	if sess == nil || sess.User() == "" {
		return nil, nil
	}
	record, err := s.repo.FindSession(ctx, sess.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if record.PrincipalID != sess.User() || !record.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	principal, err := s.repo.GetPrincipal(ctx, record.PrincipalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}
	return principal, nil
}

// SignOut revokes the auth session and detaches the principal from the cookie
// session. The cookie session is cleared even when the store call fails.
func (s *Service) SignOut(ctx context.Context, sess *shared.Session) error {
	if sess == nil {
		return nil
	}
	principalID := sess.User()
	revokedID := sess.ID
	err := s.repo.DeleteSession(ctx, revokedID)
	sess.ClearUser()
	s.sessions.Renew(sess)
	if principalID != "" {
		s.feed.Publish(SessionEvent{Kind: SessionSignedOut, PrincipalID: principalID, SessionID: revokedID, At: s.now().UTC()})
	}
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// SweepExpired deletes auth sessions whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}
