package admin

import (
	"context"
	"sync"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/notifications"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
	"github.com/octabox/octabox/internal/users"
)

// fakeIdentity is an in-memory identity provider.
type fakeIdentity struct {
	mu        sync.Mutex
	passwords map[string]string
	byEmail   map[string]*auth.Principal
	byID      map[string]*auth.Principal
	started   int
	signedOut int
}

func newFakeIdentity(principals ...auth.Principal) *fakeIdentity {
	f := &fakeIdentity{passwords: map[string]string{}, byEmail: map[string]*auth.Principal{}, byID: map[string]*auth.Principal{}}
	for i := range principals {
		p := principals[i]
		f.passwords[p.Email] = "secret1"
		f.byEmail[p.Email] = &p
		f.byID[p.ID] = &p
	}
	return f
}

func (f *fakeIdentity) Authenticate(ctx context.Context, email, password string) (*auth.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byEmail[email]
	if !ok || f.passwords[email] != password {
		return nil, shared.ErrInvalidCredentials
	}
	return p, nil
}

func (f *fakeIdentity) StartSession(ctx context.Context, sess *shared.Session, principal *auth.Principal, ip, userAgent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	sess.SetUser(principal.ID)
	return nil
}

func (f *fakeIdentity) GetSession(ctx context.Context, sess *shared.Session) (*auth.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess == nil {
		return nil, nil
	}
	return f.byID[sess.User()], nil
}

func (f *fakeIdentity) SignOut(ctx context.Context, sess *shared.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut++
	sess.ClearUser()
	return nil
}

func (f *fakeIdentity) ListMembers(ctx context.Context) ([]users.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]users.Member, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, users.Member{Principal: *p})
	}
	return out, nil
}

func (f *fakeIdentity) ListPrincipalIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeRoles map[string]bool

func (f fakeRoles) HasRole(ctx context.Context, principalID string, role rbac.Role) (bool, error) {
	return role == rbac.RoleAdmin && f[principalID], nil
}

type notificationRows struct {
	mu     sync.Mutex
	admins fakeRoles
	rows   []notifications.Notification
}

func (n *notificationRows) InsertBatch(ctx context.Context, actorID string, recipients []string, d notifications.Draft) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.admins[actorID] {
		return 0, notifications.ErrForbidden
	}
	for _, r := range recipients {
		n.rows = append(n.rows, notifications.Notification{UserID: r, Title: d.Title, Message: d.Message, Category: d.Category})
	}
	return int64(len(recipients)), nil
}

func (n *notificationRows) ListRecent(ctx context.Context, limit int) ([]notifications.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.Notification(nil), n.rows...), nil
}

func (n *notificationRows) Count(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return int64(len(n.rows)), nil
}
