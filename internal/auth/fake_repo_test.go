package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	accounts   map[string]*auth.Account
	sessions   map[string]auth.AuthSession
	sessionErr error
}

func newMemoryRepo(accounts ...*auth.Account) *memoryRepo {
	repo := &memoryRepo{accounts: map[string]*auth.Account{}, sessions: map[string]auth.AuthSession{}}
	for _, a := range accounts {
		repo.accounts[a.Email] = a
	}
	return repo
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memoryRepo) GetPrincipal(ctx context.Context, id string) (*auth.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			p := a.Principal
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) CreatePrincipal(ctx context.Context, p auth.Principal, passwordHash string) (*auth.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[p.Email]; ok {
		return nil, shared.ErrEmailTaken
	}
	p.CreatedAt = time.Now()
	m.accounts[p.Email] = &auth.Account{Principal: p, PasswordHash: passwordHash}
	return &p, nil
}

func (m *memoryRepo) CreateSession(ctx context.Context, s auth.AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memoryRepo) FindSession(ctx context.Context, id string) (*auth.AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (m *memoryRepo) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memoryRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
