package users

import (
	"context"
	"fmt"
)

// RepositoryPort defines data access methods for the principal directory.
type RepositoryPort interface {
	ListMembers(ctx context.Context) ([]Member, error)
	ListPrincipalIDs(ctx context.Context) ([]string, error)
}

// Service reads the principal directory.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListMembers returns all principals for display.
func (s *Service) ListMembers(ctx context.Context) ([]Member, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// ListPrincipalIDs returns the ids a broadcast to everyone fans out to.
func (s *Service) ListPrincipalIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ListPrincipalIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list principal ids: %w", err)
	}
	return ids, nil
}
