package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/rbac"
	"github.com/octabox/octabox/internal/shared"
)

// AccountFinder looks a principal up by email.
type AccountFinder interface {
	FindByEmail(ctx context.Context, email string) (*auth.Account, error)
}

// Authorizer is the admin gate.
type Authorizer interface {
	Authorize(ctx context.Context, principal *auth.Principal) rbac.Decision
}

// AdminReport is the outcome of CheckAdmin.
type AdminReport struct {
	Email       string `json:"email"`
	PrincipalID string `json:"principal_id"`
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
}

// CheckAdmin runs the same gate the admin console uses for the principal
// registered under email.
func CheckAdmin(ctx context.Context, accounts AccountFinder, gate Authorizer, email string) (AdminReport, error) {
	account, err := accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return AdminReport{}, fmt.Errorf("no principal registered as %s: %w", email, err)
		}
		return AdminReport{}, fmt.Errorf("find principal: %w", err)
	}
	principal := account.Principal
	decision := gate.Authorize(ctx, &principal)
	return AdminReport{
		Email:       principal.Email,
		PrincipalID: principal.ID,
		Allowed:     decision.Allowed,
		Reason:      string(decision.Reason),
	}, nil
}
