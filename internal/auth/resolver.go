package auth

import (
	"context"
	"log/slog"

	"github.com/octabox/octabox/internal/observability"
	"github.com/octabox/octabox/internal/shared"
)

// SessionLookup is the identity provider's current-session lookup.
type SessionLookup interface {
	GetSession(ctx context.Context, sess *shared.Session) (*Principal, error)
}

// Resolver obtains the principal behind a request's session.
type Resolver struct {
	provider SessionLookup
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver constructs a Resolver.
func NewResolver(provider SessionLookup, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{provider: provider, logger: logger, metrics: metrics}
}

// Resolve returns the current principal or nil. A failing provider also
// yields nil so protected surfaces fail closed; the failure is logged and
// counted so an outage stays distinguishable from a signed-out user.
func (r *Resolver) Resolve(ctx context.Context, sess *shared.Session) *Principal {
	principal, err := r.provider.GetSession(ctx, sess)
	if err != nil {
		r.metrics.ResolveFailed()
		r.logger.Warn("session provider unavailable, treating request as signed out", slog.Any("error", err))
		return nil
	}
	return principal
}

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored by the gate middleware.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
