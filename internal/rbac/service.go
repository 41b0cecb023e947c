package rbac

import (
	"context"
	"log/slog"

	"github.com/octabox/octabox/internal/auth"
	"github.com/octabox/octabox/internal/observability"
)

// Gate decides whether a principal may use the admin console. It keeps no
// cache: every call is a fresh round trip to the role store.
type Gate struct {
	store   RoleStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewGate constructs a Gate.
func NewGate(store RoleStore, logger *slog.Logger, metrics *observability.Metrics) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: store, logger: logger, metrics: metrics}
}

// Authorize never returns an error; store failures deny with ReasonNotAdmin.
func (g *Gate) Authorize(ctx context.Context, principal *auth.Principal) Decision {
	decision := g.decide(ctx, principal)
	g.metrics.ObserveGateDecision(decision.Allowed, string(decision.Reason))
	return decision
}

func (g *Gate) decide(ctx context.Context, principal *auth.Principal) Decision {
	if principal == nil {
		return Deny(ReasonNoSession)
	}
	ok, err := g.store.HasRole(ctx, principal.ID, RoleAdmin)
	if err != nil {
		g.logger.Error("admin role lookup failed", slog.String("principal_id", principal.ID), slog.Any("error", err))
		return Deny(ReasonNotAdmin)
	}
	if !ok {
		return Deny(ReasonNotAdmin)
	}
	return Allow()
}
