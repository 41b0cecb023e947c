package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/octabox/octabox/internal/observability"
	"github.com/octabox/octabox/internal/shared"
)

// ErrFeedSubscribed is returned when a second subscriber tries to Run a feed.
var ErrFeedSubscribed = errors.New("auth: session feed already has a subscriber")

// SessionFeed delivers session change events to a single subscriber through
// a bounded buffer. Publishing never blocks; overflow is dropped and counted.
type SessionFeed struct {
	events     chan SessionEvent
	subscribed atomic.Bool
	metrics    *observability.Metrics
}

// NewSessionFeed returns a feed buffering up to capacity events.
func NewSessionFeed(capacity int, metrics *observability.Metrics) *SessionFeed {
	if capacity <= 0 {
		capacity = 64
	}
	return &SessionFeed{events: make(chan SessionEvent, capacity), metrics: metrics}
}

// Publish enqueues ev and reports whether it was accepted. A nil feed
// discards everything.
func (f *SessionFeed) Publish(ev SessionEvent) bool {
	if f == nil {
		return false
	}
	select {
	case f.events <- ev:
		return true
	default:
		f.metrics.SessionEventDropped()
		return false
	}
}

// Run delivers events to fn until ctx is done. Only one Run may be active
// for the lifetime of the feed.
func (f *SessionFeed) Run(ctx context.Context, fn func(context.Context, SessionEvent)) error {
	if !f.subscribed.CompareAndSwap(false, true) {
		return ErrFeedSubscribed
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-f.events:
			fn(ctx, ev)
		}
	}
}

// AuditSubscriber records session events into the audit log.
func AuditSubscriber(audit *shared.AuditLogger, logger *slog.Logger) func(context.Context, SessionEvent) {
	return func(ctx context.Context, ev SessionEvent) {
		action := shared.AuditSignIn
		if ev.Kind == SessionSignedOut {
			action = shared.AuditSignOut
		}
		err := audit.Record(ctx, shared.AuditLog{
			ActorID:  ev.PrincipalID,
			Action:   action,
			Entity:   shared.AuditEntitySess,
			EntityID: ev.SessionID,
			At:       ev.At,
		})
		if err != nil && logger != nil {
			logger.Warn("audit session event", slog.String("kind", string(ev.Kind)), slog.Any("error", err))
		}
	}
}
