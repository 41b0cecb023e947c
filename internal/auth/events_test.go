package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octabox/octabox/internal/auth"
)

func TestSessionFeedDropsWhenFull(t *testing.T) {
	feed := auth.NewSessionFeed(1, nil)

	assert.True(t, feed.Publish(auth.SessionEvent{Kind: auth.SessionSignedIn, PrincipalID: "p-1"}))
	assert.False(t, feed.Publish(auth.SessionEvent{Kind: auth.SessionSignedOut, PrincipalID: "p-1"}))
}

func TestNilSessionFeedDiscards(t *testing.T) {
	var feed *auth.SessionFeed
	assert.False(t, feed.Publish(auth.SessionEvent{}))
}

func TestSessionFeedSingleSubscriber(t *testing.T) {
	feed := auth.NewSessionFeed(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan auth.SessionEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- feed.Run(ctx, func(_ context.Context, ev auth.SessionEvent) { received <- ev })
	}()

	require.True(t, feed.Publish(auth.SessionEvent{Kind: auth.SessionSignedIn, PrincipalID: "p-1"}))
	select {
	case ev := <-received:
		assert.Equal(t, "p-1", ev.PrincipalID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	err := feed.Run(ctx, func(context.Context, auth.SessionEvent) {})
	assert.ErrorIs(t, err, auth.ErrFeedSubscribed)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
