package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerExcludesConcurrentHolders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewLocker(client, time.Minute)
	ctx := context.Background()
	key := BroadcastLockKey("actor-1")

	release, err := locker.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = locker.Acquire(ctx, BroadcastLockKey("actor-2"))
	assert.NoError(t, err, "locks are per actor")

	release()
	release2, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}

func TestLockerExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewLocker(client, time.Second)
	ctx := context.Background()
	key := LoginLockKey("sess")

	_, err := locker.Acquire(ctx, key)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	_, err = locker.Acquire(ctx, key)
	assert.NoError(t, err)
}
