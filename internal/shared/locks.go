package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BroadcastLockKey builds the redis key guarding one broadcast per actor.
func BroadcastLockKey(actorID string) string {
	return fmt.Sprintf("octabox:broadcast:%s:lock", actorID)
}

// LoginLockKey builds the redis key guarding one admin login per cookie session.
func LoginLockKey(sessionID string) string {
	return fmt.Sprintf("octabox:admin-login:%s:lock", sessionID)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out short-lived in-flight locks stored in Redis.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker returns a Locker whose locks expire after ttl if never released.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// Acquire takes the lock for key and returns its release func. ErrLocked is
// returned when somebody else holds it.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// Release with a fresh context so a cancelled request still unlocks.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}
