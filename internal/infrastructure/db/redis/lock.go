package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLockTTL = 10 * time.Second
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// EmailLock serializes registrations per email.
// Key format: registration:lock:<normalized email>
type EmailLock struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewEmailLock creates an EmailLock wrapping the given Redis client. A
// non-positive ttl falls back to defaultLockTTL.
func NewEmailLock(client *redis.Client, ttl time.Duration, log zerolog.Logger) *EmailLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &EmailLock{client: client, ttl: ttl, log: log}
}

// Acquire tries to take the lock for email without waiting. acquired is
// false when another registration holds it.
func (l *EmailLock) Acquire(ctx context.Context, email string) (func(), bool, error) {
	key := l.key(email)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire registration lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", key).Msg("failed to release registration lock")
		}
	}
	return release, true, nil
}

func (l *EmailLock) key(email string) string {
	return "registration:lock:" + email
}
