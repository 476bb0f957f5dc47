package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker is a single-holder lease in Redis. Only the holder's token can
// release it; an expired lease may be taken by someone else.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

// NewLocker returns nil when Redis is not configured.
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// Acquire takes the lease at key for ttl. When another holder has it, ok is
// false and release is a no-op.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	noop := func(context.Context) error { return nil }
	if l == nil || l.client == nil {
		return noop, false, errors.New("lock client not configured")
	}
	if key == "" {
		return noop, false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return noop, false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return noop, false, err
	}
	return func(ctx context.Context) error {
		return l.script.Run(ctx, l.client, []string{key}, token).Err()
	}, true, nil
}
