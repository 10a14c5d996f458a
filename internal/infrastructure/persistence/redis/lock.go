package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
)

// releaseScript deletes the key only while it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const lockKeyPrefix = "lock:"

type Locker struct {
	client  *redis.Client
	release *redis.Script
}

func NewLocker(conn *Connection) *Locker {
	return &Locker{
		client:  conn.GetClient(),
		release: redis.NewScript(releaseScript),
	}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	metrics := monitoring.NewLockMetrics(key)
	metrics.Attempt()

	token := uuid.NewString()
	fullKey := lockKeyPrefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		metrics.Failed("error")
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		metrics.Failed("held")
		return nil, false, nil
	}
	held := metrics.Acquired()

	release := func(ctx context.Context) error {
		held()
		if err := l.release.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
