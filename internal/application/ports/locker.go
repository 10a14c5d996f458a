package ports

import (
	"context"
	"time"
)

type Locker interface {
	// Acquire returns a release func when the lock was taken, or ok=false when
	// someone else holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
