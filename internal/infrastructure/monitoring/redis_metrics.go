package monitoring

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHook times every command, pipeline and dial issued by a client.
type RedisHook struct{}

func (RedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		RedisCommandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		return err
	}
}

func (RedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		RedisCommandDuration.WithLabelValues("pipeline").Observe(time.Since(start).Seconds())
		return err
	}
}

func (RedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		RedisCommandDuration.WithLabelValues("dial").Observe(time.Since(start).Seconds())
		return conn, err
	}
}

func InstrumentRedisClient(client *redis.Client) *redis.Client {
	client.AddHook(RedisHook{})
	return client
}

// LockMetrics tracks one acquisition of a distributed lock.
type LockMetrics struct {
	lockType string
}

func NewLockMetrics(lockKey string) *LockMetrics {
	return &LockMetrics{lockType: getLockType(lockKey)}
}

func (m *LockMetrics) Attempt() {
	RedisLockAttemptsTotal.WithLabelValues(m.lockType).Inc()
}

func (m *LockMetrics) Failed(reason string) {
	RedisLockFailureTotal.WithLabelValues(m.lockType, reason).Inc()
}

// Acquired counts the success and returns a func to call on release, which
// observes how long the lock was held.
func (m *LockMetrics) Acquired() func() {
	RedisLockSuccessTotal.WithLabelValues(m.lockType).Inc()
	start := time.Now()
	return func() {
		RedisLockDuration.WithLabelValues(m.lockType).Observe(time.Since(start).Seconds())
	}
}
