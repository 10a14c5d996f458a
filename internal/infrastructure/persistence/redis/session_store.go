package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps each session in a hash at session:<id>. Every write pushes
// the expiry out by ttl.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(conn *Connection, ttl time.Duration) *SessionStore {
	return &SessionStore{client: conn.GetClient(), ttl: ttl}
}

func (s *SessionStore) Session(id string) ports.Session {
	return &session{store: s, id: id, key: sessionKeyPrefix + id}
}

type session struct {
	store *SessionStore
	id    string
	key   string
}

func (s *session) ID() string { return s.id }

func (s *session) GetString(ctx context.Context, field string) (string, bool, error) {
	v, err := s.store.client.HGet(ctx, s.key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *session) SetString(ctx context.Context, field, value string) error {
	pipe := s.store.client.TxPipeline()
	pipe.HSet(ctx, s.key, field, value)
	if s.store.ttl > 0 {
		pipe.Expire(ctx, s.key, s.store.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *session) GetInt(ctx context.Context, field string) (int, bool, error) {
	v, ok, err := s.GetString(ctx, field)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *session) SetInt(ctx context.Context, field string, value int) error {
	return s.SetString(ctx, field, strconv.Itoa(value))
}
