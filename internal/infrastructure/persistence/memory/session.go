package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
)

// SessionStore keeps session values in process memory, stored as strings the same
// way the Redis hash does.
type SessionStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string]map[string]string)}
}

func (s *SessionStore) Session(id string) ports.Session {
	return &session{store: s, id: id}
}

type session struct {
	store *SessionStore
	id    string
}

func (s *session) ID() string { return s.id }

func (s *session) get(key string) (string, bool) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v, ok := s.store.data[s.id][key]
	return v, ok
}

func (s *session) set(key, value string) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	m, ok := s.store.data[s.id]
	if !ok {
		m = make(map[string]string)
		s.store.data[s.id] = m
	}
	m[key] = value
}

func (s *session) GetString(ctx context.Context, key string) (string, bool, error) {
	v, ok := s.get(key)
	return v, ok, nil
}

func (s *session) SetString(ctx context.Context, key, value string) error {
	s.set(key, value)
	return nil
}

func (s *session) GetInt(ctx context.Context, key string) (int, bool, error) {
	v, ok := s.get(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *session) SetInt(ctx context.Context, key string, value int) error {
	s.set(key, strconv.Itoa(value))
	return nil
}

// Locker is a process-local ports.Locker.
type Locker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]time.Time), clock: time.Now}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, false, nil
	}
	expiry := now.Add(ttl)
	l.held[key] = expiry

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if exp, ok := l.held[key]; ok && exp.Equal(expiry) {
			delete(l.held, key)
		}
		return nil
	}
	return release, true, nil
}
