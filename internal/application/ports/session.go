package ports

import "context"

// Session is the key/value state of one user session.
type Session interface {
	ID() string
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string) error
	GetInt(ctx context.Context, key string) (int, bool, error)
	SetInt(ctx context.Context, key string, value int) error
}

type SessionStore interface {
	Session(id string) Session
}
