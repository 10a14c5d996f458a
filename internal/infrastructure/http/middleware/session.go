package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/pkg/generator"
)

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type sessionKey struct{}

// NewSessionMiddleware attaches the caller's session to the request context. A
// missing or malformed cookie gets a fresh session id.
func NewSessionMiddleware(store ports.SessionStore, ids generator.IDGenerator, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(opts.CookieName); err == nil && generator.IsSessionID(c.Value) {
				id = c.Value
			} else {
				id = ids.NewSessionID()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     opts.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionKey{}, store.Session(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionFromContext(ctx context.Context) (ports.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(ports.Session)
	return s, ok
}
