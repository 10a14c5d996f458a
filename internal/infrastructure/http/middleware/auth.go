package middleware

import (
	"fmt"
	"net/http"
	"strings"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/auth"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/response"
)

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return raw, raw != ""
}

// NewAuthMiddleware rejects requests without a valid bearer token.
func NewAuthMiddleware(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				response.WriteDomainError(w, fmt.Errorf("missing bearer token: %w", domainErrors.ErrUnauthenticated))
				return
			}

			p, err := tokens.Parse(raw)
			if err != nil {
				response.WriteDomainError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}
