package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

type Principal struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
}

// DisplayName is the identity recorded as buyer or seller. Falls back to the
// subject when the token carries no name.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Subject
}

type claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(p Principal) (string, error) {
	if p.Subject == "" {
		return "", domainErrors.NewValidationError(map[string]string{"sub": "must not be empty"}, nil)
	}

	now := t.now()
	c := claims{
		Name: p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (Principal, error) {
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("token expired: %w", domainErrors.ErrUnauthenticated)
		}
		return Principal{}, fmt.Errorf("invalid token: %w", domainErrors.ErrUnauthenticated)
	}
	if c.Subject == "" {
		return Principal{}, fmt.Errorf("token has no subject: %w", domainErrors.ErrUnauthenticated)
	}
	return Principal{Subject: c.Subject, Name: c.Name}, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
