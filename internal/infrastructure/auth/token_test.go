package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

func newTestTokens(now time.Time) *Tokens {
	t := NewTokens("test-secret", "salesboard", time.Hour)
	t.now = func() time.Time { return now }
	return t
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	tokens := newTestTokens(now)

	raw, err := tokens.Issue(Principal{Subject: "u-1", Name: "carol"})
	require.NoError(t, err)

	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Principal{Subject: "u-1", Name: "carol"}, p)
	assert.Equal(t, "carol", p.DisplayName())
}

func TestDisplayNameFallsBackToSubject(t *testing.T) {
	assert.Equal(t, "u-1", Principal{Subject: "u-1"}.DisplayName())
}

func TestParseRejects(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	tokens := newTestTokens(now)

	expired, err := newTestTokens(now.Add(-2 * time.Hour)).Issue(Principal{Subject: "u-1"})
	require.NoError(t, err)

	otherIssuer, err := NewTokens("test-secret", "someone-else", time.Hour).Issue(Principal{Subject: "u-1"})
	require.NoError(t, err)

	otherSecret, err := NewTokens("wrong", "salesboard", time.Hour).Issue(Principal{Subject: "u-1"})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u-1", "iss": "salesboard", "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"other issuer": otherIssuer,
		"other secret": otherSecret,
		"alg none":     none,
		"garbage":      "not.a.token",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Parse(raw)
			assert.ErrorIs(t, err, domainErrors.ErrUnauthenticated)
		})
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	_, err := NewTokens("s", "", time.Hour).Issue(Principal{Name: "carol"})
	assert.ErrorIs(t, err, domainErrors.ErrValidation)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Subject: "u-1"})
	p, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u-1", p.Subject)
}
