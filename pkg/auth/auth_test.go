package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc, err := NewTokenService(TokenConfig{SecretKey: "secret", Issuer: "ideamap", TTL: time.Hour})
	require.NoError(t, err)

	token, expiresAt, err := svc.Issue("3f0c2d1e-6a4b-4c1d-9e8f-0a1b2c3d4e5f")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "3f0c2d1e-6a4b-4c1d-9e8f-0a1b2c3d4e5f", claims.SessionID)
	assert.Equal(t, "ideamap", claims.Issuer)
}

func TestTokenService_Rejects(t *testing.T) {
	svc, err := NewTokenService(TokenConfig{SecretKey: "secret", Issuer: "ideamap", TTL: time.Hour})
	require.NoError(t, err)
	other, err := NewTokenService(TokenConfig{SecretKey: "other", Issuer: "ideamap"})
	require.NoError(t, err)
	foreign, err := NewTokenService(TokenConfig{SecretKey: "secret", Issuer: "someone-else"})
	require.NoError(t, err)

	good, _, err := svc.Issue("s1")
	require.NoError(t, err)
	wrongKey, _, err := other.Issue("s1")
	require.NoError(t, err)
	wrongIssuer, _, err := foreign.Issue("s1")
	require.NoError(t, err)

	expiredSvc, err := NewTokenService(TokenConfig{SecretKey: "secret", Issuer: "ideamap", TTL: time.Minute})
	require.NoError(t, err)
	expiredSvc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredSvc.Issue("s1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "s1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "missing", token: "  ", wantErr: ErrMissingToken},
		{name: "wrong key", token: wrongKey, wantErr: ErrInvalidSignature},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "wrong issuer", token: wrongIssuer, wantErr: ErrInvalidToken},
		{name: "unsigned", token: unsigned, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.token", wantErr: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = svc.Validate(good)
	assert.NoError(t, err)

	_, err = NewTokenService(TokenConfig{})
	assert.Error(t, err)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), &Claims{SessionID: "s1"})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "s1", claims.SessionID)
}

func TestSlidingWindowLimiter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok, "window slides")

	require.NoError(t, l.Reset(ctx, "a"))
	now = now.Add(2 * time.Minute)
	l.Prune()
	assert.Empty(t, l.windows)
}

func TestPrefixedLimiter(t *testing.T) {
	l := NewSessionRateLimiter(1)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "s1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "s1")
	assert.False(t, ok)

	require.NoError(t, l.Reset(ctx, "s1"))
	ok, _ = l.Allow(ctx, "s1")
	assert.True(t, ok)
}
