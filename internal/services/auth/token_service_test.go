package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numaras/salesagent-sub000/internal/database/memstore"
	"github.com/numaras/salesagent-sub000/internal/models"
)

func newTokenService(t *testing.T, ttl time.Duration) (*TokenService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p1", Name: "Buyer One"})
	return NewTokenService(store.Principals(), "test-secret", ttl), store
}

func TestIssueAndValidateToken(t *testing.T) {
	svc, _ := newTokenService(t, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, "t1", "p1", "a2a")
	require.NoError(t, err)

	identity, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "t1", identity.TenantID)
	assert.Equal(t, "p1", identity.PrincipalID)
	assert.Equal(t, "a2a", identity.Protocol)
	assert.False(t, identity.DryRun)
}

func TestProtocolDefaultsToMCP(t *testing.T) {
	svc, _ := newTokenService(t, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, "t1", "p1", "")
	require.NoError(t, err)
	identity, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "mcp", identity.Protocol)
}

func TestIssueTokenUnknownPrincipal(t *testing.T) {
	svc, _ := newTokenService(t, time.Hour)
	_, err := svc.IssueToken(context.Background(), "t1", "ghost", "")
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestValidateTokenRejects(t *testing.T) {
	svc, _ := newTokenService(t, time.Hour)
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired, _ := newTokenService(t, -time.Minute)
		token, err := expired.IssueToken(ctx, "t1", "p1", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		store := memstore.New()
		store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p1"})
		other := NewTokenService(store.Principals(), "another-secret", time.Hour)
		token, err := other.IssueToken(ctx, "t1", "p1", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &PrincipalClaims{TenantID: "t1", PrincipalID: "p1"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(ctx, s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing claims", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &PrincipalClaims{TenantID: "t1"})
		s, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(ctx, s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("principal removed", func(t *testing.T) {
		store := memstore.New()
		store.PutPrincipal(models.Principal{TenantID: "t1", PrincipalID: "p2"})
		issuer := NewTokenService(store.Principals(), "test-secret", time.Hour)
		token, err := issuer.IssueToken(ctx, "t1", "p2", "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrPrincipalNotFound)
	})
}
