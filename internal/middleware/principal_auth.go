package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/numaras/salesagent-sub000/internal/models"
	"github.com/numaras/salesagent-sub000/internal/services/auth"
)

const (
	identityKey  = "identity"
	dryRunHeader = "X-Dry-Run"
)

// TokenValidator resolves a bearer token to a caller identity
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.Identity, error)
}

type PrincipalAuthMiddleware struct {
	tokens TokenValidator
}

func NewPrincipalAuthMiddleware(tokens TokenValidator) *PrincipalAuthMiddleware {
	return &PrincipalAuthMiddleware{tokens: tokens}
}

// RequirePrincipal validates the bearer token and stores the identity in
// the gin context. X-Dry-Run: true marks the request as a dry run.
func (m *PrincipalAuthMiddleware) RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := m.Authenticate(c.Request)
		if err != nil {
			status := http.StatusUnauthorized
			msg := "Invalid or expired token"
			switch {
			case errors.Is(err, errMissingBearer):
				msg = "Invalid authorization header format"
			case errors.Is(err, auth.ErrPrincipalNotFound):
				msg = "Principal not found"
			case !errors.Is(err, auth.ErrInvalidToken):
				status = http.StatusInternalServerError
				msg = "Failed to authenticate principal"
			}
			c.JSON(status, gin.H{"success": false, "error": msg})
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

var errMissingBearer = errors.New("missing bearer token")

// Authenticate resolves the identity of an HTTP request
func (m *PrincipalAuthMiddleware) Authenticate(r *http.Request) (*models.Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errMissingBearer
	}
	identity, err := m.tokens.ValidateToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, err
	}
	if dryRun, err := strconv.ParseBool(r.Header.Get(dryRunHeader)); err == nil {
		identity.DryRun = dryRun
	}
	return identity, nil
}

// GetIdentity returns the identity set by RequirePrincipal
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok
}

type identityCtxKey struct{}

// WithIdentity attaches identity to ctx for transports that only see a
// context, such as MCP tool handlers
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext returns the identity attached by WithIdentity
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(*models.Identity)
	return identity, ok && identity != nil
}
