package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/database/repository"
	"github.com/numaras/salesagent-sub000/internal/models"
)

const (
	defaultSecret = "default-secret-key-change-in-production"
	issuer        = "adcp-sales-agent"
)

var (
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrPrincipalNotFound = errors.New("principal not found")
)

// PrincipalClaims are the claims of a principal bearer token
type PrincipalClaims struct {
	TenantID    string `json:"tenant_id"`
	PrincipalID string `json:"principal_id"`
	// Protocol is "mcp" or "a2a"; empty means mcp
	Protocol string `json:"protocol,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 principal tokens
type TokenService struct {
	principals repository.PrincipalStore
	jwtSecret  []byte
	tokenTTL   time.Duration
}

func NewTokenService(principals repository.PrincipalStore, secret string, tokenTTL time.Duration) *TokenService {
	if secret == "" {
		logrus.Warn("JWT_SECRET is not set, using the default development secret")
		secret = defaultSecret
	}
	logrus.Infof("Principal token TTL: %s", tokenTTL)

	return &TokenService{
		principals: principals,
		jwtSecret:  []byte(secret),
		tokenTTL:   tokenTTL,
	}
}

// IssueToken signs a token for a principal of a tenant
func (s *TokenService) IssueToken(ctx context.Context, tenantID, principalID, protocol string) (string, error) {
	if _, err := s.principals.GetByID(ctx, tenantID, principalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: %s/%s", ErrPrincipalNotFound, tenantID, principalID)
		}
		return "", fmt.Errorf("failed to load principal: %w", err)
	}

	now := time.Now()
	claims := &PrincipalClaims{
		TenantID:    tenantID,
		PrincipalID: principalID,
		Protocol:    protocol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   principalID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses a bearer token and resolves the caller identity.
// The principal must still exist.
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*models.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PrincipalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*PrincipalClaims)
	if !ok || !token.Valid || claims.TenantID == "" || claims.PrincipalID == "" {
		return nil, ErrInvalidToken
	}

	if _, err := s.principals.GetByID(ctx, claims.TenantID, claims.PrincipalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	protocol := claims.Protocol
	if protocol == "" {
		protocol = "mcp"
	}
	return &models.Identity{
		TenantID:    claims.TenantID,
		PrincipalID: claims.PrincipalID,
		Protocol:    protocol,
	}, nil
}
