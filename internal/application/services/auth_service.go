package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/config"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
)

// Claims carried by bearer tokens for mutation routes
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ScopeWrite allows saving and deleting gauges and defaults
const ScopeWrite = "write"

// AuthService mints and validates bearer tokens
type AuthService struct {
	jwtConfig config.JWTConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		jwtConfig: jwtConfig,
		logger:    logger.WithComponent("auth"),
		now:       time.Now,
	}
}

// IssueToken signs a write token for subject. A zero ttl uses the
// configured lifetime.
func (s *AuthService) IssueToken(subject string, ttl time.Duration) (string, error) {
	if s.jwtConfig.Secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	if ttl <= 0 {
		ttl = s.jwtConfig.ExpiresIn
	}

	now := s.now()
	claims := &Claims{
		Scope: ScopeWrite,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Infow("Token issued", "subject", subject, "expires_at", claims.ExpiresAt.Time)
	return tokenString, nil
}

// ValidateToken checks signature, lifetime, issuer and scope
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithIssuer(s.jwtConfig.Issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", entities.ErrUnauthorized)
	}
	if claims.Scope != ScopeWrite {
		return nil, fmt.Errorf("%w: token lacks write scope", entities.ErrUnauthorized)
	}

	return claims, nil
}
