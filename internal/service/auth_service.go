package service

import (
	"time"

	"github.com/spec-kit/employee-service/internal/auth"
	"github.com/spec-kit/employee-service/internal/config"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// AuthService authenticates the admin and issues access tokens.
type AuthService struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthService constructs the service. When only a plaintext admin
// password is configured it is hashed once here, so Login always compares
// against a bcrypt hash.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	if cfg.AdminPasswordHash == "" && cfg.AdminPassword != "" {
		if hashed, err := auth.HashPassword(cfg.AdminPassword, cfg.BcryptCost); err == nil {
			cfg.AdminPasswordHash = hashed
		}
		cfg.AdminPassword = ""
	}
	return &AuthService{
		cfg:    cfg,
		tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies admin credentials and returns a signed token.
func (s *AuthService) Login(email, password string) (string, time.Time, error) {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPasswordHash == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("admin credentials not configured")
	}
	if email != s.cfg.AdminEmail {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(s.cfg.AdminPasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(email)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	return token, expiresAt, nil
}
