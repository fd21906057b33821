package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-service/internal/auth"
	"github.com/spec-kit/employee-service/internal/config"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := auth.HashPassword("hunter2", 4)
	require.NoError(t, err)
	return NewAuthService(config.AuthConfig{
		JWTSecret:             "secret",
		AccessTokenTTLMinutes: 60,
		AdminEmail:            "admin@example.com",
		AdminPasswordHash:     hash,
	})
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthService(t)

	token, _, err := svc.Login("admin@example.com", "hunter2")
	require.NoError(t, err)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestLogin_PlaintextPasswordBootstrap(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "secret",
		AccessTokenTTLMinutes: 60,
		AdminEmail:            "admin@example.com",
		AdminPassword:         "hunter2",
		BcryptCost:            4,
	})

	token, _, err := svc.Login("admin@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login("admin@example.com", "wrong")
	require.Error(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, _, err := svc.Login("admin@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.ToDomainError(err).HTTPStatus)

	_, _, err = svc.Login("other@example.com", "hunter2")
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.ToDomainError(err).HTTPStatus)
}

func TestLogin_UnconfiguredAdmin(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 60})

	_, _, err := svc.Login("admin@example.com", "hunter2")
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.ToDomainError(err).HTTPStatus)
}
