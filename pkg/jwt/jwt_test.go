package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	token, err := service.GenerateAccessToken(userID, "user@example.com", "user")
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	token, err := service.GenerateRefreshToken(userID, "user@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	service := newTestService()
	userID := uuid.New()

	refresh, err := service.GenerateRefreshToken(userID, "user@example.com")
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(refresh)
	assert.Error(t, err)

	access, err := service.GenerateAccessToken(userID, "user@example.com", "user")
	require.NoError(t, err)

	_, err = service.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	service := newTestService()
	other := NewService("different-secret", "different-refresh", time.Hour, 24*time.Hour)

	token, err := service.GenerateAccessToken(uuid.New(), "user@example.com", "user")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	expired := NewService("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	token, err := expired.GenerateAccessToken(uuid.New(), "user@example.com", "user")
	require.NoError(t, err)

	_, err = expired.ValidateAccessToken(token)
	assert.Error(t, err)

	assert.True(t, expired.IsTokenExpired(token))
}

func TestValidateRejectsGarbage(t *testing.T) {
	service := newTestService()

	_, err := service.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
