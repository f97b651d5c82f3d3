package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/shared/authorization"
	apperrors "warden/internal/shared/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTService_SignAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := NewJWTService("test-secret", 15*time.Minute, fixedClock(now))

	tokenString, err := service.SignAccessToken("sess_abc123", "usr_1", "a@example.com", authorization.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := service.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "sess_abc123", claims.SessionID)
	assert.Equal(t, "usr_1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, authorization.RoleUser, claims.Role)
	assert.Equal(t, now.Add(15*time.Minute), claims.ExpiresAt.Time)
}

func TestJWTService_VerifyExpired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := issued

	service := NewJWTService("test-secret", 15*time.Minute, func() time.Time { return current })

	tokenString, err := service.SignAccessToken("sess_abc123", "usr_1", "a@example.com", authorization.RoleUser)
	require.NoError(t, err)

	// Advance past the embedded expiry
	current = issued.Add(16 * time.Minute)

	_, err = service.VerifyAccessToken(tokenString)
	require.Error(t, err)
	authErr := apperrors.GetAuthError(err)
	require.NotNil(t, authErr)
	assert.Equal(t, apperrors.ErrorTypeTokenExpired, authErr.Type)
}

func TestJWTService_VerifyInvalid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := NewJWTService("test-secret", 15*time.Minute, fixedClock(now))

	valid, err := service.SignAccessToken("sess_abc123", "usr_1", "a@example.com", authorization.RoleUser)
	require.NoError(t, err)

	otherService := NewJWTService("other-secret", 15*time.Minute, fixedClock(now))
	wrongKey, err := otherService.SignAccessToken("sess_abc123", "usr_1", "a@example.com", authorization.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", valid[:len(valid)-10]},
		{"wrong signing key", wrongKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyAccessToken(tt.token)
			require.Error(t, err)
			authErr := apperrors.GetAuthError(err)
			require.NotNil(t, authErr)
			assert.Equal(t, apperrors.ErrorTypeTokenInvalid, authErr.Type)
		})
	}
}

func TestJWTService_VerifyDoesNotConsultStore(t *testing.T) {
	// The codec accepts a well-formed fresh token even for a session that no
	// longer exists; the store cross-check is the facade's responsibility.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := NewJWTService("test-secret", 15*time.Minute, fixedClock(now))

	tokenString, err := service.SignAccessToken("sess_gone", "usr_1", "a@example.com", authorization.RoleUser)
	require.NoError(t, err)

	claims, err := service.VerifyAccessToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "sess_gone", claims.SessionID)
}
