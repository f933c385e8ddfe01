package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "campusgate/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("test-signing-key", "campusgate", "campusgate-portal")
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateSessionToken("user-1", "a@b.com", "admin", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID, "token must carry a JTI")
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateSessionToken("user-1", "a@b.com", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateWrongKey(t *testing.T) {
	svc := newTestService()
	other := NewService("different-key", "campusgate", "campusgate-portal")

	token, err := svc.GenerateSessionToken("user-1", "a@b.com", "admin", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestExtractRevocationTarget(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateSessionToken("user-1", "a@b.com", "admin", time.Hour)
	require.NoError(t, err)

	jti, ttl, err := svc.ExtractRevocationTarget(token)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.Greater(t, ttl, 55*time.Minute)
}
