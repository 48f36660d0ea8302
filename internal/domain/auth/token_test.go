package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", TenantID: "t1", Role: RoleAdmin}

	token, err := GenerateToken(secret, claims, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", parsed.UserID)
	assert.Equal(t, "t1", parsed.TenantID)
	assert.Equal(t, RoleAdmin, parsed.Role)
}

func TestParseTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{UserID: "u1", TenantID: "t1"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("secret-b", token)
	require.Error(t, err)

	expired, err := GenerateToken("secret-a", Claims{UserID: "u1", TenantID: "t1"}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret-a", expired)
	require.Error(t, err)
}

func TestParseTokenRequiresIdentity(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken("secret", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
