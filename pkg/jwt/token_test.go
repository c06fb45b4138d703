package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewTokenService("secret", "competitions", time.Hour)

	token, err := svc.Issue("64b7f0c2a1b2c3d4e5f60718", RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "competitions", claims.Issuer)
}

func TestParseRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret", "competitions", time.Hour)
	token, err := svc.Issue("user-1", RoleUser)
	require.NoError(t, err)

	_, err = NewTokenService("other", "competitions", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService("secret", "someone-else", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenService("secret", "competitions", -time.Minute).Issue("user-1", RoleUser)
	require.NoError(t, err)
	_, err = svc.Parse(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssueValidatesInput(t *testing.T) {
	svc := NewTokenService("secret", "competitions", time.Hour)
	_, err := svc.Issue("", RoleUser)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.Issue("user-1", "superuser")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
