package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc, err := NewTokenService("test-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair(42)
	require.NoError(t, err)

	access, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), access.AccountID)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Empty(t, access.ID)

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEmpty(t, refresh.ID)
}

func TestTokenService_Expired(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	pair, err := svc.GenerateTokenPair(1)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidSessionToken)

	_, err = svc.ValidateToken(pair.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenService_RejectsVerificationTokens(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)
	signer, err := NewVerificationSigner("test-secret")
	require.NoError(t, err)

	token, err := signer.Issue("a@b.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidSessionToken)
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", time.Minute, time.Hour)
	assert.ErrorIs(t, err, errEmptySigningKey)
}
