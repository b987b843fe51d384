package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *Manager {
	return NewManager("test-secret", 15*time.Minute, time.Hour, "test-issuer")
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager()

	access, refresh, accessExp, refreshExp, err := m.GenerateTokenPair("user-1", "a@example.com", "alice", []string{"user"})
	require.NoError(t, err)
	assert.Greater(t, refreshExp, accessExp)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, "test-issuer", claims.Issuer)

	refreshClaims, err := m.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.Type)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	other := NewManager("different-secret", 15*time.Minute, time.Hour, "test-issuer")
	access, _, _, _, err := other.GenerateTokenPair("user-1", "a@example.com", "alice", nil)
	require.NoError(t, err)

	_, err = newManager().ValidateToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	expired := NewManager("test-secret", -time.Minute, time.Hour, "test-issuer")
	access, _, _, _, err := expired.GenerateTokenPair("user-1", "a@example.com", "alice", nil)
	require.NoError(t, err)

	_, err = newManager().ValidateToken(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodNone, &Claims{UserID: "user-1", Type: TokenTypeAccess})
	unsigned, err := token.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newManager().ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newManager().ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
