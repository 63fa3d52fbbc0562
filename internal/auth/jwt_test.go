package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzhiot/telemetry-replayer/internal/config"
	"github.com/xzhiot/telemetry-replayer/pkg/crypto"
)

func newManager(t *testing.T) *JWTManager {
	t.Helper()
	hash, err := crypto.HashPassword("s3cret")
	require.NoError(t, err)

	return NewJWTManager(
		&config.JWTConfig{Secret: "test-secret", Issuer: "telemetry-replayer", AccessTokenTTL: time.Hour},
		&config.AdminConfig{Username: "admin", PasswordHash: hash},
	)
}

func TestLoginAndValidate(t *testing.T) {
	m := newManager(t)

	token, expiresAt, err := m.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	m := newManager(t)

	_, _, err := m.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = m.Login("root", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Rejects(t *testing.T) {
	m := newManager(t)

	other := NewJWTManager(&config.JWTConfig{Secret: "other", Issuer: "telemetry-replayer", AccessTokenTTL: time.Hour}, m.admin)
	token, _, err := other.GenerateToken("admin")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired := NewJWTManager(&config.JWTConfig{Secret: "test-secret", Issuer: "telemetry-replayer", AccessTokenTTL: -time.Minute}, m.admin)
	token, _, err = expired.GenerateToken("admin")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign := NewJWTManager(&config.JWTConfig{Secret: "test-secret", Issuer: "someone-else", AccessTokenTTL: time.Hour}, m.admin)
	token, _, err = foreign.GenerateToken("admin")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = m.ValidateToken("not.a.token")
	assert.Error(t, err)
}
