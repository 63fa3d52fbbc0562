package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("replay-admin")
	require.NoError(t, err)
	assert.NotEqual(t, "replay-admin", hash)
	assert.True(t, IsHash(hash))

	assert.True(t, VerifyPassword("replay-admin", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("", hash))
	assert.False(t, VerifyPassword("replay-admin", "not-a-hash"))
	assert.False(t, VerifyPassword("replay-admin", ""))
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestIsHash(t *testing.T) {
	assert.False(t, IsHash(""))
	assert.False(t, IsHash("replay-admin"))
	assert.True(t, IsHash("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"))
}
