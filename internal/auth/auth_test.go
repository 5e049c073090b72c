package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

	other, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salted")

	ok, err := VerifyPassword("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	for _, h := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=0$c2FsdA$aGFzaA",
	} {
		_, err := VerifyPassword("x", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestVerifier(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NewVerifier("", "x"))
	var off *Verifier
	assert.False(t, off.Enabled())
	assert.True(t, off.Check("anyone", "anything"))

	hash, err := HashPassword("pw")
	require.NoError(t, err)
	v := NewVerifier("admin", hash)
	require.True(t, v.Enabled())

	assert.False(t, v.Check("admin", "nope"))
	assert.False(t, v.Check("root", "pw"))
	assert.True(t, v.Check("admin", "pw"))
	assert.True(t, v.Check("admin", "pw"), "cached")
	assert.Len(t, v.verified, 1)
}
