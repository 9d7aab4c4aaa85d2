package pin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("4821")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$v=19$m=32768,t=2,p=2$")

	assert.True(t, Verify("4821", encoded))
	assert.False(t, Verify("4822", encoded))

	again, err := Hash("4821")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("0000"))
	assert.NoError(t, Validate("123456789012"))
	assert.ErrorIs(t, Validate("123"), ErrInvalidFormat)
	assert.ErrorIs(t, Validate("1234567890123"), ErrInvalidFormat)
	assert.ErrorIs(t, Validate("12a4"), ErrInvalidFormat)

	_, err := Hash("abcd")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA",
	} {
		assert.False(t, Verify("1234", encoded), encoded)
	}
}
