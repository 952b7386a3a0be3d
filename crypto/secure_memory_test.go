package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	require.NoError(t, SecureWipe(data))
	assert.Equal(t, make([]byte, 5), data)

	assert.Error(t, SecureWipe(nil))
}

func TestWipeKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	require.NoError(t, WipeKeyPair(kp))
	assert.Equal(t, make([]byte, len(kp.Private)), []byte(kp.Private))

	assert.Error(t, WipeKeyPair(nil))
}

func TestSecureFieldHash(t *testing.T) {
	fields := SecureFieldHash([]byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5}, "key")
	assert.Equal(t, "deadbeef01020304...", fields["key_preview"])
	assert.Equal(t, 9, fields["key_size"])

	fields = SecureFieldHash(nil, "key")
	assert.Equal(t, "nil", fields["key_preview"])
}
