package security

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword_Charset(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword()
		require.NoError(t, err)

		// 32 bytes of entropy, unpadded base64
		assert.Len(t, pw, 43)
		assert.NotContains(t, pw, "+")
		assert.NotContains(t, pw, "/")
		assert.NotContains(t, pw, "=")
	}
}

func TestGeneratePassword_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		assert.False(t, seen[pw], "duplicate password generated")
		seen[pw] = true
	}
}

func TestGeneratePassword_ReplacesUnsafeCharacters(t *testing.T) {
	// 0xfb 0xff encodes to "+/" in standard base64
	src := bytes.Repeat([]byte{0xfb, 0xff, 0xbf}, 11)
	pw, err := generatePassword(bytes.NewReader(src))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pw, "-_-_"), "got %q", pw)
}

func TestGeneratePassword_ShortRead(t *testing.T) {
	_, err := generatePassword(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}

func TestGenerateSecretKey(t *testing.T) {
	a, err := GenerateSecretKey()
	require.NoError(t, err)
	b, err := GenerateSecretKey()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
}
