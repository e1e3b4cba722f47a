package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func TestEncryptDecrypt(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{name: "token", plaintext: []byte("patABC.123")},
		{name: "empty", plaintext: []byte{}},
		{name: "binary", plaintext: []byte{0, 1, 2, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := Encrypt(tt.plaintext, testKey(1))
			require.NoError(t, err)
			assert.Len(t, encrypted, NonceSize+len(tt.plaintext)+16)

			decrypted, err := Decrypt(encrypted, testKey(1))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.plaintext, decrypted))
		})
	}
}

func TestEncrypt_Randomness(t *testing.T) {
	a, err := Encrypt([]byte("same"), testKey(1))
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), testKey(1))
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "nonce must differ between calls")
}

func TestEncrypt_InvalidKey(t *testing.T) {
	_, err := Encrypt([]byte("data"), []byte("short"))
	assert.Error(t, err)
}

func TestDecrypt_Errors(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), testKey(1))
	require.NoError(t, err)

	tampered := append([]byte(nil), encrypted...)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name string
		data []byte
		key  []byte
	}{
		{name: "wrong key", data: encrypted, key: testKey(2)},
		{name: "tampered", data: tampered, key: testKey(1)},
		{name: "too short", data: []byte{1, 2, 3}, key: testKey(1)},
		{name: "invalid key size", data: encrypted, key: []byte("short")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.data, tt.key)
			assert.Error(t, err)
		})
	}
}

func TestSealer(t *testing.T) {
	sealer, err := NewSealer(testKey(3))
	require.NoError(t, err)

	sealed, err := sealer.Seal("patABC.123")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.False(t, strings.Contains(sealed, "patABC"))

	// Повторный Seal не шифрует дважды
	twice, err := sealer.Seal(sealed)
	require.NoError(t, err)
	assert.Equal(t, sealed, twice)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "patABC.123", opened)
}

func TestSealer_PlainValues(t *testing.T) {
	sealer, err := NewSealer(testKey(3))
	require.NoError(t, err)

	empty, err := sealer.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	// Значения, сохраненные до включения шифрования, читаются как есть
	legacy, err := sealer.Open("plain-token")
	require.NoError(t, err)
	assert.Equal(t, "plain-token", legacy)
}

func TestSealer_WrongKey(t *testing.T) {
	sealer, err := NewSealer(testKey(3))
	require.NoError(t, err)
	other, err := NewSealer(testKey(4))
	require.NoError(t, err)

	sealed, err := sealer.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrSealedValue)

	_, err = sealer.Open(sealedPrefix + "!!!not-base64")
	assert.ErrorIs(t, err, ErrSealedValue)
}

func TestNewSealer_InvalidKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.Error(t, err)
}
