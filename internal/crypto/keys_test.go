package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt1, SaltSize)

	salt2, err := GenerateSalt()
	require.NoError(t, err)
	assert.False(t, bytes.Equal(salt1, salt2), "salts must be random")
}

func TestDeriveKey(t *testing.T) {
	salt := bytes.Repeat([]byte{7}, SaltSize)

	tests := []struct {
		name       string
		passphrase string
		purpose    string
		salt       []byte
		wantErr    bool
	}{
		{name: "valid", passphrase: "correct horse", purpose: "settings", salt: salt},
		{name: "empty passphrase", passphrase: "", purpose: "settings", salt: salt, wantErr: true},
		{name: "empty purpose", passphrase: "correct horse", purpose: "", salt: salt, wantErr: true},
		{name: "short salt", passphrase: "correct horse", purpose: "settings", salt: []byte("short"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.passphrase, tt.purpose, tt.salt)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, Argon2KeyLen)
		})
	}
}

func TestDeriveKey_Separation(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltSize)
	otherSalt := bytes.Repeat([]byte{2}, SaltSize)

	base, err := DeriveKey("passphrase", "settings", salt)
	require.NoError(t, err)

	again, err := DeriveKey("passphrase", "settings", salt)
	require.NoError(t, err)
	assert.Equal(t, base, again, "derivation must be deterministic")

	otherPurpose, err := DeriveKey("passphrase", "other", salt)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherPurpose)

	otherSaltKey, err := DeriveKey("passphrase", "settings", otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherSaltKey)

	otherPass, err := DeriveKey("passphrase2", "settings", salt)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherPass)
}
