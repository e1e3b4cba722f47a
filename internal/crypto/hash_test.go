package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("photo-bytes"))
	b := Fingerprint([]byte("photo-bytes"))
	c := Fingerprint([]byte("other-bytes"))

	// BLAKE2b-256 всегда 64 символа hex
	assert.Len(t, a, 64)
	assert.Equal(t, a, b, "одинаковое содержимое дает одинаковый отпечаток")
	assert.NotEqual(t, a, c)
}

func TestFingerprintReader(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 10_000)

	fp, n, err := FingerprintReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, Fingerprint(data), fp)
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("webhook-secret")
	payload := []byte(`{"event_type":"updated"}`)
	valid := SignPayload(secret, payload)

	tests := []struct {
		name      string
		secret    []byte
		signature string
		errMsg    string
		wantErr   bool
	}{
		{name: "valid", secret: secret, signature: valid},
		{name: "empty secret", secret: nil, signature: valid, wantErr: true, errMsg: "secret cannot be empty"},
		{name: "missing", secret: secret, signature: "", wantErr: true, errMsg: "missing"},
		{name: "no prefix", secret: secret, signature: valid[len(SignaturePrefix):], wantErr: true, errMsg: "must start with"},
		{name: "not hex", secret: secret, signature: "sha256=zz", wantErr: true, errMsg: "decode"},
		{name: "wrong secret", secret: []byte("other"), signature: valid, wantErr: true, errMsg: "mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, payload, tt.signature)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
