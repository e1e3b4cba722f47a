package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// SignaturePrefix префикс заголовка подписи вебхука
const SignaturePrefix = "sha256="

// Fingerprint вычисляет BLAKE2b-256 отпечаток содержимого вложения
// Используется для content-addressed хранения и дедупликации медиа
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintReader вычисляет отпечаток потока и возвращает количество прочитанных байт
func FingerprintReader(r io.Reader) (string, int64, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to init blake2b: %w", err)
	}

	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to read content: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// SignPayload вычисляет HMAC-SHA256 подпись тела вебхука в формате "sha256=<hex>"
func SignPayload(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет подпись тела вебхука
// Сравнение выполняется за постоянное время
func VerifySignature(secret, payload []byte, signature string) error {
	if len(secret) == 0 {
		return fmt.Errorf("webhook secret cannot be empty")
	}
	if signature == "" {
		return fmt.Errorf("signature is missing")
	}
	if !strings.HasPrefix(signature, SignaturePrefix) {
		return fmt.Errorf("signature must start with %q", SignaturePrefix)
	}

	got, err := hex.DecodeString(strings.TrimPrefix(signature, SignaturePrefix))
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return fmt.Errorf("signature mismatch")
	}

	return nil
}
