package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes of entropy before encoding.
const (
	// TokenSize128 (16 bytes, 22 chars base64url): authorization codes and
	// other short-lived values.
	TokenSize128 = 16
	// TokenSize256 (32 bytes, 43 chars base64url): client secrets and other
	// long-lived credentials.
	TokenSize256 = 32
)

// GenerateToken returns size bytes of crypto/rand entropy encoded as
// unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken panics when entropy is unavailable. For initialization
// paths with nothing sensible to do about the error.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(err)
	}
	return token
}

// FingerprintToken returns the unpadded base64url SHA-256 of token. Stores
// hold fingerprints instead of token values so a leaked table cannot replay
// credentials, while lookups by value stay cheap.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
