package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateToken generates a cryptographically secure session token.
// 32 bytes = 256 bits of entropy.
func GenerateToken() (string, error) {
	const size = 32 // 256 bits

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
