// Package security implements password hashing for stored credentials.
//
// Hashes use PBKDF2-SHA256 with a high iteration count and are stored in
// the form "pbkdf2:sha256:<iterations>$<salt>$<hex digest>", so records
// hashed by earlier deployments verify unchanged.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor. It is a deliberate
	// brute-force deterrent and must not be lowered.
	Iterations = 600000

	saltLen = 16
	keyLen  = 32
)

// ErrHashMismatch is returned when a password does not match its stored hash
var ErrHashMismatch = errors.New("password does not match hash")

// HashPassword hashes a plaintext password with PBKDF2-SHA256
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)

	key := pbkdf2.Key([]byte(password), []byte(saltHex), Iterations, keyLen, sha256.New)

	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", Iterations, saltHex, hex.EncodeToString(key)), nil
}

// VerifyPassword compares a plaintext password with a stored hash.
// Returns ErrHashMismatch when the password is wrong.
func VerifyPassword(hash, password string) error {
	method, salt, digest, err := parseHash(hash)
	if err != nil {
		return err
	}

	iterations, err := parseMethod(method)
	if err != nil {
		return err
	}

	want, err := hex.DecodeString(digest)
	if err != nil {
		return fmt.Errorf("malformed password hash digest: %w", err)
	}

	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), sha256.New)
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrHashMismatch
	}
	return nil
}

// parseHash splits a stored hash into method, salt and digest
func parseHash(hash string) (method, salt, digest string, err error) {
	parts := strings.SplitN(hash, "$", 3)
	if len(parts) != 3 {
		return "", "", "", errors.New("malformed password hash")
	}
	return parts[0], parts[1], parts[2], nil
}

// parseMethod validates the hash method and extracts the iteration count
func parseMethod(method string) (int, error) {
	parts := strings.Split(method, ":")
	if len(parts) != 3 || parts[0] != "pbkdf2" || parts[1] != "sha256" {
		return 0, fmt.Errorf("unsupported hash method: %s", method)
	}
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 {
		return 0, fmt.Errorf("invalid iteration count in hash method: %s", method)
	}
	return iterations, nil
}
