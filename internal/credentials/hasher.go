package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	HashVersionArgon2id = "argon2id"

	argonTime   = 1
	argonMemKiB = 64 * 1024
	argonPar    = 4
	keyLen      = 32
	saltLen     = 16

	minPasswordLen = 8
)

var ErrPasswordMismatch = errors.New("password mismatch")

// HashPassword hashes a plaintext password using argon2id. The stored form
// is "argon2id$<base64 salt>$<base64 key>".
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", errors.New("password too short")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemKiB, argonPar, keyLen)

	return strings.Join([]string{
		HashVersionArgon2id,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// VerifyPassword compares a plaintext password with the stored hash.
func VerifyPassword(hash string, password string) error {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != HashVersionArgon2id {
		return errors.New("unrecognized hash format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("failed to decode salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("failed to decode key: %w", err)
	}

	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemKiB, argonPar, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
