// Package fieldcrypto encrypts individual profile fields at rest. The
// random-nonce FieldCipher embeds a creation timestamp so decryption can
// locate the key generation that was current when the value was written;
// the DeterministicCipher trades that (and semantic security) for
// exact-match queryability.
package fieldcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

const nonceSize = 12

// KeySource resolves key generations by time.
type KeySource interface {
	Current() (model.KeyEntry, error)
	ResolveAt(at time.Time) (model.KeyEntry, error)
}

// envelope is the persisted field value: hex nonce and ciphertext joined by
// a colon, plus the encryption timestamp used to resolve the key on decrypt.
type envelope struct {
	Data      string `json:"data"`
	Timestamp string `json:"timestamp"`
}

// FieldCipher encrypts opaque string fields with AES-256-GCM under the
// current key generation. Each call draws a fresh random nonce.
type FieldCipher struct {
	keys KeySource
}

// NewFieldCipher creates a FieldCipher over the given key source.
func NewFieldCipher(keys KeySource) *FieldCipher {
	return &FieldCipher{keys: keys}
}

// Encrypt seals plaintext under the current key and returns the serialized
// envelope.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	entry, err := c.keys.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current key: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := newGCM(entry.Key)
	if err != nil {
		return "", err
	}
	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)

	env := envelope{
		Data:      hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(data), nil
}

// Decrypt opens a serialized envelope with the key that was current at the
// embedded timestamp. Empty input decrypts to the empty string so absent
// optional fields never fail.
func (c *FieldCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(encrypted), &env); err != nil {
		return "", model.ErrDecryptionFailed
	}

	at, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	if err != nil {
		return "", model.ErrDecryptionFailed
	}

	entry, err := c.keys.ResolveAt(at)
	if err != nil {
		return "", fmt.Errorf("failed to resolve key: %w", err)
	}

	nonce, ciphertext, err := splitData(env.Data)
	if err != nil {
		return "", model.ErrDecryptionFailed
	}
	if len(nonce) != nonceSize {
		return "", model.ErrDecryptionFailed
	}

	aead, err := newGCM(entry.Key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", model.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}
	return aead, nil
}

func splitData(data string) (iv, ciphertext []byte, err error) {
	head, tail, ok := strings.Cut(data, ":")
	if !ok {
		return nil, nil, fmt.Errorf("malformed envelope data")
	}
	iv, err = hex.DecodeString(head)
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = hex.DecodeString(tail)
	if err != nil {
		return nil, nil, err
	}
	return iv, ciphertext, nil
}
