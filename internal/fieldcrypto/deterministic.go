package fieldcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

// deterministicEnvelope has no timestamp: the cipher is keyed for the
// lifetime of the data, not time-versioned.
type deterministicEnvelope struct {
	Data string `json:"data"`
}

// DeterministicCipher encrypts values that must stay queryable by exact
// match, such as the email lookup column. It runs AES-256-CBC with an
// all-zero IV, so identical plaintexts always produce identical ciphertext.
// That equality leak is the point: callers opt in deliberately, and only
// for fields whose values are looked up by equality.
//
// The key lives outside the rotating ring. Rotating it invalidates every
// previously encrypted value, because no per-value timestamp records which
// generation encrypted it.
type DeterministicCipher struct {
	key []byte
}

// NewDeterministicCipher creates a cipher over a dedicated 32-byte key.
func NewDeterministicCipher(key []byte) (*DeterministicCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("deterministic key must be 32 bytes, got %d", len(key))
	}
	return &DeterministicCipher{key: key}, nil
}

// Encrypt returns the serialized envelope for plaintext. Equal inputs
// produce equal outputs under the same key.
func (c *DeterministicCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	data, err := json.Marshal(deterministicEnvelope{Data: hex.EncodeToString(ciphertext)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(data), nil
}

// Decrypt opens a serialized envelope. Empty input decrypts to the empty
// string.
func (c *DeterministicCipher) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	var env deterministicEnvelope
	if err := json.Unmarshal([]byte(encrypted), &env); err != nil {
		return "", model.ErrDecryptionFailed
	}

	ciphertext, err := hex.DecodeString(env.Data)
	if err != nil {
		return "", model.ErrDecryptionFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", model.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", model.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
