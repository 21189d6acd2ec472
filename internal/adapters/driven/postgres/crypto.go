package postgres

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// tokenBlobVersion is the version byte for the encrypted blob format.
	// This allows future format changes while maintaining backward compatibility.
	tokenBlobVersion = 0x01

	// nonceSize is the AES-GCM nonce size (12 bytes is standard)
	nonceSize = 12

	// keySize is the required key size for AES-256
	keySize = 32
)

var (
	// ErrInvalidKeySize is returned when the encryption key is not 32 bytes.
	ErrInvalidKeySize = errors.New("encryption key must be 32 bytes")

	// ErrInvalidBlobSize is returned when the encrypted blob is too small.
	ErrInvalidBlobSize = errors.New("encrypted blob is too small")

	// ErrUnsupportedVersion is returned when the blob version is not supported.
	ErrUnsupportedVersion = errors.New("unsupported token blob version")

	// ErrDecryptionFailed is returned when decryption fails (wrong key or corrupted data).
	ErrDecryptionFailed = errors.New("failed to decrypt token blob")
)

// TokenCipher handles AES-256-GCM encryption of OAuth tokens before
// they reach storage. Ciphertext is self-contained:
// base64url( version(1) || nonce(12) || ciphertext ).
// Decryption fails loudly on tamper or wrong key; it never yields a
// plausible-looking wrong plaintext.
type TokenCipher struct {
	gcm cipher.AEAD
}

// NewTokenCipher creates a cipher from the given 32-byte key. There is
// no default key: a missing or short key is a configuration error.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &TokenCipher{gcm: gcm}, nil
}

// Encrypt encrypts a token to a storable string.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob := make([]byte, 1+nonceSize+len(ciphertext))
	blob[0] = tokenBlobVersion
	copy(blob[1:1+nonceSize], nonce)
	copy(blob[1+nonceSize:], ciphertext)

	return base64.RawURLEncoding.EncodeToString(blob), nil
}

// Decrypt reverses Encrypt. It returns ErrDecryptionFailed for a
// tampered blob or a blob produced under a different key.
func (c *TokenCipher) Decrypt(encoded string) (string, error) {
	blob, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode token blob: %w", err)
	}

	minSize := 1 + nonceSize + c.gcm.Overhead()
	if len(blob) < minSize {
		return "", ErrInvalidBlobSize
	}

	if blob[0] != tokenBlobVersion {
		return "", fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, blob[0])
	}

	nonce := blob[1 : 1+nonceSize]
	ciphertext := blob[1+nonceSize:]

	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
