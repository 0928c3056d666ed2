// Package cryptox implements the container cryptography: slow password-based
// key derivation and authenticated encryption of opaque byte payloads.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/passlock/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32

	// kdfIterations is the PBKDF2 iteration count. Deliberately slow.
	kdfIterations = 100_000

	nonceSize = 12
)

// DeriveKey derives a 256-bit AES key from the master secret via
// PBKDF2-HMAC-SHA256. If salt is nil a fresh random 16-byte salt is
// generated; otherwise the provided salt is used unchanged. The derivation
// is deterministic: the same secret and salt always produce the same key.
func DeriveKey(secret string, salt []byte) (key []byte, outSalt []byte, err error) {
	if salt == nil {
		salt = make([]byte, common.SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, fmt.Errorf("generating salt: %w", err)
		}
	} else if len(salt) != common.SaltSize {
		return nil, nil, fmt.Errorf("salt must be %d bytes, got %d", common.SaltSize, len(salt))
	}

	key = pbkdf2.Key([]byte(secret), salt, kdfIterations, KeySize, sha256.New)
	return key, salt, nil
}

// Encrypt seals plaintext with AES-256-GCM under key. A fresh random
// 12-byte nonce is generated per call and prepended to the returned blob,
// so every call yields a different ciphertext for the same input.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aesgcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, len(nonce)+len(sealed))
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. A wrong key, a truncated blob
// or any tampering yields common.ErrDecryptionFailed — never partial
// plaintext and never a different error class — so callers can present a
// specific "invalid credential or corrupted file" diagnostic.
func Decrypt(blob, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(blob) < nonceSize {
		return nil, common.ErrDecryptionFailed
	}
	nonce, sealed := blob[:nonceSize], blob[nonceSize:]

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
