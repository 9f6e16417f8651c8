package evidencearchive

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Seal encrypts plaintext under a key derived from passphrase, prefixing
// the ciphertext with its nonce so Open needs only the passphrase to
// reverse it.
func Seal(passphrase string, plaintext []byte) ([]byte, error) {
	key := deriveKey(passphrase)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: build cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("evidencearchive: generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// Open decrypts a blob produced by Seal.
func Open(passphrase string, blob []byte) ([]byte, error) {
	key := deriveKey(passphrase)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: build cipher: %w", err)
	}

	if len(blob) < aead.NonceSize() {
		return nil, fmt.Errorf("evidencearchive: sealed blob too short")
	}
	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: open sealed blob: %w", err)
	}
	return plaintext, nil
}
