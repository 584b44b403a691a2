// Package sealbox seals byte payloads under a human-chosen password and
// opens them again later, detecting tampering and wrong passwords.
//
// Seal derives a fresh 256-bit key from the password with Argon2id using a
// random 32-byte salt, encrypts the payload with AES-256-GCM-SIV under a
// random 96-bit nonce, and packs ciphertext, nonce and salt into one
// self-contained byte sequence. Open needs only that byte sequence and the
// password. No key material is ever cached or persisted, and sealing the
// same payload twice never produces the same bytes.
//
// Callers sort failures with errors.Is against the four exported error
// values, most importantly to tell the one user-actionable failure apart
// from defects:
//
//	plaintext, err := sealbox.Open(sealed, password)
//	if errors.Is(err, sealbox.ErrIncorrectPassword) {
//		// wrong password or tampered container: prompt and retry
//	} else if err != nil {
//		// not a sealed container at all, or an internal failure
//	}
//
// All functions are safe for concurrent use.
package sealbox

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/fsctl/sealbox/pkg/cryptography"
)

// Seal encrypts plaintext under password and returns a sealed container
// that can be stored anywhere, including on untrusted media. Each call
// draws a fresh salt and nonce, so two calls with identical arguments
// return different containers that both open with the same password. An
// empty plaintext is fine; a nil plaintext seals as empty.
func Seal(plaintext []byte, password []byte) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: reading random salt: %v", ErrKeyGeneration, err)
	}

	key, err := cryptography.DeriveKey(password, salt, cryptography.DefaultKdfParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	defer cryptography.ZeroBytes(key)

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: reading random nonce: %v", ErrKeyGeneration, err)
	}

	ciphertext, err := cryptography.EncryptBuffer(key, nonce, plaintext)
	if err != nil {
		// not reachable with a DeriveKey-sized key and NonceSize nonce
		return nil, ErrIncorrectPassword
	}

	return packContainer(ciphertext, nonce, salt)
}

// Open authenticates and decrypts a container produced by Seal. It returns
// ErrDecoding if the bytes are not a well-formed container, and
// ErrIncorrectPassword if the payload does not authenticate under the given
// password, whether that is because the password is wrong or because the
// container was corrupted or tampered with. No partial plaintext is ever
// returned.
func Open(sealed []byte, password []byte) ([]byte, error) {
	ciphertext, nonce, salt, err := unpackContainer(sealed)
	if err != nil {
		return nil, err
	}

	key, err := cryptography.DeriveKey(password, salt, cryptography.DefaultKdfParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	defer cryptography.ZeroBytes(key)

	plaintext, err := cryptography.DecryptBuffer(key, nonce, ciphertext)
	if err != nil {
		return nil, ErrIncorrectPassword
	}

	return plaintext, nil
}
