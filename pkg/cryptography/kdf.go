// Package cryptography provides cryptography functions for
// operations like key derivation, buffer encryption/decryption,
// label encryption/decryption, and passphrase generation.
package cryptography

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the length in bytes of every key DeriveKey produces
	// (256 bits, sized for AES-256)
	KeySize = 32

	// MinSaltSize is the smallest salt DeriveKey will accept
	MinSaltSize = 8
)

var (
	// ErrorBadSalt is returned by DeriveKey if salt is empty or too short
	ErrorBadSalt = errors.New("salt was empty or too short")

	// ErrorBadKdfParams is returned by DeriveKey for cost parameters the
	// underlying KDF would reject
	ErrorBadKdfParams = errors.New("kdf cost parameters are invalid")
)

// KdfParams holds the Argon2id cost parameters for key derivation. A key
// derived under one set of parameters can only be rederived with the same
// set, so changing DefaultKdfParams is a format change for anything that
// persists derived-key ciphertexts.
type KdfParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKdfParams returns the cost parameters used throughout this module:
// 3 passes over 64 MiB with 4 lanes.
func DefaultKdfParams() KdfParams {
	return KdfParams{Time: 3, Memory: 64 * 1024, Threads: 4}
}

// DeriveKey derives a 32-byte (256-bit) encryption key from the user's
// master password and a non-secret but random salt. The derivation is
// deterministic for identical inputs and is recomputed from scratch on
// every call; the memory-hard cost of recomputation is what slows down
// offline password guessing.
func DeriveKey(masterPassword []byte, salt []byte, params KdfParams) ([]byte, error) {
	if len(salt) < MinSaltSize {
		return nil, ErrorBadSalt
	}
	// argon2 panics on zero passes or zero lanes rather than erroring
	if params.Time < 1 || params.Threads < 1 {
		return nil, ErrorBadKdfParams
	}
	key := argon2.IDKey(masterPassword, salt, params.Time, params.Memory, params.Threads, KeySize)
	return key, nil
}

// GenerateRandomSalt returns n cryptographically random bytes for use as a
// key derivation salt
func GenerateRandomSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// ZeroBytes overwrites b with zeros. Call it on derived keys and recovered
// plaintexts as soon as they are no longer needed.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
