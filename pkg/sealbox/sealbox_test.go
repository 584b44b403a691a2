package sealbox

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fsctl/sealbox/pkg/cryptography"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("Hello world!")
	password := []byte("password")

	sealed, err := Seal(plaintext, password)
	assert.NoError(t, err)
	assert.Equal(t, minContainerSize+len(plaintext)+cryptography.TagSize, len(sealed))

	recovered, err := Open(sealed, password)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestSealOpenEmptyPlaintext(t *testing.T) {
	password := []byte("password")

	sealed, err := Seal([]byte{}, password)
	assert.NoError(t, err)

	recovered, err := Open(sealed, password)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(recovered))

	// nil seals the same way as empty
	sealed, err = Seal(nil, password)
	assert.NoError(t, err)

	recovered, err = Open(sealed, password)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(recovered))
}

func TestSealOpenLargePlaintext(t *testing.T) {
	plaintext := make([]byte, 3*1024*1024)
	_, err := io.ReadFull(rand.Reader, plaintext)
	assert.NoError(t, err)

	password := []byte("correct horse battery staple")

	sealed, err := Seal(plaintext, password)
	assert.NoError(t, err)

	recovered, err := Open(sealed, password)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestSealNotDeterministic(t *testing.T) {
	plaintext := []byte("same plaintext every time")
	password := []byte("same password every time")

	sealed1, err := Seal(plaintext, password)
	assert.NoError(t, err)
	sealed2, err := Seal(plaintext, password)
	assert.NoError(t, err)

	assert.NotEqual(t, sealed1, sealed2)

	// fresh randomness each call, visible in both salt and nonce
	_, nonce1, salt1, err := unpackContainer(sealed1)
	assert.NoError(t, err)
	_, nonce2, salt2, err := unpackContainer(sealed2)
	assert.NoError(t, err)
	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, nonce1, nonce2)

	// and yet both open with the same password
	recovered1, err := Open(sealed1, password)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, recovered1)

	recovered2, err := Open(sealed2, password)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, recovered2)
}

func TestOpenWrongPassword(t *testing.T) {
	plaintext := []byte("Hello world!")

	sealed, err := Seal(plaintext, []byte("password"))
	assert.NoError(t, err)

	recovered, err := Open(sealed, []byte("wrong"))
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	assert.Nil(t, recovered)

	// a truncated container fails structurally, before any key derivation
	_, err = Open(sealed[:40], []byte("password"))
	assert.ErrorIs(t, err, ErrDecoding)

	// the container itself is still fine
	recovered, err = Open(sealed, []byte("password"))
	assert.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestOpenTamperDetection(t *testing.T) {
	plaintext := []byte("attack at dawn")
	password := []byte("password")

	sealed, err := Seal(plaintext, password)
	assert.NoError(t, err)

	ciphertextEnd := len(sealed) - SaltSize - NonceSize

	// flipping one bit anywhere must never yield plaintext: the length
	// prefix fails structurally, everything else fails authentication
	cases := []struct {
		name    string
		offset  int
		wantErr error
	}{
		{"length prefix", 0, ErrDecoding},
		{"first ciphertext byte", lenPrefixSize, ErrIncorrectPassword},
		{"auth tag", ciphertextEnd - 1, ErrIncorrectPassword},
		{"nonce", ciphertextEnd + 3, ErrIncorrectPassword},
		{"salt", len(sealed) - 1, ErrIncorrectPassword},
	}

	for _, tc := range cases {
		tampered := append([]byte{}, sealed...)
		tampered[tc.offset] ^= 0x01

		recovered, err := Open(tampered, password)
		assert.ErrorIs(t, err, tc.wantErr, "bit flip in %s", tc.name)
		assert.Nil(t, recovered, "bit flip in %s must not yield plaintext", tc.name)
	}
}

func TestOpenGarbageInput(t *testing.T) {
	password := []byte("password")

	_, err := Open(nil, password)
	assert.ErrorIs(t, err, ErrDecoding)

	_, err = Open([]byte("way too short"), password)
	assert.ErrorIs(t, err, ErrDecoding)

	// 100 bytes of 0xff: long enough, but the length prefix is absurd
	garbage := make([]byte, 100)
	for i := range garbage {
		garbage[i] = 0xff
	}
	_, err = Open(garbage, password)
	assert.ErrorIs(t, err, ErrDecoding)

	// all zeros at exactly the minimum size parses structurally as an
	// empty ciphertext, then fails authentication
	_, err = Open(make([]byte, minContainerSize), password)
	assert.ErrorIs(t, err, ErrIncorrectPassword)
}
