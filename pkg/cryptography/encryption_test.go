package cryptography

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testKey = []byte{0x47, 0x0e, 0x0b, 0x8b, 0xee, 0x2c, 0x22, 0x07, 0x58, 0x00, 0xf3, 0x33, 0x42, 0xd9, 0x2e, 0x34, 0xf7, 0x1f, 0x20, 0xff, 0xb7, 0x98, 0xa2, 0x5c, 0x2c, 0x6a, 0xfc, 0x79, 0x36, 0x8f, 0x62, 0xba}

var testNonce = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c}

func TestEncryptDecryptBuffer(t *testing.T) {
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	// encrypt
	ciphertext, err := EncryptBuffer(testKey, testNonce, plaintext)
	assert.NoError(t, err)
	assert.Equal(t, len(plaintext)+TagSize, len(ciphertext))
	assert.NotEqual(t, plaintext, ciphertext[:len(plaintext)])

	// decrypt
	recoveredPlaintext, err := DecryptBuffer(testKey, testNonce, ciphertext)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, recoveredPlaintext)
}

func TestEncryptDecryptBufferEmptyPlaintext(t *testing.T) {
	ciphertext, err := EncryptBuffer(testKey, testNonce, []byte{})
	assert.NoError(t, err)
	assert.Equal(t, TagSize, len(ciphertext))

	recoveredPlaintext, err := DecryptBuffer(testKey, testNonce, ciphertext)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(recoveredPlaintext))
}

func TestDecryptBufferAuthFailures(t *testing.T) {
	plaintext := []byte("some plaintext")

	ciphertext, err := EncryptBuffer(testKey, testNonce, plaintext)
	assert.NoError(t, err)

	// tampered ciphertext
	tampered := make([]byte, len(ciphertext))
	copy(tampered, ciphertext)
	tampered[0] ^= 0x01
	_, err = DecryptBuffer(testKey, testNonce, tampered)
	assert.ErrorIs(t, err, ErrorAuthFailure)

	// wrong key
	wrongKey := make([]byte, len(testKey))
	copy(wrongKey, testKey)
	wrongKey[31] ^= 0x01
	_, err = DecryptBuffer(wrongKey, testNonce, ciphertext)
	assert.ErrorIs(t, err, ErrorAuthFailure)

	// wrong nonce
	wrongNonce := make([]byte, len(testNonce))
	copy(wrongNonce, testNonce)
	wrongNonce[11] ^= 0x01
	_, err = DecryptBuffer(testKey, wrongNonce, ciphertext)
	assert.ErrorIs(t, err, ErrorAuthFailure)
}

func TestBufferNonceSizeEnforced(t *testing.T) {
	shortNonce := []byte{0x01, 0x02, 0x03}

	_, err := EncryptBuffer(testKey, shortNonce, []byte("plaintext"))
	assert.ErrorIs(t, err, ErrorBadNonce)

	_, err = DecryptBuffer(testKey, shortNonce, []byte("ciphertext"))
	assert.ErrorIs(t, err, ErrorBadNonce)
}

func TestEncryptDecryptLabelAesGcm256Siv(t *testing.T) {
	label := "backups/2022-05/photos"

	encLabel, err := EncryptLabel(testKey, label)
	assert.NoError(t, err)

	// deterministic: encrypting the same label twice gives the same output
	encLabel2, err := EncryptLabel(testKey, label)
	assert.NoError(t, err)
	assert.Equal(t, encLabel, encLabel2)

	// a different label encrypts to something else
	encOther, err := EncryptLabel(testKey, "backups/2022-05/photos2")
	assert.NoError(t, err)
	assert.NotEqual(t, encLabel, encOther)

	recoveredLabel, err := DecryptLabel(testKey, encLabel)
	assert.NoError(t, err)
	assert.Equal(t, label, recoveredLabel)
}

func TestDecryptLabelRejectsForeignCiphertext(t *testing.T) {
	encLabel, err := EncryptLabel(testKey, "mylabel")
	assert.NoError(t, err)

	// wrong key
	wrongKey := make([]byte, len(testKey))
	copy(wrongKey, testKey)
	wrongKey[0] ^= 0x01
	_, err = DecryptLabel(wrongKey, encLabel)
	assert.ErrorIs(t, err, ErrorAuthFailure)

	// not even base64
	_, err = DecryptLabel(testKey, "!!!not-base64!!!")
	assert.Error(t, err)
}
