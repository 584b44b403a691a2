package cryptography

import (
	"encoding/base64"
	"errors"
	"log"

	siv "github.com/secure-io/siv-go"
)

const (
	// NonceSize is the AES-256-GCM-SIV nonce length in bytes (96 bits)
	NonceSize = 12

	// TagSize is the length in bytes of the authentication tag the cipher
	// appends to every ciphertext
	TagSize = 16
)

var (
	// ErrorAuthFailure is returned when a ciphertext does not authenticate
	// under the given key and nonce. The cause (wrong key, wrong nonce or
	// tampered bytes) is deliberately not distinguishable.
	ErrorAuthFailure = errors.New("ciphertext failed authentication")

	// ErrorBadNonce is returned when a nonce is not exactly NonceSize bytes
	ErrorBadNonce = errors.New("nonce must be exactly 12 bytes")
)

// EncryptBuffer uses AES-GCM-256-SIV mode of encryption to seal plaintext
// under key and nonce. The nonce is not prepended to the returned
// ciphertext; callers own its placement and must present the same nonce to
// DecryptBuffer. Never encrypt two different plaintexts under the same
// (key, nonce) pair.
func EncryptBuffer(key []byte, nonce []byte, plaintext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrorBadNonce
	}

	aessiv, err := siv.NewGCM(key)
	if err != nil {
		log.Println("error: EncryptBuffer: ", err)
		return nil, err
	}

	return aessiv.Seal(nil, nonce, plaintext, nil), nil
}

// DecryptBuffer reverses EncryptBuffer. All authentication failures come
// back as ErrorAuthFailure with no further detail.
func DecryptBuffer(key []byte, nonce []byte, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrorBadNonce
	}

	aessiv, err := siv.NewGCM(key)
	if err != nil {
		log.Println("error: DecryptBuffer: ", err)
		return nil, err
	}

	plaintext, err := aessiv.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrorAuthFailure
	}

	return plaintext, nil
}

// EncryptLabel uses AES-GCM-256-SIV mode of encryption with fixed
// nonce so that the nonce reuse does not leak any information except
// that the same plaintext was encrypted. That makes encryption of a label
// deterministic: the same label under the same key always produces the same
// output, so encrypted labels can serve as lookup keys on an untrusted
// store.
func EncryptLabel(key []byte, label string) (string, error) {
	aessiv, err := siv.NewGCM(key)
	if err != nil {
		log.Println("error: EncryptLabel: ", err)
		return "", err
	}

	// Fixed all-zeros nonce makes AES-GCM-SIV a deterministic AEAD scheme
	// (same plaintext && additional data produces the same ciphertext).
	nonce := make([]byte, aessiv.NonceSize())

	ciphertext := aessiv.Seal(nil, nonce, []byte(label), nil)
	ciphertextBase64 := base64.URLEncoding.EncodeToString(ciphertext)

	return ciphertextBase64, nil
}

// DecryptLabel decrypts labels encrypted with EncryptLabel.
func DecryptLabel(key []byte, encryptedLabelB64 string) (string, error) {
	encryptedLabel, err := base64.URLEncoding.DecodeString(encryptedLabelB64)
	if err != nil {
		log.Printf("warning: DecryptLabel failed on '%s' (partial decode: '%x'): %v", encryptedLabelB64, encryptedLabel, err)
		return "", err
	}

	aessiv, err := siv.NewGCM(key)
	if err != nil {
		log.Println("error: DecryptLabel: ", err)
		return "", err
	}

	// Use the same fixed nonce (all zeros) as in encryption
	nonce := make([]byte, aessiv.NonceSize())

	label, err := aessiv.Open(nil, nonce, encryptedLabel, nil)
	if err != nil {
		return "", ErrorAuthFailure
	}

	return string(label), nil
}
