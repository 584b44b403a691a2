package sealbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
)

// A sealed container is the single self-contained artifact this package
// persists. Its wire form is three fields written back to back with no
// padding or framing beyond the length prefix:
//
//	[0, 8)           ciphertext length N as a little-endian uint64
//	[8, 8+N)         ciphertext, including the 16-byte authentication tag
//	[8+N, 8+N+12)    nonce (96 bits)
//	[8+N+12, 8+N+44) salt (256 bits)
//
// The smallest well-formed container is therefore 52 bytes (N = 0). The
// layout is deliberately reproducible from this comment alone; any future
// change must introduce a leading version byte rather than move fields.
const (
	// SaltSize is the length in bytes of the key derivation salt stored in
	// every sealed container
	SaltSize = 32

	// NonceSize is the length in bytes of the cipher nonce stored in every
	// sealed container
	NonceSize = 12

	lenPrefixSize    = 8
	minContainerSize = lenPrefixSize + NonceSize + SaltSize
)

// packContainer serializes ciphertext, nonce and salt into the container
// wire form. nonce and salt must already be exactly NonceSize and SaltSize
// bytes.
func packContainer(ciphertext []byte, nonce []byte, salt []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(minContainerSize + len(ciphertext))

	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(ciphertext))); err != nil {
		log.Println("error: packContainer: binary.Write failed:", err)
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	buf.Write(ciphertext)
	buf.Write(nonce)
	buf.Write(salt)

	return buf.Bytes(), nil
}

// unpackContainer splits container wire bytes back into ciphertext, nonce
// and salt. Validation here is structural only; nothing cryptographic is
// checked. The returned slices alias data.
func unpackContainer(data []byte) (ciphertext []byte, nonce []byte, salt []byte, err error) {
	if len(data) < minContainerSize {
		return nil, nil, nil, fmt.Errorf("%w: %d bytes is below the %d byte minimum", ErrDecoding, len(data), minContainerSize)
	}

	var ciphertextLen uint64
	if err := binary.Read(bytes.NewBuffer(data[:lenPrefixSize]), binary.LittleEndian, &ciphertextLen); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	// The length prefix must account for every byte between the prefix and
	// the trailing nonce+salt; anything else is truncation or trailing
	// garbage.
	if ciphertextLen != uint64(len(data)-minContainerSize) {
		return nil, nil, nil, fmt.Errorf("%w: length prefix does not match container size", ErrDecoding)
	}

	ciphertext = data[lenPrefixSize : lenPrefixSize+int(ciphertextLen)]
	nonce = data[lenPrefixSize+int(ciphertextLen) : lenPrefixSize+int(ciphertextLen)+NonceSize]
	salt = data[len(data)-SaltSize:]

	return ciphertext, nonce, salt, nil
}
