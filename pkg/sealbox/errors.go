package sealbox

import "errors"

// Every failure returned by Seal and Open matches exactly one of these
// values under errors.Is. ErrIncorrectPassword is the only one a user can
// do something about; the other three mean corrupt input or an internal
// defect and retrying with a different password will not help.
var (
	// ErrDecoding is returned by Open when the input is not a well-formed
	// sealed container (too short, truncated, or carrying trailing bytes)
	ErrDecoding = errors.New("data is not a valid sealed container")

	// ErrEncoding is returned by Seal if the container cannot be serialized
	ErrEncoding = errors.New("failed to encode sealed container")

	// ErrKeyGeneration is returned when key derivation rejects its inputs
	// or the process random source fails
	ErrKeyGeneration = errors.New("failed to create key from password")

	// ErrIncorrectPassword is returned by Open when the ciphertext does not
	// authenticate. A wrong password and a tampered container are
	// deliberately indistinguishable.
	ErrIncorrectPassword = errors.New("incorrect password")
)
