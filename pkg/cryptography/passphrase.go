package cryptography

import (
	"strings"

	"github.com/sethvargo/go-diceware/diceware"
)

// GenerateRandomPassphrase returns a hyphen-joined Diceware passphrase of
// numWords words. Ten words is about 128 bits of entropy, which is what
// generated config templates use for the master password. Panics only if
// the process entropy source is broken.
func GenerateRandomPassphrase(numWords int) string {
	return strings.Join(diceware.MustGenerate(numWords), "-")
}
