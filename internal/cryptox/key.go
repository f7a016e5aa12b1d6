package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Key is the process-wide symmetric key. It is a value type so a Codec keeps
// its own copy and nothing can mutate the key after construction.
type Key [KeySize]byte

// ParseKey decodes a hex-encoded 256-bit key. Surrounding whitespace is ignored.
func ParseKey(s string) (Key, error) {
	var k Key

	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return k, fmt.Errorf("decode key: %w", err)
	}
	if len(raw) != KeySize {
		return k, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(raw))
	}

	copy(k[:], raw)
	return k, nil
}

// Hex returns the key in the configuration encoding.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

// Fingerprint identifies a key in logs without revealing it.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256(k[:])
	return hex.EncodeToString(sum[:6])
}

// DeriveKey stretches a passphrase into a Key with argon2id. The same
// passphrase and salt always give the same key.
func DeriveKey(passphrase, salt []byte) Key {
	var k Key
	copy(k[:], argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize))
	return k
}
