// Package crypto hashes account passwords with Argon2id.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

const (
	hashTime    uint32 = 3
	hashMemory  uint32 = 64 * 1024 // KiB
	hashThreads uint8  = 1
	hashLen     uint32 = 32
	saltLen            = 16
)

// NewSalt returns a fresh random salt for one account.
func NewSalt() ([]byte, error) {
	s := make([]byte, saltLen)
	if _, err := rand.Read(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Hash derives the stored password hash from the plaintext and salt.
func Hash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, hashTime, hashMemory, hashThreads, hashLen)
}

// Verify checks a plaintext candidate against the stored hash in constant time.
func Verify(password string, salt, stored []byte) bool {
	return subtle.ConstantTimeCompare(Hash(password, salt), stored) == 1
}
