// Package pin hashes the short numeric codes staff use to sign in at the till.
package pin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	MinLength = 4
	MaxLength = 12

	argonTime    uint32 = 2
	argonMemory  uint32 = 32 * 1024
	argonThreads uint8  = 2
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16

	hashPrefix = "$argon2id$v=19$"
)

var ErrInvalidFormat = errors.New("pin must be 4 to 12 digits")

// Validate accepts digit-only codes within the length bounds.
func Validate(code string) error {
	if len(code) < MinLength || len(code) > MaxLength {
		return ErrInvalidFormat
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrInvalidFormat
		}
	}
	return nil
}

// Hash encodes code as an Argon2id PHC string.
func Hash(code string) (string, error) {
	if err := Validate(code); err != nil {
		return "", err
	}
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(code), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s$%s",
		hashPrefix,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether code matches encoded. Malformed hashes never match.
func Verify(code, encoded string) bool {
	rest, ok := strings.CutPrefix(encoded, hashPrefix)
	if !ok {
		return false
	}
	parts := strings.Split(rest, "$")
	if len(parts) != 3 {
		return false
	}

	var memory, timeCost uint32
	var threads uint8
	if n, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil || n != 3 {
		return false
	}
	if memory == 0 || timeCost == 0 || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(code), salt, timeCost, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}
