// Package auth holds the credential primitives: password hashing and
// signed session tokens.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"unicode/utf8"

	"github.com/dmitrijs2005/goproj/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen           = 16
	keyLen            = 32
	pbkdf2Iterations  = 100000
	MinPasswordLength = 8
)

// randomSalt is replaced in tests.
var randomSalt = func() ([]byte, error) {
	return common.RandomBytes(saltLen)
}

// HashPassword derives a PBKDF2-HMAC-SHA256 key with a fresh random salt and
// returns base64(salt || key).
func HashPassword(password string) (string, error) {
	salt, err := randomSalt()
	if err != nil {
		return "", err
	}

	key := derive(password, salt)
	blob := make([]byte, 0, len(salt)+len(key))
	blob = append(blob, salt...)
	blob = append(blob, key...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// VerifyPassword reports whether password matches a HashPassword result.
// Malformed hashes simply do not match.
func VerifyPassword(password, hash string) bool {
	blob, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(blob) != saltLen+keyLen {
		return false
	}

	salt, stored := blob[:saltLen], blob[saltLen:]
	key := derive(password, salt)
	defer common.WipeByteArray(key)

	return subtle.ConstantTimeCompare(key, stored) == 1
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLen, sha256.New)
}

// ValidatePasswordStrength rejects passwords shorter than MinPasswordLength
// characters.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return common.NewValidationError("password must be at least 8 characters long")
	}
	return nil
}
