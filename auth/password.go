// Package auth implements Component D (spec.md §4.4): password hashing,
// the three JWT flavors, the session registry, and the auth/session flows
// that gate every other core entry point.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/intermodalis/transitcore/coreerrors"
)

const (
	pbkdf2Iterations = 210_000
	pbkdf2KeyLen     = 32
	saltLen          = 16
	phcID            = "pbkdf2-sha256"
)

// HashPassword derives a PHC-formatted hash string from password using
// PBKDF2-HMAC-SHA256 with a CSPRNG salt (spec.md §4.4).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", coreerrors.Processing.Wrap(err)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return formatPHC(salt, key), nil
}

// VerifyPassword checks password against a PHC hash in constant time
// (spec.md §4.4).
func VerifyPassword(password, phc string) (bool, error) {
	salt, key, iterations, err := parsePHC(phc)
	if err != nil {
		return false, err
	}
	candidate := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha256.New)
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func formatPHC(salt, key []byte) string {
	return fmt.Sprintf("$%s$i=%d$%s$%s",
		phcID, pbkdf2Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func parsePHC(phc string) (salt, key []byte, iterations int, err error) {
	parts := strings.Split(phc, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != phcID {
		return nil, nil, 0, coreerrors.Processing.New("unrecognized password hash format")
	}
	paramField := parts[2]
	if !strings.HasPrefix(paramField, "i=") {
		return nil, nil, 0, coreerrors.Processing.New("unrecognized password hash parameters")
	}
	iterations, err = strconv.Atoi(strings.TrimPrefix(paramField, "i="))
	if err != nil {
		return nil, nil, 0, coreerrors.Processing.Wrap(err)
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, nil, 0, coreerrors.Processing.Wrap(err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, coreerrors.Processing.Wrap(err)
	}
	return salt, key, iterations, nil
}
