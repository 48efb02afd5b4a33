package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"

	dErrors "greenlight/pkg/domain-errors"
)

// Generate creates a cryptographically secure random secret.
// Returns a base64url string suitable for signing keys and admin tokens.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ID returns a random 128 bit identifier in hex, used for token IDs.
func ID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate id")
	}
	return hex.EncodeToString(buf), nil
}
