package trust

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"

	dErrors "greenlight/pkg/domain-errors"
)

// Anchor is the pinned public key signed bundles are verified against.
type Anchor struct {
	key         *ecdsa.PublicKey
	fingerprint string
}

// ParseAnchor reads a PEM encoded EC public key (P-256).
func ParseAnchor(pemBytes []byte) (Anchor, error) {
	key, err := jwt.ParseECPublicKeyFromPEM(pemBytes)
	if err != nil {
		return Anchor{}, dErrors.Wrap(err, dErrors.CodeUntrusted, "trust anchor is not an EC public key")
	}
	return NewAnchor(key)
}

// NewAnchor wraps an already parsed key.
func NewAnchor(key *ecdsa.PublicKey) (Anchor, error) {
	if key == nil {
		return Anchor{}, dErrors.New(dErrors.CodeUntrusted, "trust anchor is empty")
	}
	raw, err := key.ECDH()
	if err != nil {
		return Anchor{}, dErrors.Wrap(err, dErrors.CodeUntrusted, "trust anchor is not a valid curve point")
	}
	sum := blake2b.Sum256(raw.Bytes())
	return Anchor{key: key, fingerprint: hex.EncodeToString(sum[:8])}, nil
}

// Fingerprint is a short stable identifier of the key for logs and cache keys.
func (a Anchor) Fingerprint() string { return a.fingerprint }

func (a Anchor) IsZero() bool { return a.key == nil }

// verify checks a detached ES256 signature over the exact blob bytes.
func (a Anchor) verify(blob, signature []byte) error {
	if a.key == nil {
		return dErrors.New(dErrors.CodeUntrusted, "no trust anchor configured")
	}
	sig, err := decodeSignature(signature)
	if err != nil {
		return err
	}
	if err := jwt.SigningMethodES256.Verify(string(blob), sig, a.key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUntrusted, "signature does not match trust anchor")
	}
	return nil
}

// decodeSignature accepts a raw 64 byte r||s signature or its base64 form.
func decodeSignature(sig []byte) ([]byte, error) {
	if len(sig) == 64 {
		return sig, nil
	}
	text := strings.TrimSpace(string(sig))
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if out, err := enc.DecodeString(text); err == nil && len(out) == 64 {
			return out, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeUntrusted, "signature is not a 64 byte ES256 signature")
}
