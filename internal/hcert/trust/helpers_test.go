package trust

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type signer struct {
	key *ecdsa.PrivateKey
}

func newSigner(t *testing.T) signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return signer{key: key}
}

func (s signer) sign(t *testing.T, blob []byte) []byte {
	t.Helper()
	sig, err := jwt.SigningMethodES256.Sign(string(blob), s.key)
	require.NoError(t, err)
	return []byte(base64.RawURLEncoding.EncodeToString(sig))
}

func (s signer) pem(t *testing.T) []byte {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func (s signer) anchor(t *testing.T) Anchor {
	t.Helper()
	a, err := ParseAnchor(s.pem(t))
	require.NoError(t, err)
	return a
}

const rulesBlob = `{
  "validFrom": "2021-01-01T00:00:00Z",
  "validUntil": "2022-01-01T00:00:00Z",
  "rules": [
    {"rule": {
      "Identifier": "GR-AT-0001",
      "Type": "Acceptance",
      "Country": "at",
      "Version": "1.0.0",
      "SchemaVersion": "1.0.0",
      "Engine": "CERTLOGIC",
      "EngineVersion": "0.7.5",
      "CertificateType": "Test",
      "Description": [{"lang": "en", "desc": "Test type must be accepted"}],
      "ValidFrom": "2021-01-01T00:00:00Z",
      "ValidTo": "2030-06-01T00:00:00Z",
      "AffectedFields": ["t.0.tt"],
      "Logic": {"in": [{"var": "payload.t.0.tt"}, {"var": "external.valueSets.covid-19-lab-test-type"}]}
    }},
    {"rule": "{\"Identifier\":\"GR-AT-0002\",\"Country\":\"AT\",\"SchemaVersion\":\"2.0.0\",\"Logic\":\"true\"}"}
  ]
}`

const valueSetsBlob = `{
  "validFrom": "2021-01-01T00:00:00Z",
  "validUntil": "2022-01-01T00:00:00Z",
  "valueSets": [
    {"valueSet": {
      "valueSetId": "covid-19-lab-test-type",
      "valueSetDate": "2021-04-27",
      "valueSetValues": {"LP6464-4": {"display": "NAAT"}, "LP217198-3": {"display": "RAT"}}
    }},
    {"valueSet": "{\"valueSetId\":\"disease-agent-targeted\",\"valueSetValues\":{\"840539006\":{}}}"}
  ]
}`
