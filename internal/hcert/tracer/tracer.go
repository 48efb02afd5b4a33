// Package tracer is the span abstraction used by the validation context.
// Callers depend on Tracer and Span only; NewOTel backs them with
// OpenTelemetry and NewNoop is for tests.
package tracer

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer starts spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to a span.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute    { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute   { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Fingerprint returns a short blake2b digest of a certificate so traces can
// be correlated without carrying the certificate itself.
func Fingerprint(certificate string) string {
	if certificate == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(certificate))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanValidate       = "hcert.validate"
	SpanDecode         = "hcert.decode"
	SpanLoadTrust      = "hcert.trust.load"
	SpanEvaluate       = "hcert.rules.evaluate"
	SpanFindExpiry     = "hcert.rules.expiry"
	SpanFetchTrustList = "hcert.trust.fetch"
)

// Attribute keys.
const (
	AttrCertificate = "hcert.fingerprint"
	AttrCountry     = "jurisdiction.country"
	AttrRegion      = "jurisdiction.region"
	AttrOutcome     = "outcome"
	AttrRuleCount   = "rules.count"
	AttrFailures    = "rules.failures"
	AttrUnbounded   = "expiry.unbounded"
	AttrSource      = "source"
)
