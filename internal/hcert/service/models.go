package service

import (
	"time"

	"greenlight/internal/hcert/engine"
	"greenlight/internal/hcert/identity"
	"greenlight/internal/hcert/trust"
)

// Request is one validation call. ReferenceClock is used both to select
// rules and as the clock rules compare against.
type Request struct {
	Certificate    string
	ReferenceClock time.Time
	Bundle         Bundle
	Person         Person
}

// Bundle is the signed trust material for a call.
type Bundle struct {
	Anchor    trust.Anchor
	TrustList trust.TrustList
}

// Person is the authenticated person and the jurisdiction whose rules apply.
type Person struct {
	identity.Person
	Country string
	Region  string
	// Subject identifies the person in audit records instead of their name.
	Subject string
}

// Outcome is one of Valid, Invalid, IdentityMismatch or DecodeOrTrustError.
type Outcome interface {
	outcome() string
}

// Valid carries the decoded holder and the estimated end of validity.
type Valid struct {
	Person     identity.Person
	ValidUntil time.Time
	// Unbounded is set when no expiry was found in the representable range.
	Unbounded bool
}

// Invalid carries every failing rule.
type Invalid struct {
	Failures []engine.Failure
}

// Messages returns one description per failure in lang.
func (o Invalid) Messages(lang string) []string {
	out := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		out[i] = f.Message(lang)
	}
	return out
}

// IdentityMismatch deliberately carries no detail on which check failed.
type IdentityMismatch struct{}

// DecodeOrTrustError wraps a decode, signature or bundle window failure.
type DecodeOrTrustError struct {
	Err error
}

func (o DecodeOrTrustError) Error() string {
	if o.Err == nil {
		return "decode or trust failure"
	}
	return o.Err.Error()
}

func (o DecodeOrTrustError) Unwrap() error { return o.Err }

func (Valid) outcome() string              { return outcomeValid }
func (Invalid) outcome() string            { return outcomeInvalid }
func (IdentityMismatch) outcome() string   { return outcomeIdentityMismatch }
func (DecodeOrTrustError) outcome() string { return outcomeError }

const (
	outcomeValid            = "valid"
	outcomeInvalid          = "invalid"
	outcomeIdentityMismatch = "identity_mismatch"
	outcomeError            = "error"
)

// Name returns the outcome label used in logs, metrics and audit records.
func Name(o Outcome) string {
	if o == nil {
		return outcomeError
	}
	return o.outcome()
}
