// Package audit records what the validation service decided and why.
// Events never carry the certificate itself or the holder's name; the
// certificate is identified by a fingerprint and the person by token subject.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names what happened.
type Action string

const (
	ActionCertificateValidated Action = "certificate_validated"
	ActionTrustListRefreshed   Action = "trust_list_refreshed"
)

// Outcome values for ActionCertificateValidated.
const (
	OutcomeValid            = "valid"
	OutcomeInvalid          = "invalid"
	OutcomeIdentityMismatch = "identity_mismatch"
	OutcomeError            = "error"
)

// Event is transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          uuid.UUID
	Timestamp   time.Time
	Action      Action
	Outcome     string
	Subject     string // token subject of the authenticated person
	Certificate string // certificate fingerprint
	Country     string
	Region      string
	Reason      string
	ValidUntil  time.Time
	RequestID   string
	ClientIP    string // anonymized
	Device      string
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
