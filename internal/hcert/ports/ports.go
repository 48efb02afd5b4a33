// Package ports declares what the validation facade needs from the outside
// world. Adapters live in decoder, trust and pkg/platform/audit.
package ports

import (
	"context"
	"time"

	"greenlight/internal/hcert/claims"
	"greenlight/internal/hcert/rules"
	"greenlight/internal/hcert/trust"
	"greenlight/internal/hcert/valueset"
	"greenlight/pkg/platform/audit"
)

// Decoder turns a compact certificate string into claims.
type Decoder interface {
	Decode(ctx context.Context, certificate string) (claims.Claims, error)
}

// TrustVerifier verifies signed bundles against a trust anchor and parses them.
// Both loads fail when the signature does not verify or the bundle is not
// valid at the given instant.
type TrustVerifier interface {
	LoadBusinessRules(ctx context.Context, anchor trust.Anchor, blob, signature []byte, at time.Time) (trust.Metadata, rules.RuleSet, error)
	LoadValueSets(ctx context.Context, anchor trust.Anchor, blob, signature []byte, at time.Time) (trust.Metadata, valueset.Collection, error)
}

// AuditPublisher records validation outcomes. Publishing is best effort.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
