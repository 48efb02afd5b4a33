// Package rules models jurisdiction-scoped business rules and rule sets.
//
// Domain Purity: no I/O, no context.Context, no time.Now() calls.
package rules

import (
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"greenlight/internal/hcert/logic"
	"greenlight/internal/hcert/validity"
)

// Type distinguishes rules a certificate must satisfy from rules that
// invalidate otherwise acceptable certificates. Both fail the same way.
type Type string

const (
	TypeAcceptance   Type = "Acceptance"
	TypeInvalidation Type = "Invalidation"
)

// Description is a human readable rule text in one language.
type Description struct {
	Lang string
	Text string
}

// Rule is one business rule.
//
// Invariants:
//   - Identifier and Country are non-empty
//   - Logic is never nil (undecodable logic is a logic.Invalid node)
type Rule struct {
	Identifier      string
	Type            Type
	Country         string
	Region          string
	Version         *semver.Version
	SchemaVersion   *semver.Version
	Engine          string
	EngineVersion   string
	CertificateType string
	Descriptions    []Description
	ValidFrom       time.Time
	ValidTo         time.Time
	AffectedFields  []string
	Logic           logic.Expr
}

// Key identifies the slot a rule occupies. Rules sharing a key replace each other.
type Key struct {
	Identifier string
	Country    string
	Region     string
}

func (r Rule) Key() Key {
	return Key{Identifier: r.Identifier, Country: r.Country, Region: r.Region}
}

// Window is the rule's own applicability, independent of any certificate.
func (r Rule) Window() validity.Window {
	return validity.Window{From: r.ValidFrom, Until: r.ValidTo}
}

// ApplicableAt reports whether the rule is in force at t.
func (r Rule) ApplicableAt(t time.Time) bool {
	return r.Window().Contains(t)
}

// InJurisdiction matches country case-insensitively and region exactly
// (an empty region only matches rules without a region).
func (r Rule) InJurisdiction(country, region string) bool {
	return strings.EqualFold(r.Country, country) && strings.EqualFold(r.Region, region)
}

// FailureDescriptions returns lang -> "[Identifier] text" for every language
// the rule is described in. A rule without descriptions yields the bare tag
// under "en".
func (r Rule) FailureDescriptions() map[string]string {
	out := make(map[string]string, len(r.Descriptions))
	for _, d := range r.Descriptions {
		out[d.Lang] = "[" + r.Identifier + "] " + d.Text
	}
	if len(out) == 0 {
		out["en"] = "[" + r.Identifier + "]"
	}
	return out
}

// Languages lists the description languages, sorted.
func (r Rule) Languages() []string {
	langs := make([]string, 0, len(r.Descriptions))
	for _, d := range r.Descriptions {
		langs = append(langs, d.Lang)
	}
	sort.Strings(langs)
	return langs
}
