// Package claims defines the decoded content of a health certificate.
//
// A certificate carries a handful of fields the validator inspects directly
// (holder name, date of birth, issuing country) and a much larger document of
// vaccination, test or recovery entries that only business rules look at.
// The former are named fields; the latter is kept as an opaque payload.
//
// Domain Purity: This package contains only pure domain logic with no I/O,
// no context.Context, and no time.Now() calls.
package claims

import (
	"strings"

	dErrors "greenlight/pkg/domain-errors"
)

// Claims is an immutable value object. Accessors return copies.
//
// Invariants:
//   - LastName or FirstName is non-empty for claims built from a document
//   - the payload is never shared with callers
type Claims struct {
	firstName      string
	lastName       string
	dateOfBirth    string
	issuingCountry string
	payload        map[string]any
}

// New builds claims from already extracted fields. The payload is deep-copied.
func New(firstName, lastName, dateOfBirth, issuingCountry string, payload map[string]any) Claims {
	return Claims{
		firstName:      strings.TrimSpace(firstName),
		lastName:       strings.TrimSpace(lastName),
		dateOfBirth:    strings.TrimSpace(dateOfBirth),
		issuingCountry: strings.ToUpper(strings.TrimSpace(issuingCountry)),
		payload:        copyMap(payload),
	}
}

// FromDocument extracts claims from a decoded DCC document:
//
//	{"nam": {"gn": "...", "fn": "...", "gnt": "...", "fnt": "..."},
//	 "dob": "1990-01-01", "v"|"t"|"r": [{"co": "AT", ...}]}
//
// Transliterated names (gnt/fnt) are used when the plain form is missing.
func FromDocument(doc map[string]any) (Claims, error) {
	if doc == nil {
		return Claims{}, dErrors.New(dErrors.CodeBadRequest, "certificate document is empty")
	}
	nam, ok := doc["nam"].(map[string]any)
	if !ok {
		return Claims{}, dErrors.New(dErrors.CodeBadRequest, "certificate has no holder name")
	}
	first := firstString(nam, "gn", "gnt")
	last := firstString(nam, "fn", "fnt")
	if first == "" && last == "" {
		return Claims{}, dErrors.New(dErrors.CodeBadRequest, "certificate holder name is empty")
	}
	dob, _ := doc["dob"].(string)
	return New(first, last, dob, issuingCountry(doc), doc), nil
}

func (c Claims) FirstName() string      { return c.firstName }
func (c Claims) LastName() string       { return c.lastName }
func (c Claims) DateOfBirth() string    { return c.dateOfBirth }
func (c Claims) IssuingCountry() string { return c.issuingCountry }

// Payload returns a deep copy of the full decoded document.
func (c Claims) Payload() map[string]any {
	return copyMap(c.payload)
}

// Kind reports which certificate entry the payload carries: "v", "t", "r" or "".
func (c Claims) Kind() string {
	for _, k := range entryKeys {
		if entries, ok := c.payload[k].([]any); ok && len(entries) > 0 {
			return k
		}
	}
	return ""
}

var entryKeys = []string{"v", "t", "r"}

func issuingCountry(doc map[string]any) string {
	for _, k := range entryKeys {
		entries, ok := doc[k].([]any)
		if !ok || len(entries) == 0 {
			continue
		}
		if entry, ok := entries[0].(map[string]any); ok {
			if co, ok := entry["co"].(string); ok {
				return co
			}
		}
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
