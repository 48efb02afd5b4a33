package trust

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"

	"greenlight/internal/hcert/logic"
	"greenlight/internal/hcert/validity"
	"greenlight/internal/hcert/valueset"
	dErrors "greenlight/pkg/domain-errors"
)

// Metadata describes a verified bundle.
type Metadata struct {
	ValidFrom  time.Time
	ValidUntil time.Time
	// Digest is the hex blake2b-256 of the signed blob.
	Digest string
}

// Window is the bundle validity as a half-open interval.
func (m Metadata) Window() validity.Window {
	return validity.Window{From: m.ValidFrom, Until: m.ValidUntil}
}

type bundleHeader struct {
	ValidFrom  string `json:"validFrom"`
	ValidUntil string `json:"validUntil"`
}

type rulesBundle struct {
	bundleHeader
	Rules []struct {
		Rule json.RawMessage `json:"rule"`
	} `json:"rules"`
}

type valueSetsBundle struct {
	bundleHeader
	ValueSets []struct {
		ValueSet json.RawMessage `json:"valueSet"`
	} `json:"valueSets"`
}

type valueSetDoc struct {
	ID     string                     `json:"valueSetId"`
	Date   string                     `json:"valueSetDate"`
	Values map[string]json.RawMessage `json:"valueSetValues"`
}

func (h bundleHeader) metadata(blob []byte) (Metadata, error) {
	sum := blake2b.Sum256(blob)
	meta := Metadata{Digest: hex.EncodeToString(sum[:])}
	var err error
	if meta.ValidFrom, err = bundleTime("validFrom", h.ValidFrom); err != nil {
		return Metadata{}, err
	}
	if meta.ValidUntil, err = bundleTime("validUntil", h.ValidUntil); err != nil {
		return Metadata{}, err
	}
	if !meta.ValidUntil.After(meta.ValidFrom) {
		return Metadata{}, dErrors.New(dErrors.CodeValidation, "bundle validUntil must be after validFrom")
	}
	return meta, nil
}

func bundleTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "bundle "+field+" is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, ok := logic.ParseDateTime(s); ok {
		return t, nil
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, "bundle "+field+" is not a date-time: "+s)
}

// unquote accepts an entry given either inline or as a JSON encoded string.
func unquote(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func parseValueSet(raw json.RawMessage) (valueset.ValueSet, error) {
	body, err := unquote(raw)
	if err != nil {
		return valueset.ValueSet{}, dErrors.Wrap(err, dErrors.CodeValidation, "value set entry is not valid JSON")
	}
	var doc valueSetDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return valueset.ValueSet{}, dErrors.Wrap(err, dErrors.CodeValidation, "value set entry is not valid JSON")
	}
	codes := make([]string, 0, len(doc.Values))
	for code := range doc.Values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	// a value set version dated in the future is not yet in force
	var window validity.Window
	if doc.Date != "" {
		from, err := bundleTime("valueSetDate", doc.Date)
		if err != nil {
			return valueset.ValueSet{}, err
		}
		window.From = from
	}
	return valueset.New(doc.ID, codes, window)
}
