package rules

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"greenlight/internal/hcert/logic"
	dErrors "greenlight/pkg/domain-errors"
)

// Document is the wire form of a rule inside a signed rules bundle.
type Document struct {
	Identifier      string           `json:"Identifier"`
	Type            string           `json:"Type"`
	Country         string           `json:"Country"`
	Region          string           `json:"Region,omitempty"`
	Version         string           `json:"Version"`
	SchemaVersion   string           `json:"SchemaVersion"`
	Engine          string           `json:"Engine"`
	EngineVersion   string           `json:"EngineVersion"`
	CertificateType string           `json:"CertificateType"`
	Description     []descriptionDoc `json:"Description"`
	ValidFrom       string           `json:"ValidFrom"`
	ValidTo         string           `json:"ValidTo"`
	AffectedFields  []string         `json:"AffectedFields"`
	Logic           json.RawMessage  `json:"Logic"`
}

type descriptionDoc struct {
	Lang string `json:"lang"`
	Desc string `json:"desc"`
}

// Decode parses one rule document. Malformed metadata is an error; logic that
// cannot be decoded is kept as logic.Invalid so the rule fails on its own at
// evaluation time instead of rejecting the whole bundle.
func Decode(raw []byte) (Rule, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule is not valid JSON")
	}
	return doc.ToRule()
}

// ToRule converts the wire form into a Rule.
func (d Document) ToRule() (Rule, error) {
	if strings.TrimSpace(d.Identifier) == "" {
		return Rule{}, dErrors.New(dErrors.CodeValidation, "rule identifier is required")
	}
	if strings.TrimSpace(d.Country) == "" {
		return Rule{}, dErrors.New(dErrors.CodeValidation, "rule "+d.Identifier+": country is required")
	}
	r := Rule{
		Identifier:      d.Identifier,
		Type:            Type(d.Type),
		Country:         strings.ToUpper(d.Country),
		Region:          d.Region,
		Engine:          d.Engine,
		EngineVersion:   d.EngineVersion,
		CertificateType: d.CertificateType,
		AffectedFields:  append([]string(nil), d.AffectedFields...),
	}
	var err error
	if r.Version, err = optionalVersion(d.Version); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule "+d.Identifier+": bad Version")
	}
	if r.SchemaVersion, err = optionalVersion(d.SchemaVersion); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule "+d.Identifier+": bad SchemaVersion")
	}
	if r.ValidFrom, err = optionalTime(d.ValidFrom); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule "+d.Identifier+": bad ValidFrom")
	}
	if r.ValidTo, err = optionalTime(d.ValidTo); err != nil {
		return Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule "+d.Identifier+": bad ValidTo")
	}
	for _, desc := range d.Description {
		r.Descriptions = append(r.Descriptions, Description{Lang: desc.Lang, Text: desc.Desc})
	}
	r.Logic, err = logic.Decode(d.Logic)
	if err != nil {
		r.Logic = logic.Invalid{Err: err}
	}
	return r, nil
}

func optionalVersion(s string) (*semver.Version, error) {
	if s == "" {
		return nil, nil
	}
	return semver.NewVersion(s)
}

func optionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if parsed, ok := logic.ParseDateTime(s); ok {
			return parsed, nil
		}
		return time.Time{}, err
	}
	return t, nil
}
