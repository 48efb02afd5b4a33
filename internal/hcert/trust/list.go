package trust

import (
	"encoding/json"

	dErrors "greenlight/pkg/domain-errors"
)

// TrustList is the raw material published by the trust list endpoint: both
// signed blobs and their detached signatures, byte for byte.
type TrustList struct {
	Rules              []byte
	RulesSignature     []byte
	ValueSets          []byte
	ValueSetsSignature []byte
}

type trustListDoc struct {
	Rules        json.RawMessage `json:"rules"`
	RulesSig     string          `json:"rulessig"`
	ValueSets    json.RawMessage `json:"valuesets"`
	ValueSetsSig string          `json:"valuesetssig"`
}

// DecodeTrustList reads the endpoint document. Blobs may be JSON encoded
// strings or inline objects; inline objects are taken verbatim.
func DecodeTrustList(data []byte) (TrustList, error) {
	var doc trustListDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeValidation, "trust list is not valid JSON")
	}
	rulesBlob, err := unquote(doc.Rules)
	if err != nil {
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeValidation, "trust list rules entry")
	}
	valueSetsBlob, err := unquote(doc.ValueSets)
	if err != nil {
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeValidation, "trust list valuesets entry")
	}
	list := TrustList{
		Rules:              rulesBlob,
		RulesSignature:     []byte(doc.RulesSig),
		ValueSets:          valueSetsBlob,
		ValueSetsSignature: []byte(doc.ValueSetsSig),
	}
	if err := list.Validate(); err != nil {
		return TrustList{}, err
	}
	return list, nil
}

// Validate checks that every part is present.
func (l TrustList) Validate() error {
	switch {
	case len(l.Rules) == 0:
		return dErrors.New(dErrors.CodeValidation, "trust list has no rules")
	case len(l.RulesSignature) == 0:
		return dErrors.New(dErrors.CodeValidation, "trust list has no rules signature")
	case len(l.ValueSets) == 0:
		return dErrors.New(dErrors.CodeValidation, "trust list has no value sets")
	case len(l.ValueSetsSignature) == 0:
		return dErrors.New(dErrors.CodeValidation, "trust list has no value sets signature")
	}
	return nil
}

// Encode renders the list in the endpoint format, blobs as strings.
func (l TrustList) Encode() ([]byte, error) {
	rulesBlob, err := json.Marshal(string(l.Rules))
	if err != nil {
		return nil, err
	}
	valueSetsBlob, err := json.Marshal(string(l.ValueSets))
	if err != nil {
		return nil, err
	}
	return json.Marshal(trustListDoc{
		Rules:        rulesBlob,
		RulesSig:     string(l.RulesSignature),
		ValueSets:    valueSetsBlob,
		ValueSetsSig: string(l.ValueSetsSignature),
	})
}
