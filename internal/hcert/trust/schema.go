package trust

import (
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"greenlight/internal/hcert/logic"
	"greenlight/internal/hcert/rules"
	dErrors "greenlight/pkg/domain-errors"
)

//go:embed rule.schema.json
var ruleSchemaJSON string

const ruleSchemaURL = "https://greenlight.local/schemas/rule.schema.json"

// DefaultSchemaVersions is the range of rule SchemaVersion values this engine evaluates.
const DefaultSchemaVersions = ">= 1.0.0, < 2.0.0"

// ruleChecker validates rule documents before they are decoded.
type ruleChecker struct {
	schema   *jsonschema.Schema
	versions *semver.Constraints
}

func newRuleChecker(versionRange string) (*ruleChecker, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(ruleSchemaURL, strings.NewReader(ruleSchemaJSON)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rule schema load failed")
	}
	schema, err := c.Compile(ruleSchemaURL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rule schema compile failed")
	}
	versions, err := semver.NewConstraint(versionRange)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "bad schema version range "+versionRange)
	}
	return &ruleChecker{schema: schema, versions: versions}, nil
}

// decode validates one rule document against the schema and converts it.
// A rule whose SchemaVersion is outside the supported range is kept, with
// logic that faults when evaluated, so it fails on its own.
func (c *ruleChecker) decode(raw []byte) (rules.Rule, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return rules.Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule is not valid JSON")
	}
	if err := c.schema.Validate(doc); err != nil {
		return rules.Rule{}, dErrors.Wrap(err, dErrors.CodeValidation, "rule violates schema: "+err.Error())
	}
	rule, err := rules.Decode(raw)
	if err != nil {
		return rules.Rule{}, err
	}
	if rule.SchemaVersion != nil && !c.versions.Check(rule.SchemaVersion) {
		rule.Logic = logic.Invalid{Err: dErrors.New(dErrors.CodeValidation,
			"unsupported schema version "+rule.SchemaVersion.String())}
	}
	return rule, nil
}
