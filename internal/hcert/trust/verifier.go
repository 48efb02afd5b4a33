// Package trust verifies and parses the signed rule and value set bundles a
// jurisdiction publishes, and retrieves them from the trust list endpoint.
package trust

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"greenlight/internal/hcert/metrics"
	"greenlight/internal/hcert/rules"
	"greenlight/internal/hcert/valueset"
	dErrors "greenlight/pkg/domain-errors"
)

const defaultCacheSize = 32

type parsedRules struct {
	meta Metadata
	set  rules.RuleSet
}

type parsedValueSets struct {
	meta Metadata
	sets valueset.Collection
}

// Verifier checks detached signatures and parses bundles. Parsed bundles are
// kept in a small LRU keyed by anchor, blob and signature, so a bundle is
// verified once per process no matter how many certificates use it.
type Verifier struct {
	checker   *ruleChecker
	rules     *lru.Cache[string, parsedRules]
	valueSets *lru.Cache[string, parsedValueSets]
	logger    *slog.Logger
	metrics   *metrics.Metrics

	cacheSize      int
	schemaVersions string
}

type VerifierOption func(*Verifier)

func WithVerifierLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		v.logger = logger
	}
}

func WithVerifierMetrics(m *metrics.Metrics) VerifierOption {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// WithCacheSize bounds the number of parsed bundles kept per kind.
func WithCacheSize(n int) VerifierOption {
	return func(v *Verifier) {
		if n > 0 {
			v.cacheSize = n
		}
	}
}

// WithSchemaVersions sets the semver range of supported rule SchemaVersions.
func WithSchemaVersions(constraint string) VerifierOption {
	return func(v *Verifier) {
		if constraint != "" {
			v.schemaVersions = constraint
		}
	}
}

func NewVerifier(opts ...VerifierOption) (*Verifier, error) {
	v := &Verifier{
		logger:         slog.New(slog.DiscardHandler),
		cacheSize:      defaultCacheSize,
		schemaVersions: DefaultSchemaVersions,
	}
	for _, opt := range opts {
		opt(v)
	}
	var err error
	if v.checker, err = newRuleChecker(v.schemaVersions); err != nil {
		return nil, err
	}
	if v.rules, err = lru.New[string, parsedRules](v.cacheSize); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rules cache")
	}
	if v.valueSets, err = lru.New[string, parsedValueSets](v.cacheSize); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "value set cache")
	}
	return v, nil
}

// LoadBusinessRules verifies the rules blob against anchor and returns its
// rules. It fails with CodeUntrusted when the signature does not verify and
// with CodeExpired when the bundle is not valid at at.
func (v *Verifier) LoadBusinessRules(ctx context.Context, anchor Anchor, blob, signature []byte, at time.Time) (Metadata, rules.RuleSet, error) {
	key := cacheKey(anchor, blob, signature)
	parsed, hit := v.rules.Get(key)
	v.recordCache("rules", hit)
	if !hit {
		if err := anchor.verify(blob, signature); err != nil {
			return Metadata{}, rules.RuleSet{}, dErrors.Wrap(err, dErrors.CodeUntrusted, "rules bundle: "+err.Error())
		}
		var err error
		if parsed, err = v.parseRules(blob); err != nil {
			return Metadata{}, rules.RuleSet{}, err
		}
		v.rules.Add(key, parsed)
		v.logger.InfoContext(ctx, "rules bundle verified",
			"digest", parsed.meta.Digest,
			"rules", parsed.set.Len(),
			"valid_until", parsed.meta.ValidUntil,
		)
	}
	if err := checkWindow("rules", parsed.meta, at); err != nil {
		return Metadata{}, rules.RuleSet{}, err
	}
	return parsed.meta, parsed.set, nil
}

// LoadValueSets is LoadBusinessRules for the value set bundle.
func (v *Verifier) LoadValueSets(ctx context.Context, anchor Anchor, blob, signature []byte, at time.Time) (Metadata, valueset.Collection, error) {
	key := cacheKey(anchor, blob, signature)
	parsed, hit := v.valueSets.Get(key)
	v.recordCache("valuesets", hit)
	if !hit {
		if err := anchor.verify(blob, signature); err != nil {
			return Metadata{}, valueset.Collection{}, dErrors.Wrap(err, dErrors.CodeUntrusted, "value set bundle: "+err.Error())
		}
		var err error
		if parsed, err = parseValueSets(blob); err != nil {
			return Metadata{}, valueset.Collection{}, err
		}
		v.valueSets.Add(key, parsed)
		v.logger.InfoContext(ctx, "value set bundle verified",
			"digest", parsed.meta.Digest,
			"value_sets", parsed.sets.Len(),
			"valid_until", parsed.meta.ValidUntil,
		)
	}
	if err := checkWindow("value set", parsed.meta, at); err != nil {
		return Metadata{}, valueset.Collection{}, err
	}
	return parsed.meta, parsed.sets, nil
}

func (v *Verifier) parseRules(blob []byte) (parsedRules, error) {
	var b rulesBundle
	if err := json.Unmarshal(blob, &b); err != nil {
		return parsedRules{}, dErrors.Wrap(err, dErrors.CodeValidation, "rules bundle is not valid JSON")
	}
	meta, err := b.metadata(blob)
	if err != nil {
		return parsedRules{}, err
	}
	list := make([]rules.Rule, 0, len(b.Rules))
	for i, entry := range b.Rules {
		body, err := unquote(entry.Rule)
		if err != nil {
			return parsedRules{}, dErrors.Wrap(err, dErrors.CodeValidation, "rules bundle entry is not valid JSON")
		}
		r, err := v.checker.decode(body)
		if err != nil {
			return parsedRules{}, dErrors.Wrap(err, dErrors.CodeValidation, "rules bundle entry "+strconv.Itoa(i)+": "+err.Error())
		}
		list = append(list, r)
	}
	return parsedRules{meta: meta, set: rules.NewRuleSet(meta.Window(), list...)}, nil
}

func parseValueSets(blob []byte) (parsedValueSets, error) {
	var b valueSetsBundle
	if err := json.Unmarshal(blob, &b); err != nil {
		return parsedValueSets{}, dErrors.Wrap(err, dErrors.CodeValidation, "value set bundle is not valid JSON")
	}
	meta, err := b.metadata(blob)
	if err != nil {
		return parsedValueSets{}, err
	}
	sets := make([]valueset.ValueSet, 0, len(b.ValueSets))
	for _, entry := range b.ValueSets {
		vs, err := parseValueSet(entry.ValueSet)
		if err != nil {
			return parsedValueSets{}, err
		}
		sets = append(sets, vs)
	}
	collection, err := valueset.NewCollection(meta.Window(), sets...)
	if err != nil {
		return parsedValueSets{}, err
	}
	return parsedValueSets{meta: meta, sets: collection}, nil
}

func checkWindow(kind string, meta Metadata, at time.Time) error {
	if meta.Window().Contains(at) {
		return nil
	}
	return dErrors.New(dErrors.CodeExpired,
		kind+" bundle is not valid at "+at.UTC().Format(time.RFC3339)+", valid "+meta.Window().String())
}

func (v *Verifier) recordCache(kind string, hit bool) {
	if v.metrics != nil {
		v.metrics.RecordBundleCache(kind, hit)
	}
}

func cacheKey(anchor Anchor, blob, signature []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(anchor.Fingerprint()))
	h.Write([]byte{0})
	h.Write(signature)
	h.Write([]byte{0})
	h.Write(blob)
	return hex.EncodeToString(h.Sum(nil))
}
