// Package engine evaluates business rule sets against certificate claims and
// estimates how long a valid certificate stays valid.
package engine

import (
	"log/slog"
	"time"

	"greenlight/internal/hcert/claims"
	"greenlight/internal/hcert/logic"
	"greenlight/internal/hcert/rules"
	"greenlight/internal/hcert/valueset"
)

// Engine is stateless; one instance can serve concurrent calls.
type Engine struct {
	logger *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report rule evaluation faults.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// Evaluate runs every rule of set that is in force at ruleSelectionClock.
// Value sets are likewise restricted to those in force at ruleSelectionClock.
// referenceClock is what rules see as external.validationClock.
//
// A rule passes only if its logic yields boolean true. Evaluation faults fail
// the rule and are recorded on its Failure; they never abort the call.
func (e *Engine) Evaluate(
	c claims.Claims,
	set rules.RuleSet,
	valueSets valueset.Collection,
	referenceClock, ruleSelectionClock time.Time,
) Verdict {
	applicable := set.ApplicableAt(ruleSelectionClock)
	if len(applicable) == 0 {
		return Verdict{}
	}
	external := map[string]any{
		"valueSets":       valueSets.ActiveAt(ruleSelectionClock).ForLogic(),
		"validationClock": logic.FormatDateTime(referenceClock),
	}
	payload := c.Payload()

	var failures []Failure
	for _, r := range applicable {
		data := map[string]any{"payload": payload, "external": external}
		result, err := logic.Eval(r.Logic, data)
		if err == nil && result == true {
			continue
		}
		if err != nil {
			e.logger.Warn("rule evaluation fault",
				"rule_id", r.Identifier,
				"country", r.Country,
				"error", err,
			)
		}
		failures = append(failures, Failure{
			RuleID:       r.Identifier,
			Descriptions: r.FailureDescriptions(),
			Fault:        err,
		})
	}
	return Verdict{failures: failures}
}
