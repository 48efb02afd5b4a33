package rules

import (
	"time"

	"greenlight/internal/hcert/validity"
)

// RuleSet is an ordered, immutable collection of rules with a bundle-level
// window. Order carries no meaning for the verdict and is kept for reporting.
// The zero value is an empty set.
type RuleSet struct {
	rules  []Rule
	window validity.Window
}

// NewRuleSet copies rules into a new set.
func NewRuleSet(window validity.Window, rules ...Rule) RuleSet {
	return RuleSet{rules: append([]Rule(nil), rules...), window: window}
}

func (s RuleSet) Window() validity.Window { return s.window }

func (s RuleSet) Len() int { return len(s.rules) }

// Rules returns a copy of the rules in order.
func (s RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Override returns a set where every rule with the given key is retired and
// replacement is appended.
func (s RuleSet) Override(identifier, country, region string, replacement Rule) RuleSet {
	key := Key{Identifier: identifier, Country: country, Region: region}
	kept := make([]Rule, 0, len(s.rules)+1)
	for _, r := range s.rules {
		if r.Key() != key {
			kept = append(kept, r)
		}
	}
	return RuleSet{rules: append(kept, replacement), window: s.window}
}

// Filter keeps the rules of one jurisdiction, preserving order and window.
func (s RuleSet) Filter(country, region string) RuleSet {
	kept := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.InJurisdiction(country, region) {
			kept = append(kept, r)
		}
	}
	return RuleSet{rules: kept, window: s.window}
}

// ApplicableAt returns the rules in force at t, in order.
func (s RuleSet) ApplicableAt(t time.Time) []Rule {
	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.ApplicableAt(t) {
			out = append(out, r)
		}
	}
	return out
}

// Countries lists the distinct countries in rule order.
func (s RuleSet) Countries() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.rules {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	return out
}
