package engine

import "sort"

// Failure is one rule that did not evaluate to true.
type Failure struct {
	RuleID string
	// Descriptions maps language -> "[RuleID] text".
	Descriptions map[string]string
	// Fault is set when the rule could not be evaluated at all.
	Fault error
}

// Message picks the description for lang, falling back to English and then
// to the first language in sorted order.
func (f Failure) Message(lang string) string {
	if m, ok := f.Descriptions[lang]; ok {
		return m
	}
	if m, ok := f.Descriptions[fallbackLang]; ok {
		return m
	}
	langs := make([]string, 0, len(f.Descriptions))
	for l := range f.Descriptions {
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return "[" + f.RuleID + "]"
	}
	sort.Strings(langs)
	return f.Descriptions[langs[0]]
}

const fallbackLang = "en"

// Verdict aggregates a rule set evaluation.
type Verdict struct {
	failures []Failure
}

// Valid is true iff no applicable rule failed.
func (v Verdict) Valid() bool {
	return len(v.failures) == 0
}

// Failures are reported in rule order.
func (v Verdict) Failures() []Failure {
	return append([]Failure(nil), v.failures...)
}

// Messages returns one localized description per failing rule.
func (v Verdict) Messages(lang string) []string {
	out := make([]string, len(v.failures))
	for i, f := range v.failures {
		out[i] = f.Message(lang)
	}
	return out
}
