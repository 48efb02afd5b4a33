// Package identity decides whether a certificate belongs to the authenticated
// person by comparing birth date and names.
//
// Domain Purity: no I/O, no context.Context, no time.Now() calls.
package identity

import "strings"

// Person is the identity triple compared on both sides.
type Person struct {
	FirstName   string
	LastName    string
	DateOfBirth string
}

// Result carries only the decision. The birth date tier picks the threshold
// and is deliberately not exposed.
type Result struct {
	Matched bool
	tier    Tier
}

// Matcher is stateless and safe for concurrent use.
type Matcher struct {
	policy     Policy
	similarity Similarity
}

// Option configures the Matcher.
type Option func(*Matcher)

func WithPolicy(p Policy) Option {
	return func(m *Matcher) {
		m.policy = p
	}
}

// WithSimilarity swaps the name scoring function.
func WithSimilarity(fn Similarity) Option {
	return func(m *Matcher) {
		m.similarity = fn
	}
}

func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{policy: DefaultPolicy(), similarity: DiceSimilarity}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match compares the certificate holder with the authenticated person.
//
// The birth dates must not contradict each other. If the certificate carries a
// first name, some pairing of the first two given-name tokens on each side must
// reach the threshold. The last names must always reach it.
func (m *Matcher) Match(claimed, authenticated Person) Result {
	tier, ok := CompareBirthdates(claimed.DateOfBirth, authenticated.DateOfBirth)
	if !ok {
		return Result{}
	}
	threshold := m.policy.Threshold(tier)

	if strings.TrimSpace(claimed.FirstName) != "" && !m.anyTokenPair(claimed.FirstName, authenticated.FirstName, threshold) {
		return Result{tier: tier}
	}
	if m.similarity(claimed.LastName, authenticated.LastName) < threshold {
		return Result{tier: tier}
	}
	return Result{Matched: true, tier: tier}
}

func (m *Matcher) anyTokenPair(claimed, authenticated string, threshold float64) bool {
	for _, c := range givenNameTokens(claimed) {
		for _, a := range givenNameTokens(authenticated) {
			if m.similarity(c, a) >= threshold {
				return true
			}
		}
	}
	return false
}

// givenNameTokens returns at most the first two whitespace separated tokens.
func givenNameTokens(s string) []string {
	tokens := strings.Fields(s)
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}
	return tokens
}
