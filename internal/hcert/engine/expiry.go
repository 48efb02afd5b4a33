package engine

import (
	"time"

	"greenlight/internal/hcert/claims"
	"greenlight/internal/hcert/rules"
	"greenlight/internal/hcert/valueset"
)

// Resolution is the granularity of the validity boundary search. It matches
// the millisecond precision of the validation clock handed to rules.
const Resolution = time.Millisecond

// initialProbe is the first forward offset tried by FindExpiry.
const initialProbe = 24 * time.Hour

// latestInstant bounds the search: the validation clock is an RFC 3339
// timestamp and cannot express later years.
var latestInstant = time.Date(9999, 12, 31, 23, 59, 59, 999_000_000, time.UTC)

// Expiry is the estimated end of a certificate's validity.
type Expiry struct {
	// At is the latest instant confirmed valid.
	At time.Time
	// Unbounded is set when no invalid instant was found before the end of
	// the representable time range.
	Unbounded bool
}

// FindExpiry returns the last instant at which the certificate is still valid,
// or false if it is not valid at knownValidAt.
//
// Every probe selects rules and value sets at knownValidAt, so the estimate
// reflects a single rule generation. The search assumes monotonic decay: once
// invalid, a certificate never becomes valid again later. If the rules allow
// validity to reappear (e.g. a certificate that becomes valid only after a
// waiting period and then expires), the result is undefined.
func (e *Engine) FindExpiry(
	c claims.Claims,
	set rules.RuleSet,
	valueSets valueset.Collection,
	knownValidAt time.Time,
) (Expiry, bool) {
	validAt := func(t time.Time) bool {
		return e.Evaluate(c, set, valueSets, t, knownValidAt).Valid()
	}
	if !validAt(knownValidAt) {
		return Expiry{}, false
	}

	// Phase 1: double the offset until a probe fails.
	var lastValid int64 // offsets in Resolution units
	offset := int64(initialProbe / Resolution)
	maxOffset := latestInstant.UnixMilli() - knownValidAt.UnixMilli()
	for {
		if offset > maxOffset {
			return Expiry{At: probe(knownValidAt, lastValid), Unbounded: true}, true
		}
		if !validAt(probe(knownValidAt, offset)) {
			break
		}
		lastValid = offset
		offset *= 2
	}

	// Phase 2: bisect (lastValid, offset] down to one Resolution step.
	low, high := lastValid, offset
	for high-low > 1 {
		mid := low + (high-low)/2
		if validAt(probe(knownValidAt, mid)) {
			low = mid
		} else {
			high = mid
		}
	}
	return Expiry{At: probe(knownValidAt, low)}, true
}

// probe adds offset milliseconds to base. time.Duration cannot span the whole
// search range, so the sum is taken on Unix milliseconds.
func probe(base time.Time, offset int64) time.Time {
	ms := base.UnixMilli()
	sub := base.Sub(time.UnixMilli(ms))
	return time.UnixMilli(ms + offset).Add(sub).In(base.Location())
}
