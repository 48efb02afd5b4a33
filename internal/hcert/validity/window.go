// Package validity models applicability windows shared by rules, value sets
// and signed bundles.
package validity

import (
	"time"

	dErrors "greenlight/pkg/domain-errors"
)

// Window is a half-open interval [From, Until). A zero bound is open.
type Window struct {
	From  time.Time
	Until time.Time
}

// Always is the unbounded window.
var Always = Window{}

// NewWindow validates that Until is after From when both are set.
func NewWindow(from, until time.Time) (Window, error) {
	w := Window{From: from, Until: until}
	if !from.IsZero() && !until.IsZero() && !until.After(from) {
		return Window{}, dErrors.New(dErrors.CodeValidation, "validity window ends before it starts")
	}
	return w, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.Until.IsZero() && !t.Before(w.Until) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (w Window) IsOpen() bool {
	return w.From.IsZero() && w.Until.IsZero()
}

func (w Window) String() string {
	from, until := "-inf", "+inf"
	if !w.From.IsZero() {
		from = w.From.UTC().Format(time.RFC3339)
	}
	if !w.Until.IsZero() {
		until = w.Until.UTC().Format(time.RFC3339)
	}
	return "[" + from + ", " + until + ")"
}
