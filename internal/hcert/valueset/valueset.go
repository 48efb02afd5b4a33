// Package valueset holds the named enumerations referenced by business rules
// (accepted test types, vaccine products, disease agents, ...).
//
// Domain Purity: no I/O, no context.Context, no time.Now() calls.
package valueset

import (
	"sort"
	"strings"
	"time"

	"greenlight/internal/hcert/validity"
	dErrors "greenlight/pkg/domain-errors"
)

// ValueSet is a named set of permitted values with its own applicability window.
type ValueSet struct {
	id     string
	values []string
	window validity.Window
}

// New creates a value set. Values are de-duplicated, keeping first occurrence order.
func New(id string, values []string, window validity.Window) (ValueSet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ValueSet{}, dErrors.New(dErrors.CodeValidation, "value set id is required")
	}
	seen := make(map[string]struct{}, len(values))
	uniq := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		uniq = append(uniq, v)
	}
	return ValueSet{id: id, values: uniq, window: window}, nil
}

func (v ValueSet) ID() string              { return v.id }
func (v ValueSet) Window() validity.Window { return v.window }

// Values returns a copy of the permitted values.
func (v ValueSet) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// Contains reports whether value is permitted.
func (v ValueSet) Contains(value string) bool {
	for _, s := range v.values {
		if s == value {
			return true
		}
	}
	return false
}

// Collection is an immutable set of value sets keyed by id.
// The zero value is an empty collection.
type Collection struct {
	sets   []ValueSet
	index  map[string]int
	window validity.Window
}

// NewCollection builds a collection. Duplicate ids are rejected.
func NewCollection(window validity.Window, sets ...ValueSet) (Collection, error) {
	c := Collection{
		sets:   make([]ValueSet, 0, len(sets)),
		index:  make(map[string]int, len(sets)),
		window: window,
	}
	for _, s := range sets {
		if _, dup := c.index[s.id]; dup {
			return Collection{}, dErrors.New(dErrors.CodeValidation, "duplicate value set id: "+s.id)
		}
		c.index[s.id] = len(c.sets)
		c.sets = append(c.sets, s)
	}
	return c, nil
}

// Window is the bundle-level applicability of the collection.
func (c Collection) Window() validity.Window { return c.window }

func (c Collection) Len() int { return len(c.sets) }

// Get looks up a value set by id.
func (c Collection) Get(id string) (ValueSet, bool) {
	i, ok := c.index[id]
	if !ok {
		return ValueSet{}, false
	}
	return c.sets[i], true
}

// IDs returns the value set ids in sorted order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c.sets))
	for _, s := range c.sets {
		ids = append(ids, s.id)
	}
	sort.Strings(ids)
	return ids
}

// ActiveAt returns the value sets whose own window contains t.
func (c Collection) ActiveAt(t time.Time) Collection {
	out := Collection{index: make(map[string]int, len(c.sets)), window: c.window}
	for _, s := range c.sets {
		if !s.window.Contains(t) {
			continue
		}
		out.index[s.id] = len(out.sets)
		out.sets = append(out.sets, s)
	}
	return out
}

// ForLogic expands the collection into the shape rule expressions read:
// id -> array of permitted values. The result is freshly allocated.
func (c Collection) ForLogic() map[string]any {
	out := make(map[string]any, len(c.sets))
	for _, s := range c.sets {
		values := make([]any, len(s.values))
		for i, v := range s.values {
			values[i] = v
		}
		out[s.id] = values
	}
	return out
}
