// Package attrbind maps string-keyed manager attributes onto typed structs.
//
// Each target type declares a Table once, naming every attribute it understands
// together with a typed setter. Binding never fails as a whole: unknown
// attributes and values that do not coerce are logged and skipped one by one,
// so a protocol version that adds or renames attributes keeps working.
package attrbind

import (
	"sort"
	"strings"
)

// Set is a set of attribute names.
type Set map[string]struct{}

// NewSet returns a Set holding the normalized names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[Normalize(n)] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set after normalization.
func (s Set) Has(name string) bool {
	_, ok := s[Normalize(name)]
	return ok
}

// Setter assigns a raw attribute value to one field of T.
type Setter[T any] struct {
	Type string
	Set  func(target *T, value string) error
}

// Table holds the setters of one target type, keyed by normalized attribute name.
type Table[T any] struct {
	name     string
	freeForm bool
	setters  map[string]Setter[T]
}

// NewTable returns an empty table for the type called name.
func NewTable[T any](name string) *Table[T] {
	return &Table[T]{
		name:    name,
		setters: make(map[string]Setter[T]),
	}
}

// Name returns the target type name used in diagnostics.
func (t *Table[T]) Name() string {
	return t.name
}

// FreeForm marks the target as accepting arbitrary attributes. Unknown names
// are then skipped without a warning.
func (t *Table[T]) FreeForm() *Table[T] {
	t.freeForm = true
	return t
}

// Field registers setter for the attribute name.
func (t *Table[T]) Field(name string, setter Setter[T]) *Table[T] {
	t.setters[Normalize(name)] = setter
	return t
}

// Lookup returns the setter for the attribute name, if any.
func (t *Table[T]) Lookup(name string) (Setter[T], bool) {
	s, ok := t.setters[Normalize(name)]
	return s, ok
}

// Include copies all setters of inner into outer. get selects the embedded
// value of type U inside T.
func Include[T, U any](outer *Table[T], inner *Table[U], get func(*T) *U) *Table[T] {
	for name, s := range inner.setters {
		set := s.Set
		outer.setters[name] = Setter[T]{
			Type: s.Type,
			Set: func(target *T, value string) error {
				return set(get(target), value)
			},
		}
	}
	return outer
}

// Bind sets every attribute in attrs that is not ignored onto target and
// returns the number of fields that were set.
func (t *Table[T]) Bind(target *T, attrs map[string]string, ignored Set) int {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	bound := 0
	for _, name := range names {
		value := attrs[name]
		if ignored.Has(name) {
			continue
		}

		setter, ok := t.Lookup(name)
		if !ok {
			if !t.freeForm {
				logger.Warnf("unable to set attribute %q to %q on %s: no such field", name, value, t.name)
			}
			continue
		}

		if err := setter.Set(target, value); err != nil {
			logger.Errorf("unable to convert value %q of attribute %q on %s to %s: %v", value, name, t.name, setter.Type, err)
			continue
		}
		bound++
	}

	logger.Tracef("bound %d of %d attributes on %s", bound, len(attrs), t.name)

	return bound
}

// Normalize turns a wire attribute name into a table key: lowercase with
// everything but letters and digits removed. "source" maps to "src" because
// the header already has a Source concept of its own.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if key == "source" {
		return "src"
	}
	return key
}
