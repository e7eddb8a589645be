// Package dbhash implements the case-insensitive string-keyed maps used
// throughout the schema cache and per-operation symbol tables (spec §2,
// "Hash & keyed maps"). Identifier case-folding is grounded on the
// teacher's schema.NormalizeIdentifierName.
package dbhash

import "strings"

// Map is a case-insensitive string -> T map that preserves the
// first-inserted casing of each key for iteration/display purposes.
type Map[T any] struct {
	m map[string]entry[T]
}

type entry[T any] struct {
	key   string
	value T
}

// New returns an empty Map.
func New[T any]() *Map[T] {
	return &Map[T]{m: make(map[string]entry[T])}
}

func fold(key string) string { return strings.ToLower(key) }

// Set inserts or overwrites key -> value. The casing of key is recorded on
// first insertion and not updated on overwrite.
func (m *Map[T]) Set(key string, value T) {
	k := fold(key)
	if e, ok := m.m[k]; ok {
		m.m[k] = entry[T]{key: e.key, value: value}
		return
	}
	m.m[k] = entry[T]{key: key, value: value}
}

// Get looks up key case-insensitively.
func (m *Map[T]) Get(key string) (T, bool) {
	e, ok := m.m[fold(key)]
	return e.value, ok
}

// Delete removes key, if present.
func (m *Map[T]) Delete(key string) {
	delete(m.m, fold(key))
}

// Len returns the number of entries.
func (m *Map[T]) Len() int { return len(m.m) }

// Keys returns the originally-cased keys in insertion-independent
// (map-iteration) order; callers that need determinism should sort.
func (m *Map[T]) Keys() []string {
	out := make([]string, 0, len(m.m))
	for _, e := range m.m {
		out = append(out, e.key)
	}
	return out
}

// Values returns all values in map-iteration order.
func (m *Map[T]) Values() []T {
	out := make([]T, 0, len(m.m))
	for _, e := range m.m {
		out = append(out, e.value)
	}
	return out
}

// Each calls fn for every entry; iteration order is unspecified.
func (m *Map[T]) Each(fn func(key string, value T)) {
	for _, e := range m.m {
		fn(e.key, e.value)
	}
}

// Clone returns a shallow copy (values are not deep-copied).
func (m *Map[T]) Clone() *Map[T] {
	out := New[T]()
	for k, e := range m.m {
		out.m[k] = e
	}
	return out
}
