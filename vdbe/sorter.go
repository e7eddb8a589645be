package vdbe

import (
	"sort"

	"github.com/dbsql/dbsql/internal/value"
)

// sortEntry is one buffered row awaiting the final Sort (spec §4.5
// "Sorter": SortPut buffers a key+record pair; Sort performs the actual
// ordering once all rows are in, rather than maintaining order
// incrementally — grounded on the original bottom-up merge sorter, here
// expressed as a single sort.SliceStable since Go's runtime already gives us an
// efficient general sort).
type sortEntry struct {
	key    []byte
	record []byte
}

// Sorter implements SortPut/Sort/SortNext/SortCallback/SortReset. One
// Sorter instance per statement is sufficient for DBSQL's single active
// ORDER BY at a time (spec.md's sorter.c ancestor is likewise a single
// global sorter, not a per-cursor one).
type Sorter struct {
	entries []sortEntry
	pos     int
	sorted  bool
}

func (s *Sorter) Put(key, record []byte) {
	s.entries = append(s.entries, sortEntry{key: key, record: append([]byte(nil), record...)})
	s.sorted = false
}

func (s *Sorter) Sort() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return compareBytes(s.entries[i].key, s.entries[j].key) < 0
	})
	s.pos = 0
	s.sorted = true
}

// Next advances to the next sorted row, returning false once exhausted.
// Call it only after Current has already delivered the row at the
// present position — Sort itself primes position 0.
func (s *Sorter) Next() bool {
	s.pos++
	return s.pos < len(s.entries)
}

// Current returns the row the sorter is positioned on (valid immediately
// after Sort, and again after each Next that returned true).
func (s *Sorter) Current() (key, record []byte, ok bool) {
	if s.pos < 0 || s.pos >= len(s.entries) {
		return nil, nil, false
	}
	e := s.entries[s.pos]
	return e.key, e.record, true
}

func (s *Sorter) Reset() { *s = Sorter{} }

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// makeSortKey builds a sortable key from a row of values via MakeIdxKey
// with a constant zero row-id suffix, which never changes the order
// (ORDER BY doesn't need a tiebreak — stability is handled by
// sort.SliceStable).
func makeSortKey(vals []value.Value) []byte {
	return value.MakeIdxKey(vals, 0)
}
