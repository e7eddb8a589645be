package vdbe

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dbsql/dbsql/internal/value"
)

// aggGroup is one GROUP BY bucket's accumulator cells (spec §4.5
// "Aggregator": AggReset(n_cols) declares the per-group cell count,
// AggSet/AggGet address one of them by index).
type aggGroup struct {
	key     []byte
	cells   []value.Value
	visited bool // first-visit flag reported by Next; AggNext ignores it
}

// Aggregator implements AggReset/AggInit/AggFunc/AggFocus/AggSet/AggGet/
// AggNext: a hash table of group accumulators keyed by the GROUP BY tuple
// (or a single implicit group, for a plain aggregate with no GROUP BY).
// Group lookup hashes the key with xxhash (spec's "hashes top-of-stack
// key"); the hash buckets a short collision chain compared by full key
// equality, so a 64-bit hash collision never merges two distinct groups.
type Aggregator struct {
	nCols   int
	buckets map[uint64][]*aggGroup
	order   []*aggGroup // insertion order, for deterministic AggNext iteration

	current *aggGroup
	iterPos int
}

func (a *Aggregator) Reset(nCols int) {
	a.nCols = nCols
	a.buckets = make(map[uint64][]*aggGroup)
	a.order = nil
	a.current = nil
	a.iterPos = 0
}

// Focus locates (creating if absent) the group for key, setting it as the
// current group. found reports whether the group already existed.
func (a *Aggregator) Focus(key []byte) (found bool) {
	if a.buckets == nil {
		a.Reset(a.nCols)
	}
	h := xxhash.Sum64(key)
	for _, g := range a.buckets[h] {
		if compareBytes(g.key, key) == 0 {
			a.current = g
			return true
		}
	}
	g := &aggGroup{key: append([]byte(nil), key...), cells: make([]value.Value, a.nCols)}
	a.buckets[h] = append(a.buckets[h], g)
	a.order = append(a.order, g)
	a.current = g
	return false
}

func (a *Aggregator) Set(col int, v value.Value) {
	if a.current == nil {
		a.Focus(nil)
	}
	a.current.cells[col] = v
}

func (a *Aggregator) Get(col int) value.Value {
	if a.current == nil {
		return value.NewNull()
	}
	return a.current.cells[col]
}

// Next advances the group iterator, reporting whether a group remains and
// whether this is its first visit. No aggregate here has a finalizer, so
// the AggNext opcode uses only ok.
func (a *Aggregator) Next() (ok bool, firstVisit bool) {
	if a.iterPos >= len(a.order) {
		return false, false
	}
	a.current = a.order[a.iterPos]
	a.iterPos++
	first := !a.current.visited
	a.current.visited = true
	return true, first
}

// SortedGroups returns the groups ordered by key bytes instead of
// insertion order. No opcode or other package calls it.
func (a *Aggregator) SortedGroups() []*aggGroup {
	out := append([]*aggGroup(nil), a.order...)
	sort.Slice(out, func(i, j int) bool { return compareBytes(out[i].key, out[j].key) < 0 })
	return out
}
