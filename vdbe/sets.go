package vdbe

import "github.com/cespare/xxhash/v2"

// SetTable implements SetInsert/SetFound/SetNotFound/SetFirst/SetNext: a
// numbered collection of temporary membership sets used to materialize an
// IN (subquery)'s right-hand side once, then probe it repeatedly, and to
// combine the arms of UNION/INTERSECT/EXCEPT (spec §4.5 "Sets"). Each set is its own hash table keyed by
// the sortable key encoding of the probed row, mirroring Aggregator's
// xxhash-then-equality-chain lookup so a 64-bit collision never produces a
// false membership hit.
type SetTable struct {
	sets map[int]*memberSet
}

type memberSet struct {
	buckets map[uint64][][]byte
	order   [][]byte
	iterPos int
}

func (t *SetTable) set(n int) *memberSet {
	if t.sets == nil {
		t.sets = make(map[int]*memberSet)
	}
	s, ok := t.sets[n]
	if !ok {
		s = &memberSet{buckets: make(map[uint64][][]byte)}
		t.sets[n] = s
	}
	return s
}

// Insert adds key to set n.
func (t *SetTable) Insert(n int, key []byte) {
	s := t.set(n)
	h := xxhash.Sum64(key)
	for _, k := range s.buckets[h] {
		if compareBytes(k, key) == 0 {
			return
		}
	}
	s.buckets[h] = append(s.buckets[h], key)
	s.order = append(s.order, key)
}

// Found reports whether key is a member of set n.
func (t *SetTable) Found(n int, key []byte) bool {
	s := t.set(n)
	h := xxhash.Sum64(key)
	for _, k := range s.buckets[h] {
		if compareBytes(k, key) == 0 {
			return true
		}
	}
	return false
}

// First/Next walk a set's members in insertion order, for the compound
// SELECT codegen that emits a set's members (rather than only testing
// membership against it).
func (t *SetTable) First(n int) (key []byte, ok bool) {
	s := t.set(n)
	s.iterPos = 0
	return t.Next(n)
}

func (t *SetTable) Next(n int) (key []byte, ok bool) {
	s := t.set(n)
	if s.iterPos >= len(s.order) {
		return nil, false
	}
	key = s.order[s.iterPos]
	s.iterPos++
	return key, true
}

func (t *SetTable) Reset(n int) { delete(t.sets, n) }
