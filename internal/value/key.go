package value

import (
	"encoding/binary"
	"math"
)

// Index key encoding (spec §6.4): a concatenation of per-field tagged,
// NUL-terminated segments —
//
//	'a'\0                 null
//	'b' <sortable> \0      numeric (int or real)
//	'c' <text> \0          text
//
// followed by a 4-byte big-endian row-id suffix. Byte-compare of two such
// keys matches SQL ORDER BY order: NULL < numeric < text, numbers by value,
// text lexicographically (spec §8 key-order law).
const (
	keyNull = 'a'
	keyNum  = 'b'
	keyText = 'c'
)

// MakeIdxKey builds a sortable index key over vals, appending the row-id
// suffix used to disambiguate duplicate keys in a non-unique index.
func MakeIdxKey(vals []Value, rowid int64) []byte {
	var out []byte
	for _, v := range vals {
		out = append(out, encodeKeyField(v)...)
	}
	var suffix [4]byte
	binary.BigEndian.PutUint32(suffix[:], uint32(rowid))
	return append(out, suffix[:]...)
}

func encodeKeyField(v Value) []byte {
	switch {
	case v.IsNull():
		return []byte{keyNull, 0}
	case v.IsInt(), v.IsReal():
		b := make([]byte, 10)
		b[0] = keyNum
		binary.BigEndian.PutUint64(b[1:9], encodeSortableReal(v.Real()))
		b[9] = 0
		return b
	default:
		s := v.Text()
		b := make([]byte, 0, len(s)+2)
		b = append(b, keyText)
		b = append(b, s...)
		b = append(b, 0)
		return b
	}
}

// encodeSortableReal maps a float64 to a uint64 whose unsigned numeric
// order matches the float's numeric order: flip the sign bit for
// non-negative numbers, invert every bit for negative ones.
func encodeSortableReal(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func decodeSortableReal(bits uint64) float64 {
	if bits&(1<<63) != 0 {
		return math.Float64frombits(bits &^ (1 << 63))
	}
	return math.Float64frombits(^bits)
}

// IncrKey returns the smallest byte string greater than every string that
// has k as a prefix, simulating a strict-greater lookup bound (spec §8
// IncrKey law): trailing 0xFF bytes are dropped and the last remaining
// byte is incremented. An all-0xFF key has no such bound; it gets one
// 0x00 byte appended, the smallest string greater than k itself.
func IncrKey(k []byte) []byte {
	out := make([]byte, len(k))
	copy(out, k)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return append(out, 0x00)
}

// IntToKey and KeyToInt implement the fixed bijection spec §6.4 names
// between a signed 64-bit row-id and its 8-byte big-endian table-row key.
// (MakeIdxKey's row-id suffix is a separate, 4-byte encoding.)
func IntToKey(n int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	return b[:]
}

func KeyToInt(b []byte) int64 {
	var full [8]byte
	copy(full[8-len(b):], b)
	return int64(binary.BigEndian.Uint64(full[:]))
}

// RowidFromIdxKey extracts the trailing 4-byte row-id suffix MakeIdxKey
// appended.
func RowidFromIdxKey(key []byte) int64 {
	if len(key) < 4 {
		return 0
	}
	return int64(binary.BigEndian.Uint32(key[len(key)-4:]))
}
