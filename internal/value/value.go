// Package value implements the polymorphic stack/row cell used by the
// parser, the planner and the VDBE: a tagged union of null, integer, real
// and string with an explicit string-ownership discipline.
package value

import (
	"strconv"
	"strings"
)

// Flag is a small bitset tagging a Value's type and, for strings, its
// storage discipline.
type Flag uint16

const (
	Null Flag = 1 << iota
	Int
	Real
	Str

	// Exactly one of the following is set whenever Str is set.
	Static    // points into a read-only literal; never released
	Dynamic   // heap-owned by this cell; released on Release()
	Ephemeral // borrowed from another cell or cursor; may be invalidated
	Inline    // stored in the small embedded buffer, no allocation
)

const inlineCap = 24

// strFlags is the mask of the four mutually-exclusive string subtype bits.
const strFlags = Static | Dynamic | Ephemeral | Inline

// Value is a stack cell / row cell. The zero Value is Null.
type Value struct {
	flags  Flag
	i      int64
	r      float64
	s      string
	inline [inlineCap]byte
	inLen  int
}

// NewNull returns the null value.
func NewNull() Value { return Value{flags: Null} }

// NewInt returns an integer value.
func NewInt(i int64) Value { return Value{flags: Int, i: i} }

// NewReal returns a real value.
func NewReal(r float64) Value { return Value{flags: Real, r: r} }

// NewStaticText wraps a string that outlives the Value without copying it
// (e.g. a program literal baked into a vdbe.Op).
func NewStaticText(s string) Value { return Value{flags: Str | Static, s: s} }

// NewDynamicText copies s into a cell that owns it: strings of up to
// inlineCap bytes are stored Inline, longer ones as a Dynamic heap copy.
func NewDynamicText(s string) Value {
	if len(s) <= inlineCap {
		v := Value{flags: Str | Inline, inLen: len(s)}
		copy(v.inline[:], s)
		return v
	}
	return Value{flags: Str | Dynamic, s: strings.Clone(s)}
}

// NewEphemeralText wraps a string owned by someone else (a cursor's row
// buffer, typically) that must not be retained past the next mutation.
func NewEphemeralText(s string) Value { return Value{flags: Str | Ephemeral, s: s} }

// Release resets the cell to Null, dropping its payload whatever the
// ownership flag. Under Go's GC this is purely bookkeeping for the §8 ownership invariant
// ("releasing a cell frees only when Dynamic") — there is no explicit free.
func (v *Value) Release() {
	if v.flags&Dynamic != 0 {
		v.s = ""
	}
	*v = Value{flags: Null}
}

// Type predicates.
func (v Value) IsNull() bool { return v.flags&Null != 0 }
func (v Value) IsInt() bool  { return v.flags&Int != 0 }
func (v Value) IsReal() bool { return v.flags&Real != 0 }
func (v Value) IsStr() bool  { return v.flags&Str != 0 }

// StrSubtype reports which of the four mutually-exclusive string-ownership
// flags is set; it is zero (and meaningless) unless IsStr().
func (v Value) StrSubtype() Flag { return v.flags & strFlags }

func (v Value) rawText() string {
	if v.flags&Inline != 0 {
		return string(v.inline[:v.inLen])
	}
	return v.s
}

// Text returns the value's textual form, converting numerics with a
// printf-like rendering (the cached textual form described in spec §3.1).
func (v Value) Text() string {
	switch {
	case v.flags&Null != 0:
		return ""
	case v.flags&Str != 0:
		return v.rawText()
	case v.flags&Int != 0:
		return strconv.FormatInt(v.i, 10)
	case v.flags&Real != 0:
		return strconv.FormatFloat(v.r, 'g', -1, 64)
	}
	return ""
}

// Integer applies atoi-like coercion: a leading numeric prefix is parsed;
// non-numeric strings and Null yield 0.
func (v Value) Integer() int64 {
	switch {
	case v.flags&Int != 0:
		return v.i
	case v.flags&Real != 0:
		return int64(v.r)
	case v.flags&Str != 0:
		return atoiPrefix(v.rawText())
	}
	return 0
}

// Real applies atof-like coercion: a leading numeric prefix is parsed;
// non-numeric strings and Null yield 0.0.
func (v Value) Real() float64 {
	switch {
	case v.flags&Real != 0:
		return v.r
	case v.flags&Int != 0:
		return float64(v.i)
	case v.flags&Str != 0:
		return atofPrefix(v.rawText())
	}
	return 0
}

// IsTrue implements three-valued boolean coercion for non-comparison
// opcodes (e.g. the operand of Not): Null yields (false, isNull=true);
// everything else yields isNull=false and follows its numeric value being
// non-zero.
func (v Value) IsTrue() (result bool, isNull bool) {
	if v.IsNull() {
		return false, true
	}
	if v.IsReal() {
		return v.Real() != 0, false
	}
	return v.Integer() != 0, false
}

// atoiPrefix parses the longest valid leading integer in s, 0 if none.
func atoiPrefix(s string) int64 {
	s = strings.TrimSpace(s)
	end := numericPrefixLen(s, false)
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// atofPrefix parses the longest valid leading float in s, 0.0 if none.
func atofPrefix(s string) float64 {
	s = strings.TrimSpace(s)
	end := numericPrefixLen(s, true)
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

func numericPrefixLen(s string, allowFloat bool) int {
	i := 0
	n := len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	digits := i
	if allowFloat {
		if i < n && s[i] == '.' {
			i++
			for i < n && s[i] >= '0' && s[i] <= '9' {
				i++
			}
		}
		if i > start && i < n && (s[i] == 'e' || s[i] == 'E') {
			j := i + 1
			if j < n && (s[j] == '+' || s[j] == '-') {
				j++
			}
			k := j
			for k < n && s[k] >= '0' && s[k] <= '9' {
				k++
			}
			if k > j {
				i = k
			}
		}
	}
	if digits == start && (i == start || s[start] != '.') {
		return 0
	}
	return i
}

// String renders the value for debugging/disassembly output.
func (v Value) String() string {
	if v.IsNull() {
		return "NULL"
	}
	if v.IsStr() {
		return strconv.Quote(v.rawText())
	}
	return v.Text()
}

// Clone produces a cell that owns its own storage: numerics copy trivially,
// strings are force-converted to Dynamic/Inline so the clone survives the
// source cell's release.
func (v Value) Clone() Value {
	if v.flags&Str == 0 {
		return v
	}
	return NewDynamicText(v.rawText())
}

// Compare implements SQL three-way comparison: with numeric set both sides
// are coerced to real and compared by value, otherwise both are compared
// as text. It does not order across type classes (that ordering lives in
// the index key encoding). ok is false when either side is Null
// (comparisons involving Null are tri-valued at the opcode level, handled
// by the jump-if-null flag in vdbe).
func Compare(a, b Value, numeric bool) (cmp int, ok bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	if numeric {
		x, y := a.Real(), b.Real()
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	}
	return strings.Compare(a.Text(), b.Text()), true
}

// DataType classifies a value the way the planner's type inference does
// (spec §4.3): numeric values are Numeric, everything else is Text.
type DataType int

const (
	Numeric DataType = iota
	Text
)

func (v Value) DataType() DataType {
	if v.flags&(Int|Real) != 0 {
		return Numeric
	}
	return Text
}
