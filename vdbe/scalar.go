package vdbe

import "strings"

import "github.com/dbsql/dbsql/internal/value"

// scalarFunc implements the built-in scalar functions of spec §4.9, the
// minimal seed set every conformance scenario needs (typeof, length, abs,
// coalesce, like, glob, upper, lower). Codegen (package plan/ddl) emits a
// Func opcode naming one of these in P3; unrecognized names fall through
// to NULL rather than erroring, since arity/registration is already
// checked at resolve time (resolve.FuncTable).
func scalarFunc(name string, args []value.Value) value.Value {
	switch name {
	case "typeof":
		if len(args) != 1 {
			return value.NewNull()
		}
		switch {
		case args[0].IsNull():
			return value.NewStaticText("null")
		case args[0].IsInt():
			return value.NewStaticText("integer")
		case args[0].IsReal():
			return value.NewStaticText("real")
		default:
			return value.NewStaticText("text")
		}
	case "length":
		if len(args) != 1 || args[0].IsNull() {
			return value.NewNull()
		}
		return value.NewInt(int64(len(args[0].Text())))
	case "abs":
		if len(args) != 1 || args[0].IsNull() {
			return value.NewNull()
		}
		if args[0].IsReal() {
			r := args[0].Real()
			if r < 0 {
				r = -r
			}
			return value.NewReal(r)
		}
		n := args[0].Integer()
		if n < 0 {
			n = -n
		}
		return value.NewInt(n)
	case "coalesce":
		for _, a := range args {
			if !a.IsNull() {
				return a
			}
		}
		return value.NewNull()
	case "like":
		if len(args) < 2 || args[0].IsNull() || args[1].IsNull() {
			return value.NewNull()
		}
		if globLike(args[1].Text(), args[0].Text(), true) {
			return value.NewInt(1)
		}
		return value.NewInt(0)
	case "glob":
		if len(args) < 2 || args[0].IsNull() || args[1].IsNull() {
			return value.NewNull()
		}
		if globLike(args[0].Text(), args[1].Text(), false) {
			return value.NewInt(1)
		}
		return value.NewInt(0)
	case "upper":
		if len(args) != 1 || args[0].IsNull() {
			return value.NewNull()
		}
		return value.NewDynamicText(strings.ToUpper(args[0].Text()))
	case "lower":
		if len(args) != 1 || args[0].IsNull() {
			return value.NewNull()
		}
		return value.NewDynamicText(strings.ToLower(args[0].Text()))
	}
	return value.NewNull()
}

// globLike matches text against a pattern using SQL LIKE wildcards (%, _)
// when likeMode is true, or glob wildcards (*, ?) otherwise.
// Matching runs as a simple backtracking scan, adequate at the sizes a
// conformance test exercises.
func globLike(pattern, text string, likeMode bool) bool {
	p := []rune(pattern)
	s := []rune(text)
	return globMatch(p, s, 0, 0, likeMode)
}

func globMatch(p, s []rune, pi, si int, likeMode bool) bool {
	multi, single := byte('%'), byte('_')
	if !likeMode {
		multi, single = '*', '?'
	}
	for pi < len(p) {
		switch {
		case rune(multi) == p[pi]:
			for pi < len(p) && rune(multi) == p[pi] {
				pi++
			}
			if pi == len(p) {
				return true
			}
			for k := si; k <= len(s); k++ {
				if globMatch(p, s, pi, k, likeMode) {
					return true
				}
			}
			return false
		case rune(single) == p[pi]:
			if si >= len(s) {
				return false
			}
			pi++
			si++
		default:
			if si >= len(s) || foldLower(s[si]) != foldLower(p[pi]) {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(s)
}

func foldLower(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
