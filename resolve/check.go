package resolve

import (
	"fmt"
	"strings"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/schema"
)

// FuncInfo describes one registered scalar or aggregate function for
// arity checking and aggregate tagging (spec §4.3 step "function arity /
// aggregate tagging").
type FuncInfo struct {
	Name     string
	MinArgs  int
	MaxArgs  int // -1 for unbounded
	IsAgg    bool
	Returns  expr.DataType
}

// FuncTable looks up a function by name, case-insensitively.
type FuncTable map[string]*FuncInfo

func (ft FuncTable) lookup(name string) *FuncInfo {
	return ft[strings.ToLower(name)]
}

// CheckTypes performs the spec §4.3 type-inference pass over an
// already-ID-resolved expression tree: it fills in DataType bottom-up,
// tags OpFunction nodes whose name is a registered aggregate as
// OpAggFunction (recording the match's IAgg slot via aggIndex), and
// rejects arity mismatches.
//
// sources supplies the column SortClass for resolved OpColumn nodes;
// funcs is the function registry; allocAgg assigns a fresh aggregate
// slot index and is invoked for every recognized aggregate call (the
// caller decides IsAgg for the enclosing Select afterwards, from whether
// any slot was allocated, not here).
func CheckTypes(sources []ResolvedSrc, funcs FuncTable, allocAgg func() int, e *expr.Expr) error {
	if e == nil {
		return nil
	}
	if err := CheckTypes(sources, funcs, allocAgg, e.Left); err != nil {
		return err
	}
	if err := CheckTypes(sources, funcs, allocAgg, e.Right); err != nil {
		return err
	}
	for _, c := range e.List {
		if err := CheckTypes(sources, funcs, allocAgg, c); err != nil {
			return err
		}
	}

	switch e.Op {
	case expr.OpInt, expr.OpReal:
		e.DataType = expr.Numeric
	case expr.OpString:
		e.DataType = expr.Text
	case expr.OpVariable, expr.OpNull:
		e.DataType = expr.Numeric // untyped NULL/variable defaults to numeric affinity until bound
	case expr.OpColumn:
		e.DataType = columnDataType(sources, e.ITable, e.IColumn)
	case expr.OpAs:
		e.DataType = e.Left.DataType
	case expr.OpAnd, expr.OpOr, expr.OpNot, expr.OpIsNull, expr.OpNotNull:
		e.DataType = expr.Numeric
	case expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		e.DataType = expr.Numeric // the comparison's *result* is always boolean/numeric
	case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv, expr.OpRem, expr.OpNeg, expr.OpBitNot:
		e.DataType = expr.Numeric
	case expr.OpConcat:
		e.DataType = expr.Text
	case expr.OpFunction:
		fi := funcs.lookup(e.Token)
		if fi == nil {
			return fmt.Errorf("no such function: %s", e.Token)
		}
		n := len(e.List)
		if n < fi.MinArgs || (fi.MaxArgs >= 0 && n > fi.MaxArgs) {
			return &resolveError{kind: ErrBadArgCount, ident: e.Token}
		}
		e.DataType = fi.Returns
		if fi.IsAgg {
			e.Op = expr.OpAggFunction
			if allocAgg != nil {
				e.IAgg = allocAgg()
			}
		}
	case expr.OpAggFunction:
		// already tagged (e.g. re-check after a Clone); nothing to do.
	case expr.OpInList, expr.OpInSelect, expr.OpExists:
		e.DataType = expr.Numeric
	case expr.OpSelectExpr:
		e.DataType = expr.Numeric // conservative: scalar subquery type isn't known without planning its result column
	case expr.OpCase:
		if len(e.List) > 0 {
			e.DataType = e.List[len(e.List)-1].DataType
		}
	}
	return nil
}

func columnDataType(sources []ResolvedSrc, cursor, col int) expr.DataType {
	for _, src := range sources {
		if src.Src.CursorIdx == cursor && src.Table != nil {
			if col < 0 {
				return expr.Numeric // rowid is always numeric
			}
			if col < len(src.Table.Columns) && src.Table.Columns[col].Sort == schema.SortText {
				return expr.Text
			}
			return expr.Numeric
		}
	}
	return expr.Numeric
}

// CheckAggregateUsage applies one part of spec §4.3's "misuse of aggregate
// function" rule: it rejects an OpAggFunction nested inside another
// aggregate's argument list. It does not check which clause e came from
// or bare column references, and no code in this repository calls it
// (ResolveSelect rejects an aggregate in WHERE on its own).
func CheckAggregateUsage(e *expr.Expr, insideAgg bool) error {
	if e == nil {
		return nil
	}
	if e.Op == expr.OpAggFunction {
		if insideAgg {
			return &resolveError{kind: ErrMisusedAgg, ident: e.Token}
		}
		insideAgg = true
	}
	if err := CheckAggregateUsage(e.Left, insideAgg); err != nil {
		return err
	}
	if err := CheckAggregateUsage(e.Right, insideAgg); err != nil {
		return err
	}
	for _, c := range e.List {
		if err := CheckAggregateUsage(c, insideAgg); err != nil {
			return err
		}
	}
	return nil
}
