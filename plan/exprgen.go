package plan

import (
	"fmt"
	"strconv"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/vdbe"
)

// exprCtx carries the per-statement state emitExpr needs beyond the
// expression tree itself: the scope to resolve column cursors/widths
// against, and — once a GROUP BY/aggregate query has finished scanning
// and moved to emitting one row per group — the Aggregator cell base an
// OpAggFunction node's IAgg indexes from (spec §4.4 step 7's slot
// layout: group-key columns occupy cells [0,nGroupBy), aggregates start
// at nGroupBy+IAgg). aggBase < 0 means "not in that phase"; emitExpr
// must never see an OpAggFunction node outside it (resolve.ResolveSelect
// already rejects an aggregate in WHERE, the only way that could happen).
type exprCtx struct {
	scope   *resolve.Scope
	aggBase int

	// groupCells maps a (cursor,column) pair that is one of the query's
	// GROUP BY terms to its passthrough Aggregator cell index, consulted
	// only while aggBase >= 0: once the FROM scan ends, the cursors a
	// plain output column would normally read from are no longer
	// positioned on the group's row, so those columns must come from the
	// cell the scan phase copied them into instead (spec §4.4 step 7).
	groupCells map[[2]int]int
}

// EmitExpr compiles e against scope so that, once the emitted instructions
// run, its value is on top of the stack. Exported so package ddl's INSERT/
// UPDATE/DELETE codegen can reuse the same expression compiler rather than
// re-walking expr.Expr on its own — ddl's WHERE/assignment expressions are
// never inside an aggregate output phase, hence the fixed aggBase: -1.
func EmitExpr(c *Compiler, scope *resolve.Scope, e *expr.Expr) error {
	return c.emitExpr(e, exprCtx{scope: scope, aggBase: -1})
}

// emitExpr compiles e so that, once these instructions run, its value is
// on top of the stack.
func (c *Compiler) emitExpr(e *expr.Expr, ctx exprCtx) error {
	if e == nil {
		c.Prog.Emit(vdbe.Null, 0, 0, "")
		return nil
	}
	switch e.Op {
	case expr.OpNull:
		c.Prog.Emit(vdbe.Null, 0, 0, "")
	case expr.OpInt:
		n, _ := strconv.ParseInt(e.Token, 10, 64)
		c.Prog.Emit(vdbe.Integer, int(n), 0, "")
	case expr.OpReal:
		f, _ := strconv.ParseFloat(e.Token, 64)
		v := value.NewReal(f)
		c.Prog.EmitValue(vdbe.Real, &v)
	case expr.OpString:
		v := value.NewStaticText(e.Token)
		c.Prog.EmitValue(vdbe.String, &v)
	case expr.OpVariable:
		idx := e.VarIndex - 1
		c.Prog.Emit(vdbe.Variable, idx, 0, "")
		if e.VarIndex > c.Prog.NumVars {
			c.Prog.NumVars = e.VarIndex
		}
	case expr.OpAs:
		return c.emitExpr(e.Left, ctx)
	case expr.OpColumn:
		if ctx.aggBase >= 0 && ctx.groupCells != nil {
			if cell, ok := ctx.groupCells[[2]int{e.ITable, e.IColumn}]; ok {
				c.Prog.Emit(vdbe.AggGet, cell, 0, "")
				break
			}
		}
		if e.IColumn < 0 {
			c.Prog.Emit(vdbe.Recno, e.ITable, 0, "")
		} else {
			c.Prog.Emit(vdbe.Column, e.ITable, e.IColumn, strconv.Itoa(c.columnCount(ctx.scope, e.ITable)))
		}
	case expr.OpAnd, expr.OpOr:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		if err := c.emitExpr(e.Right, ctx); err != nil {
			return err
		}
		op := vdbe.And
		if e.Op == expr.OpOr {
			op = vdbe.Or
		}
		c.Prog.Emit(op, 0, 0, "")
	case expr.OpNot:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		c.Prog.Emit(vdbe.Not, 0, 0, "")
	case expr.OpEq, expr.OpNe, expr.OpLt, expr.OpLe, expr.OpGt, expr.OpGe:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		if err := c.emitExpr(e.Right, ctx); err != nil {
			return err
		}
		c.Prog.Emit(comparisonOpcode(e, e.Left, e.Right), 0, 0, "store")
	case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv, expr.OpRem:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		if err := c.emitExpr(e.Right, ctx); err != nil {
			return err
		}
		c.Prog.Emit(arithOpcode(e.Op), 0, 0, "")
	case expr.OpConcat:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		if err := c.emitExpr(e.Right, ctx); err != nil {
			return err
		}
		c.Prog.Emit(vdbe.Concat, 0, 0, "")
	case expr.OpNeg:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		c.Prog.Emit(vdbe.Negative, 0, 0, "")
	case expr.OpBitNot:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		c.Prog.Emit(vdbe.BitNot, 0, 0, "")
	case expr.OpIsNull, expr.OpNotNull:
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		op := vdbe.IsNull
		if e.Op == expr.OpNotNull {
			op = vdbe.NotNull
		}
		trueLabel := c.Prog.Emit(op, 0, 0, "")
		c.Prog.Emit(vdbe.Integer, 0, 0, "")
		doneJump := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(trueLabel, c.Prog.Here())
		c.Prog.Emit(vdbe.Integer, 1, 0, "")
		c.Prog.PatchP2(doneJump, c.Prog.Here())
	case expr.OpFunction:
		for _, a := range e.List {
			if err := c.emitExpr(a, ctx); err != nil {
				return err
			}
		}
		c.Prog.Emit(vdbe.Func, len(e.List), 0, lowerToken(e.Token))
	case expr.OpAggFunction:
		if ctx.aggBase < 0 {
			return fmt.Errorf("plan: aggregate function %s referenced outside an aggregate output phase", e.Token)
		}
		c.Prog.Emit(vdbe.AggGet, ctx.aggBase+e.IAgg, 0, "")
	case expr.OpCase:
		return c.emitCase(e, ctx)
	case expr.OpInList:
		return c.emitInList(e, ctx)
	case expr.OpInSelect:
		return c.emitInSelectProbe(e, ctx)
	case expr.OpExists:
		return c.emitExists(e, ctx)
	case expr.OpSelectExpr:
		c.Prog.Emit(vdbe.MemLoad, e.IColumn, 0, "")
	default:
		return fmt.Errorf("plan: unhandled expression op %v", e.Op)
	}
	return nil
}

func lowerToken(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if 'A' <= ch && ch <= 'Z' {
			b[i] = ch + ('a' - 'A')
		}
	}
	return string(b)
}

func comparisonOpcode(e, left, right *expr.Expr) vdbe.Op {
	var numeric vdbe.Op
	switch e.Op {
	case expr.OpEq:
		numeric = vdbe.Eq
	case expr.OpNe:
		numeric = vdbe.Ne
	case expr.OpLt:
		numeric = vdbe.Lt
	case expr.OpLe:
		numeric = vdbe.Le
	case expr.OpGt:
		numeric = vdbe.Gt
	default:
		numeric = vdbe.Ge
	}
	if left.DataType == expr.Text || right.DataType == expr.Text {
		return vdbe.TextOpcode(numeric)
	}
	return numeric
}

func arithOpcode(op expr.Op) vdbe.Op {
	switch op {
	case expr.OpAdd:
		return vdbe.Add
	case expr.OpSub:
		return vdbe.Subtract
	case expr.OpMul:
		return vdbe.Multiply
	case expr.OpDiv:
		return vdbe.Divide
	default:
		return vdbe.Remainder
	}
}

// emitCase compiles WHEN/THEN pairs (e.List holds [cond,result]* plus a
// trailing else-result — the shape parser.parseCase builds). A branch's
// result runs only when its condition is definitely true; NULL, like
// false, falls through to the next WHEN (spec §4.3's three-valued CASE
// semantics), so the test uses If rather than IfNot — IfNot alone would
// wrongly treat a NULL condition as matching.
func (c *Compiler) emitCase(e *expr.Expr, ctx exprCtx) error {
	n := (len(e.List) - 1) / 2
	var doneJumps []int
	for i := 0; i < n; i++ {
		cond, result := e.List[2*i], e.List[2*i+1]
		if err := c.emitExpr(cond, ctx); err != nil {
			return err
		}
		runLabel := c.Prog.Emit(vdbe.If, 0, 0, "")
		skipJump := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(runLabel, c.Prog.Here())
		if err := c.emitExpr(result, ctx); err != nil {
			return err
		}
		doneJumps = append(doneJumps, c.Prog.Emit(vdbe.Goto, 0, 0, ""))
		c.Prog.PatchP2(skipJump, c.Prog.Here())
	}
	if err := c.emitExpr(e.List[len(e.List)-1], ctx); err != nil {
		return err
	}
	for _, j := range doneJumps {
		c.Prog.PatchP2(j, c.Prog.Here())
	}
	return nil
}

// columnCount returns the column width emitExpr's Column opcode needs to
// decode a cursor's records (spec §6.3's self-describing record layout
// requires the reader to know nCols up front).
func (c *Compiler) columnCount(scope *resolve.Scope, cursorIdx int) int {
	for _, src := range scope.Sources {
		if src.Src.CursorIdx == cursorIdx && src.Table != nil {
			return len(src.Table.Columns)
		}
	}
	if scope.Outer != nil {
		return c.columnCount(scope.Outer, cursorIdx)
	}
	return 0
}
