package plan

import (
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/vdbe"
)

// emitInList compiles `left IN (item, item, ...)` as a fold of equality
// tests (spec §4.2/§4.3's constant-list form). Lists from the grammar are
// always short enough that re-evaluating left per item, rather than
// hoisting it into a scratch register first, is not worth the extra
// codegen machinery.
func (c *Compiler) emitInList(e *expr.Expr, ctx exprCtx) error {
	c.Prog.Emit(vdbe.Integer, 0, 0, "")
	for _, item := range e.List {
		if err := c.emitExpr(e.Left, ctx); err != nil {
			return err
		}
		if err := c.emitExpr(item, ctx); err != nil {
			return err
		}
		c.Prog.Emit(comparisonOpcode(&expr.Expr{Op: expr.OpEq}, e.Left, item), 0, 0, "store")
		c.Prog.Emit(vdbe.Or, 0, 0, "")
	}
	return nil
}

// emitInSelectProbe compiles `left IN (SELECT ...)` against the Set
// materializeSubqueries already populated under e.ITable.
func (c *Compiler) emitInSelectProbe(e *expr.Expr, ctx exprCtx) error {
	if err := c.emitExpr(e.Left, ctx); err != nil {
		return err
	}
	c.Prog.Emit(vdbe.SortMakeKey, 1, 0, "")
	found := c.Prog.Emit(vdbe.SetFound, e.ITable, 0, "")
	c.Prog.Emit(vdbe.Integer, 0, 0, "")
	done := c.Prog.Emit(vdbe.Goto, 0, 0, "")
	c.Prog.PatchP2(found, c.Prog.Here())
	c.Prog.Emit(vdbe.Integer, 1, 0, "")
	c.Prog.PatchP2(done, c.Prog.Here())
	return nil
}

// emitExists compiles `EXISTS (SELECT ...)` by running the subquery's
// FROM/WHERE scan and bailing out at the first match, rather than
// counting every matching row — the flag lives in a Mem cell since the
// nested-loop codegen's early-exit Goto has to cross however many loop
// levels the subquery's FROM clause has.
func (c *Compiler) emitExists(e *expr.Expr, ctx exprCtx) error {
	sub := e.Select
	subScope, err := c.scopeOf(sub)
	if err != nil {
		return err
	}
	flag := c.allocMem()
	c.Prog.Emit(vdbe.Integer, 0, 0, "")
	c.Prog.Emit(vdbe.MemStore, flag, 0, "")

	var doneJumps []int
	subCtx := exprCtx{scope: subScope, aggBase: -1}
	err = c.compileFrom(subScope.Sources, 0, sub.Where, subCtx, func() error {
		c.Prog.Emit(vdbe.Integer, 1, 0, "")
		c.Prog.Emit(vdbe.MemStore, flag, 0, "")
		doneJumps = append(doneJumps, c.Prog.Emit(vdbe.Goto, 0, 0, ""))
		return nil
	})
	if err != nil {
		return err
	}
	for _, j := range doneJumps {
		c.Prog.PatchP2(j, c.Prog.Here())
	}
	c.Prog.Emit(vdbe.MemLoad, flag, 0, "")
	return nil
}

// materializeSubqueries walks e for OpInSelect/OpSelectExpr nodes and
// emits the prologue code that populates their Set/Mem slot exactly once,
// before the statement's main scan begins (spec §4.4 step 6: "the
// right-hand side of IN/scalar subqueries materializes once per
// statement execution, not once per probe"). EXISTS is deliberately
// excluded: its short-circuiting scan (emitExists) runs inline at each
// use instead of being hoisted, since unlike IN/scalar-subquery it is
// never profitable to reuse across multiple probes.
func (c *Compiler) materializeSubqueries(e *expr.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Op {
	case expr.OpInSelect:
		if err := c.materializeInSelect(e); err != nil {
			return err
		}
	case expr.OpSelectExpr:
		if err := c.materializeScalarSubquery(e); err != nil {
			return err
		}
	}
	if err := c.materializeSubqueries(e.Left); err != nil {
		return err
	}
	if err := c.materializeSubqueries(e.Right); err != nil {
		return err
	}
	for _, item := range e.List {
		if err := c.materializeSubqueries(item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) materializeInSelect(e *expr.Expr) error {
	sub := e.Select
	scope, err := c.scopeOf(sub)
	if err != nil {
		return err
	}
	cols := expandResultColumns(sub, scope)
	ctx := exprCtx{scope: scope, aggBase: -1}
	return c.compileFrom(scope.Sources, 0, sub.Where, ctx, func() error {
		if len(cols) > 0 {
			if err := c.emitExpr(cols[0], ctx); err != nil {
				return err
			}
		} else {
			c.Prog.Emit(vdbe.Null, 0, 0, "")
		}
		c.Prog.Emit(vdbe.SortMakeKey, 1, 0, "")
		c.Prog.Emit(vdbe.SetInsert, e.ITable, 0, "")
		return nil
	})
}

func (c *Compiler) materializeScalarSubquery(e *expr.Expr) error {
	sub := e.Select
	scope, err := c.scopeOf(sub)
	if err != nil {
		return err
	}
	cols := expandResultColumns(sub, scope)
	ctx := exprCtx{scope: scope, aggBase: -1}
	c.Prog.Emit(vdbe.Null, 0, 0, "")
	c.Prog.Emit(vdbe.MemStore, e.IColumn, 0, "")
	return c.compileFrom(scope.Sources, 0, sub.Where, ctx, func() error {
		if len(cols) > 0 {
			if err := c.emitExpr(cols[0], ctx); err != nil {
				return err
			}
		} else {
			c.Prog.Emit(vdbe.Null, 0, 0, "")
		}
		c.Prog.Emit(vdbe.MemStore, e.IColumn, 0, "")
		return nil
	})
}
