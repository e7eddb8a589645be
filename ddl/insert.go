package ddl

import (
	"fmt"

	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/parser"
	"github.com/dbsql/dbsql/plan"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/vdbe"
)

// CompileInsert emits INSERT ... VALUES (spec §4.2). A rowid conflict is
// resolved per stmt.OnConflict; a conflict on a secondary UNIQUE index is
// an accepted simplification left unenforced — see DESIGN.md's "Accepted
// simplifications" for ddl. INSERT ... SELECT is likewise out of scope for
// this pass (see compileInsertSelect).
func (c *Compiler) CompileInsert(stmt *parser.InsertStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	tbl, err := c.table(db, stmt.Table)
	if err != nil {
		return nil, err
	}
	if tbl.IsView() {
		return nil, fmt.Errorf("ddl: cannot insert into view %s", stmt.Table)
	}
	if err := c.checkAuth(authorizer.Insert, stmt.Table, "", db.Name); err != nil {
		return nil, err
	}
	if stmt.Select != nil {
		return nil, c.compileInsertSelect(stmt)
	}

	baseCur := c.allocCursor()
	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.OpenWrite, baseCur, int(tbl.RootPage), tbl.Name)
	idxCurs := c.openIndexCursors(tbl)

	for _, row := range stmt.Rows {
		if err := c.emitInsertRow(stmt, tbl, baseCur, idxCurs, row); err != nil {
			return nil, err
		}
	}

	for _, ic := range idxCurs {
		c.Prog.Emit(vdbe.Close, ic, 0, "")
	}
	c.Prog.Emit(vdbe.Close, baseCur, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

// openIndexCursors opens a write cursor per index on tbl, returned in
// tbl.Indices order so later code can pair each with its schema.Index by
// position.
func (c *Compiler) openIndexCursors(tbl *schema.Table) []int {
	curs := make([]int, len(tbl.Indices))
	for i, idx := range tbl.Indices {
		cur := c.allocCursor()
		c.Prog.Emit(vdbe.OpenWrite, cur, int(idx.RootPage), idx.Name)
		curs[i] = cur
	}
	return curs
}

// columnValues maps an INSERT's (possibly partial, possibly reordered)
// column list onto tbl's full column order, missing columns filled from
// Column.Default (spec §4.2).
func columnValues(stmt *parser.InsertStmt, tbl *schema.Table, row []*expr.Expr) []*expr.Expr {
	out := make([]*expr.Expr, len(tbl.Columns))
	if len(stmt.Columns) == 0 {
		copy(out, row)
		for i := len(row); i < len(out); i++ {
			out[i] = tbl.Columns[i].Default
		}
		return out
	}
	for i := range out {
		out[i] = tbl.Columns[i].Default
	}
	for i, name := range stmt.Columns {
		if ci := tbl.ColumnIndex(name); ci >= 0 && i < len(row) {
			out[ci] = row[i]
		}
	}
	return out
}

// emitInsertRow compiles one VALUES row: resolve each column expression
// (constant or parameter, no FROM scope involved), build the rowid (the
// supplied INTEGER PRIMARY KEY value, or a fresh one via NewRecno), write
// the base-table record, then maintain every secondary index. A conflict
// that resolves to "skip this row" jumps past both.
func (c *Compiler) emitInsertRow(stmt *parser.InsertStmt, tbl *schema.Table, baseCur int, idxCurs []int, row []*expr.Expr) error {
	vals := columnValues(stmt, tbl, row)

	if tbl.IPKey >= 0 && vals[tbl.IPKey] != nil {
		if err := plan.EmitExpr(c.PC, nil, vals[tbl.IPKey]); err != nil {
			return err
		}
		c.Prog.Emit(vdbe.MustBeInt, 0, 0, "")
	} else {
		c.Prog.Emit(vdbe.NewRecno, baseCur, 0, "")
	}

	for i, ve := range vals {
		if i == tbl.IPKey || ve == nil {
			c.Prog.Emit(vdbe.Null, 0, 0, "")
			continue
		}
		if err := plan.EmitExpr(c.PC, nil, ve); err != nil {
			return err
		}
	}
	c.Prog.Emit(vdbe.MakeRecord, len(vals), 0, "")

	skipRow := c.emitConflictCheck(stmt.OnConflict, baseCur)
	c.Prog.Emit(vdbe.PutIntKey, baseCur, 0, "")
	for i, idx := range tbl.Indices {
		c.emitIndexPut(idx, tbl, baseCur, idxCurs[i])
	}
	if skipRow >= 0 {
		c.Prog.PatchP2(skipRow, c.Prog.Here())
	}
	return nil
}

// emitConflictCheck handles a rowid collision per ON CONFLICT (spec §4.2).
// The stack holds [rowid, record] on entry and must still hold exactly
// that (undisturbed) on the fallthrough path, for PutIntKey to consume.
// Returns the index of an unpatched forward Goto the caller must land past
// both PutIntKey and the index maintenance loop (the "skip this row"
// path), or -1 if this action never skips.
func (c *Compiler) emitConflictCheck(action schema.ConflictAction, baseCur int) int {
	if action == schema.ConflictNone {
		action = schema.ConflictAbort
	}
	c.Prog.Emit(vdbe.Dup, 1, 0, "")
	noConflict := c.Prog.Emit(vdbe.NotExists, baseCur, 0, "")

	skipRow := -1
	switch action {
	case schema.ConflictIgnore:
		c.Prog.Emit(vdbe.Pop, 2, 0, "")
		skipRow = c.Prog.Emit(vdbe.Goto, 0, 0, "")
	case schema.ConflictReplace:
		c.Prog.Emit(vdbe.Delete, baseCur, 0, "")
	default:
		c.Prog.Emit(vdbe.Halt, 1, 0, "constraint failed: rowid already exists")
	}
	c.Prog.PatchP2(noConflict, c.Prog.Here())
	return skipRow
}

// emitIndexPut pushes the row's rowid and the index's column values (read
// back from the base cursor, now positioned on the row just written) and
// writes the index entry.
func (c *Compiler) emitIndexPut(idx *schema.Index, tbl *schema.Table, baseCur, idxCur int) {
	nCols := fmt.Sprint(len(tbl.Columns))
	c.Prog.Emit(vdbe.Recno, baseCur, 0, "")
	for _, ci := range idx.Columns {
		c.Prog.Emit(vdbe.Column, baseCur, ci, nCols)
	}
	c.Prog.Emit(vdbe.MakeIdxKey, len(idx.Columns), 0, "")
	c.Prog.Emit(vdbe.IdxPut, idxCur, 0, "")
}

// compileInsertSelect is not implemented: package plan's CompileSelect
// always terminates its output pipeline in a Callback row surfaced to the
// caller, with no hook to redirect that into a PutIntKey/IdxPut sequence
// instead, and duplicating compileFrom/compileAggregateScan here to get a
// raw per-row callback is out of scope for this pass (see DESIGN.md).
func (c *Compiler) compileInsertSelect(stmt *parser.InsertStmt) error {
	return fmt.Errorf("ddl: INSERT ... SELECT is not yet supported")
}
