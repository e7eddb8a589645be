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

// CompileUpdate emits UPDATE ... SET ... WHERE ... (spec §4.2), the same
// two-pass keylist scan CompileDelete uses. Reassigning the INTEGER
// PRIMARY KEY column is rejected rather than supported: SQLite handles
// that as a delete-then-reinsert under a new rowid, which this pass does
// not implement (see DESIGN.md's "Accepted simplifications").
//
// A cursor's row cache is invalidated the moment it writes (memstore
// drops its sorted-key cache on Insert/Delete — see storage/memstore's
// cursor.Insert), so every value the post-write index rebuild needs —
// the unchanged rowid and each new column — is snapshotted into a Mem
// cell while the cursor is still positioned on the pre-write row, rather
// than re-read from baseCur afterward.
func (c *Compiler) CompileUpdate(stmt *parser.UpdateStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	tbl, err := c.table(db, stmt.Table)
	if err != nil {
		return nil, err
	}
	if tbl.IsView() {
		return nil, fmt.Errorf("ddl: cannot update view %s", stmt.Table)
	}
	if err := c.checkAuth(authorizer.Update, stmt.Table, "", db.Name); err != nil {
		return nil, err
	}

	assigns := make([]*expr.Expr, len(tbl.Columns))
	for _, a := range stmt.Assigns {
		ci := tbl.ColumnIndex(a.Column)
		if ci < 0 {
			return nil, fmt.Errorf("ddl: no such column: %s", a.Column)
		}
		if ci == tbl.IPKey {
			return nil, fmt.Errorf("ddl: updating the INTEGER PRIMARY KEY column is not supported")
		}
		assigns[ci] = a.Value
	}

	alias := stmt.Alias
	if alias == "" {
		alias = stmt.Table
	}
	baseCur := c.allocCursor()
	scope := singleTableScope(baseCur, alias, tbl)
	if stmt.Where != nil {
		if err := c.R.ResolveIDs(scope, stmt.Where); err != nil {
			return nil, err
		}
	}
	for _, e := range assigns {
		if e != nil {
			if err := c.R.ResolveIDs(scope, e); err != nil {
				return nil, err
			}
		}
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.OpenWrite, baseCur, int(tbl.RootPage), tbl.Name)
	idxCurs := c.openIndexCursors(tbl)
	c.Prog.Emit(vdbe.ListReset, 0, 0, "")

	if err := c.scanMatchingRowids(baseCur, scope, stmt.Where); err != nil {
		return nil, err
	}

	c.Prog.Emit(vdbe.ListRewind, 0, 0, "")
	firstIdx := c.Prog.Emit(vdbe.ListRead, 0, 0, "")
	loopEnd := c.Prog.Emit(vdbe.Goto, 0, 0, "")
	body := c.Prog.Here()
	c.Prog.PatchP2(firstIdx, body)

	c.Prog.Emit(vdbe.MakeKey, 0, 0, "")
	moveTo := c.Prog.Emit(vdbe.MoveTo, baseCur, 0, "")

	for i, idx := range tbl.Indices {
		c.emitIndexDelete(idx, tbl, baseCur, idxCurs[i])
	}

	rowidCell := c.allocMem()
	c.Prog.Emit(vdbe.Recno, baseCur, 0, "")
	c.Prog.Emit(vdbe.Dup, 0, 0, "")
	c.Prog.Emit(vdbe.MemStore, rowidCell, 0, "")

	colCells := make([]int, len(tbl.Columns))
	nCols := fmt.Sprint(len(tbl.Columns))
	for i := range tbl.Columns {
		switch {
		case i == tbl.IPKey:
			c.Prog.Emit(vdbe.Null, 0, 0, "")
		case assigns[i] != nil:
			if err := plan.EmitExpr(c.PC, scope, assigns[i]); err != nil {
				return nil, err
			}
		default:
			c.Prog.Emit(vdbe.Column, baseCur, i, nCols)
		}
		colCells[i] = c.allocMem()
		c.Prog.Emit(vdbe.Dup, 0, 0, "")
		c.Prog.Emit(vdbe.MemStore, colCells[i], 0, "")
	}
	c.Prog.Emit(vdbe.MakeRecord, len(tbl.Columns), 0, "")
	c.Prog.Emit(vdbe.PutIntKey, baseCur, 0, "")

	for i, idx := range tbl.Indices {
		c.emitIndexPutFromMem(idx, idxCurs[i], rowidCell, colCells)
	}

	replayNext := c.Prog.Here()
	c.Prog.PatchP2(moveTo, replayNext)
	nextIdx := c.Prog.Emit(vdbe.ListRead, 0, 0, "")
	c.Prog.PatchP2(nextIdx, body)
	c.Prog.PatchP2(loopEnd, c.Prog.Here())

	for _, ic := range idxCurs {
		c.Prog.Emit(vdbe.Close, ic, 0, "")
	}
	c.Prog.Emit(vdbe.Close, baseCur, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

// emitIndexPutFromMem rebuilds idx's key from the unchanged rowid and the
// new column values an UPDATE pass stashed into Mem cells before its
// PutIntKey invalidated baseCur's row cache.
func (c *Compiler) emitIndexPutFromMem(idx *schema.Index, idxCur, rowidCell int, colCells []int) {
	c.Prog.Emit(vdbe.MemLoad, rowidCell, 0, "")
	for _, ci := range idx.Columns {
		c.Prog.Emit(vdbe.MemLoad, colCells[ci], 0, "")
	}
	c.Prog.Emit(vdbe.MakeIdxKey, len(idx.Columns), 0, "")
	c.Prog.Emit(vdbe.IdxPut, idxCur, 0, "")
}
