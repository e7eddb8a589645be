package ddl

import (
	"fmt"

	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/parser"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/vdbe"
)

// CompileDelete emits DELETE FROM ... WHERE ... (spec §4.2) as a two-pass
// keylist scan (see scanMatchingRowids): pass one records every qualifying
// rowid, pass two re-reads each one via MoveTo and removes it and its
// index entries.
func (c *Compiler) CompileDelete(stmt *parser.DeleteStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	tbl, err := c.table(db, stmt.Table)
	if err != nil {
		return nil, err
	}
	if tbl.IsView() {
		return nil, fmt.Errorf("ddl: cannot delete from view %s", stmt.Table)
	}
	if err := c.checkAuth(authorizer.Delete, stmt.Table, "", db.Name); err != nil {
		return nil, err
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
	c.Prog.Emit(vdbe.Delete, baseCur, 0, "")

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

// emitIndexDelete re-derives idx's current key from the row baseCur is now
// positioned on and removes that entry.
func (c *Compiler) emitIndexDelete(idx *schema.Index, tbl *schema.Table, baseCur, idxCur int) {
	nCols := fmt.Sprint(len(tbl.Columns))
	c.Prog.Emit(vdbe.Recno, baseCur, 0, "")
	for _, ci := range idx.Columns {
		c.Prog.Emit(vdbe.Column, baseCur, ci, nCols)
	}
	c.Prog.Emit(vdbe.MakeIdxKey, len(idx.Columns), 0, "")
	c.Prog.Emit(vdbe.IdxDelete, idxCur, 0, "")
}
