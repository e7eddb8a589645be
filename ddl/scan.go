package ddl

import (
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/plan"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/vdbe"
)

// scanMatchingRowids is pass one of UPDATE/DELETE's two-pass scan (spec
// §4.2): walk baseCur once, evaluate where against scope for every row,
// and ListWrite the rowid of each row that qualifies. Pass two replays
// those rowids via MoveTo once the scan has finished, so a row's storage
// is never mutated while sibling rows are still being visited by the same
// cursor — the same hazard package plan's compileFrom never has to worry
// about, since SELECT never mutates what it scans.
func (c *Compiler) scanMatchingRowids(baseCur int, scope *resolve.Scope, where *expr.Expr) error {
	rewindEnd := c.Prog.Emit(vdbe.Rewind, baseCur, 0, "")
	body := c.Prog.Here()

	emitWrite := func() {
		c.Prog.Emit(vdbe.Recno, baseCur, 0, "")
		c.Prog.Emit(vdbe.ListWrite, 0, 0, "")
	}

	if where != nil {
		if err := plan.EmitExpr(c.PC, scope, where); err != nil {
			return err
		}
		trueJump := c.Prog.Emit(vdbe.If, 0, 0, "")
		skip := c.Prog.Emit(vdbe.Goto, 0, 0, "")
		c.Prog.PatchP2(trueJump, c.Prog.Here())
		emitWrite()
		c.Prog.PatchP2(skip, c.Prog.Here())
	} else {
		emitWrite()
	}

	nextIdx := c.Prog.Emit(vdbe.Next, baseCur, 0, "")
	c.Prog.PatchP2(nextIdx, body)
	c.Prog.PatchP2(rewindEnd, c.Prog.Here())
	return nil
}
