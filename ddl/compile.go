package ddl

import (
	"fmt"

	"github.com/dbsql/dbsql/parser"
)

// Compile dispatches a parsed statement to the Compile* method matching
// its Kind, the single entry point for anything that isn't a bare SELECT
// (spec §4.2 routes those straight to package plan instead).
func (c *Compiler) Compile(stmt *parser.Stmt) (*Result, error) {
	switch stmt.Kind {
	case parser.StmtInsert:
		return c.CompileInsert(stmt.Insert)
	case parser.StmtUpdate:
		return c.CompileUpdate(stmt.Update)
	case parser.StmtDelete:
		return c.CompileDelete(stmt.Delete)
	case parser.StmtCreateTable:
		return c.CompileCreateTable(stmt.CreateTable)
	case parser.StmtCreateIndex:
		return c.CompileCreateIndex(stmt.CreateIndex)
	case parser.StmtCreateView:
		return c.CompileCreateView(stmt.CreateView)
	case parser.StmtCreateTrigger:
		return c.CompileCreateTrigger(stmt.CreateTrig)
	case parser.StmtDropTable:
		return c.CompileDropTable(stmt.DropTable)
	case parser.StmtDropIndex:
		return c.CompileDropIndex(stmt.DropIndex)
	case parser.StmtDropView:
		return c.CompileDropView(stmt.DropView)
	case parser.StmtDropTrigger:
		return c.CompileDropTrigger(stmt.DropTrigger)
	case parser.StmtBegin:
		return c.CompileBegin()
	case parser.StmtCommit:
		return c.CompileCommit()
	case parser.StmtRollback:
		return c.CompileRollback()
	case parser.StmtPragma:
		return c.CompilePragma(stmt.Pragma)
	default:
		return nil, fmt.Errorf("ddl: statement kind %d has no DDL/DML compiler, use package plan", stmt.Kind)
	}
}
