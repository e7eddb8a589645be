package ddl

import "github.com/dbsql/dbsql/vdbe"

// CompileBegin emits BEGIN [TRANSACTION] (spec §4.2): a single
// Transaction opcode, deliberately left outside the Transaction/Commit
// pairing every other statement in this package wraps itself in, since a
// bare BEGIN's whole point is to hold the transaction open across
// statements rather than close it before returning.
func (c *Compiler) CompileBegin() (*Result, error) {
	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

// CompileCommit emits COMMIT (spec §4.2).
func (c *Compiler) CompileCommit() (*Result, error) {
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

// CompileRollback emits ROLLBACK (spec §4.2).
func (c *Compiler) CompileRollback() (*Result, error) {
	c.Prog.Emit(vdbe.Rollback, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}
