package ddl

import (
	"fmt"

	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/parser"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/storage"
	"github.com/dbsql/dbsql/vdbe"
)

// CompileDropTable emits DROP TABLE (spec §4.1). Destroy frees the root
// page at run time; an empty Callback row after the Destroys hands control
// to Result.Effect, which does the schema cache unlink, mirroring CREATE TABLE's "mutate on confirmed execution, not on parse"
// rule so a rolled-back DROP never desyncs db.Tables from storage.
func (c *Compiler) CompileDropTable(stmt *parser.DropStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	tbl, _ := db.Tables.Get(stmt.Name)
	if tbl == nil {
		if stmt.IfExists {
			c.Prog.Emit(vdbe.Halt, 0, 0, "")
			return &Result{Prog: c.Prog}, nil
		}
		return nil, fmt.Errorf("ddl: no such table: %s", stmt.Name)
	}
	if tbl.IsView() {
		return nil, fmt.Errorf("ddl: use DROP VIEW to drop view %s", stmt.Name)
	}
	if err := c.checkAuth(authorizer.DropTable, stmt.Name, "", db.Name); err != nil {
		return nil, err
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	for _, idx := range tbl.Indices {
		c.Prog.Emit(vdbe.Destroy, int(idx.RootPage), 0, idx.Name)
	}
	c.Prog.Emit(vdbe.Destroy, int(tbl.RootPage), 0, tbl.Name)
	c.Prog.Emit(vdbe.Callback, 0, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	effect := func(row []value.Value, h storage.Handle) error {
		for _, idx := range tbl.Indices {
			db.Indices.Delete(idx.Name)
			unregisterName(h, qualifiedName(db.Name, idx.Name))
		}
		for name, fks := range db.FKReverse {
			kept := fks[:0]
			for _, fk := range fks {
				if fk.Table != tbl {
					kept = append(kept, fk)
				}
			}
			db.FKReverse[name] = kept
		}
		db.Tables.Delete(stmt.Name)
		unregisterName(h, qualifiedName(db.Name, stmt.Name))
		c.Catalog.ChangeSignature(db)
		return nil
	}
	return &Result{Prog: c.Prog, Effect: effect}, nil
}

// CompileDropIndex emits DROP INDEX; like DROP TABLE, the unlink runs from
// Result.Effect on the empty Callback row that follows Destroy.
func (c *Compiler) CompileDropIndex(stmt *parser.DropStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	idx, _ := db.Indices.Get(stmt.Name)
	if idx == nil {
		if stmt.IfExists {
			c.Prog.Emit(vdbe.Halt, 0, 0, "")
			return &Result{Prog: c.Prog}, nil
		}
		return nil, fmt.Errorf("ddl: no such index: %s", stmt.Name)
	}
	if err := c.checkAuth(authorizer.DropIndex, stmt.Name, idx.Table.Name, db.Name); err != nil {
		return nil, err
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.Destroy, int(idx.RootPage), 0, idx.Name)
	c.Prog.Emit(vdbe.Callback, 0, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	effect := func(row []value.Value, h storage.Handle) error {
		db.Indices.Delete(stmt.Name)
		tbl := idx.Table
		for i, ti := range tbl.Indices {
			if ti == idx {
				tbl.Indices = append(tbl.Indices[:i], tbl.Indices[i+1:]...)
				break
			}
		}
		unregisterName(h, qualifiedName(db.Name, stmt.Name))
		c.Catalog.ChangeSignature(db)
		return nil
	}
	return &Result{Prog: c.Prog, Effect: effect}, nil
}

// CompileDropView emits DROP VIEW. A view has no root page, so (like
// CREATE VIEW) the schema cache mutation is immediate, no Effect needed.
func (c *Compiler) CompileDropView(stmt *parser.DropStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	tbl, _ := db.Tables.Get(stmt.Name)
	if tbl == nil || !tbl.IsView() {
		if stmt.IfExists {
			c.Prog.Emit(vdbe.Halt, 0, 0, "")
			return &Result{Prog: c.Prog}, nil
		}
		return nil, fmt.Errorf("ddl: no such view: %s", stmt.Name)
	}
	if err := c.checkAuth(authorizer.DropView, stmt.Name, "", db.Name); err != nil {
		return nil, err
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	db.Tables.Delete(stmt.Name)
	c.Catalog.ChangeSignature(db)
	return &Result{Prog: c.Prog}, nil
}

// CompileDropTrigger emits DROP TRIGGER, also immediate (a trigger is pure
// schema-cache metadata, nothing backed by storage).
func (c *Compiler) CompileDropTrigger(stmt *parser.DropStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	trig, _ := db.Triggers.Get(stmt.Name)
	if trig == nil {
		if stmt.IfExists {
			c.Prog.Emit(vdbe.Halt, 0, 0, "")
			return &Result{Prog: c.Prog}, nil
		}
		return nil, fmt.Errorf("ddl: no such trigger: %s", stmt.Name)
	}
	if err := c.checkAuth(authorizer.DropTrigger, stmt.Name, trig.Table, db.Name); err != nil {
		return nil, err
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	db.Triggers.Delete(stmt.Name)
	c.Catalog.ChangeSignature(db)
	return &Result{Prog: c.Prog}, nil
}
