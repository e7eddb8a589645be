package ddl

import (
	"fmt"
	"strings"

	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/parser"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/storage"
	"github.com/dbsql/dbsql/vdbe"
)

// CompileCreateTable emits CREATE TABLE (spec §4.1's create_table action
// sequence, §4.7's schema-mutation half). The root page a real storage
// manager hands back is only known once the CreateTable opcode actually
// runs, so the table isn't linked into db.Tables until Result.Effect fires
// with that page number (the schema cache's "committed DDL" moment, spec
// §8's invariant that the signature bump happens on commit, not parse).
func (c *Compiler) CompileCreateTable(stmt *parser.CreateTableStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	if existing, _ := db.Tables.Get(stmt.Name); existing != nil {
		if stmt.IfNotExists {
			c.Prog.Emit(vdbe.Noop, 0, 0, "")
			c.Prog.Emit(vdbe.Halt, 0, 0, "")
			return &Result{Prog: c.Prog}, nil
		}
		return nil, fmt.Errorf("ddl: table %s already exists", stmt.Name)
	}
	if err := c.checkAuth(authorizer.CreateTable, stmt.Name, "", db.Name); err != nil {
		return nil, err
	}

	tbl := schema.NewTable(stmt.Name, db.Index)
	for _, cd := range stmt.Columns {
		col := tbl.AddColumn(cd.Name)
		col.DeclType = cd.DeclType
		col.NotNull = cd.NotNull
		col.Collate = cd.Collate
		col.Default = cd.Default
		col.Sort = sortClassOf(cd.DeclType)
		col.IsPK = cd.IsPK
	}
	applyPrimaryKey(tbl, stmt)

	var autoIndices []*schema.Index
	for _, cd := range stmt.Columns {
		if cd.Unique {
			if ci := tbl.ColumnIndex(cd.Name); ci >= 0 {
				idx := schema.NewIndex(autoIndexName(stmt.Name, len(autoIndices)), tbl)
				idx.Columns = []int{ci}
				idx.Unique = true
				idx.AutoCreated = true
				autoIndices = append(autoIndices, idx)
			}
		}
	}
	for _, set := range stmt.UniqueSets {
		idx := schema.NewIndex(autoIndexName(stmt.Name, len(autoIndices)), tbl)
		idx.Unique = true
		idx.AutoCreated = true
		for _, name := range set {
			if ci := tbl.ColumnIndex(name); ci >= 0 {
				idx.Columns = append(idx.Columns, ci)
			}
		}
		autoIndices = append(autoIndices, idx)
	}

	for _, fk := range stmt.ForeignKeys {
		tbl.ForeignKeys = append(tbl.ForeignKeys, &schema.ForeignKey{
			Table: tbl, FromColumns: fk.FromColumns, ToTable: fk.ToTable,
			ToColumns: fk.ToColumns, OnDelete: fk.OnDelete, OnUpdate: fk.OnUpdate,
			IsDeferred: fk.Deferred,
		})
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.CreateTable, 0, 0, "")
	c.Prog.Emit(vdbe.Callback, 1, 0, "")
	// Auto-created indices (UNIQUE columns, table-level UNIQUE(...)) need
	// their own root page too, surfaced the same way — one Callback row
	// per allocation, in declaration order, Effect draining them in the
	// same order it reads them back.
	for range autoIndices {
		c.Prog.Emit(vdbe.CreateIndex, 0, 0, "")
		c.Prog.Emit(vdbe.Callback, 1, 0, "")
	}
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	// Every Callback row maps to one root-page allocation in program order:
	// the table's own CreateTable first, then one CreateIndex per
	// auto-created index. Effect is invoked once per intercepted row in
	// that order, so the remaining slice closed over here tells each call
	// which allocation it's draining.
	remaining := autoIndices
	effect := func(row []value.Value, h storage.Handle) error {
		if len(row) == 0 {
			return fmt.Errorf("ddl: CREATE TABLE produced no root page")
		}
		if tbl.RootPage == 0 {
			tbl.RootPage = row[0].Integer()
			db.Tables.Set(stmt.Name, tbl)
			registerName(h, qualifiedName(db.Name, stmt.Name), tbl.RootPage)
			for _, fk := range tbl.ForeignKeys {
				db.RegisterForeignKey(fk)
			}
			c.Catalog.ChangeSignature(db)
			return nil
		}
		idx := remaining[0]
		remaining = remaining[1:]
		idx.RootPage = row[0].Integer()
		tbl.Indices = append(tbl.Indices, idx)
		db.Indices.Set(idx.Name, idx)
		registerName(h, qualifiedName(db.Name, idx.Name), idx.RootPage)
		return nil
	}

	return &Result{Prog: c.Prog, Effect: effect}, nil
}

func applyPrimaryKey(tbl *schema.Table, stmt *parser.CreateTableStmt) {
	ipk := -1
	for i, cd := range stmt.Columns {
		if cd.IsPK {
			ipk = i
		}
	}
	if len(stmt.PrimaryKey) == 1 {
		if ci := tbl.ColumnIndex(stmt.PrimaryKey[0]); ci >= 0 {
			ipk = ci
			tbl.Columns[ci].IsPK = true
		}
	}
	// The INTEGER PRIMARY KEY rowid-alias rule (spec §3.2) only applies to
	// a single-column key declared INTEGER; a composite PRIMARY KEY(...) or
	// any other declared type keeps the table's ordinary hidden rowid.
	if ipk >= 0 && (len(stmt.PrimaryKey) > 1 || !strings.EqualFold(strings.TrimSpace(tbl.Columns[ipk].DeclType), "INTEGER")) {
		ipk = -1
	}
	tbl.IPKey = ipk
}

func autoIndexName(table string, n int) string {
	return fmt.Sprintf("sqlite_autoindex_%s_%d", table, n+1)
}

// CompileCreateIndex emits CREATE INDEX. Like CREATE TABLE, the root page
// is only known post-execution, so the schema.Index is linked into
// db.Indices (and appended to its table's Indices) from Result.Effect.
func (c *Compiler) CompileCreateIndex(stmt *parser.CreateIndexStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	if existing, _ := db.Indices.Get(stmt.Name); existing != nil {
		if stmt.IfNotExists {
			c.Prog.Emit(vdbe.Halt, 0, 0, "")
			return &Result{Prog: c.Prog}, nil
		}
		return nil, fmt.Errorf("ddl: index %s already exists", stmt.Name)
	}
	tbl, err := c.table(db, stmt.Table)
	if err != nil {
		return nil, err
	}
	if err := c.checkAuth(authorizer.CreateIndex, stmt.Name, stmt.Table, db.Name); err != nil {
		return nil, err
	}

	idx := schema.NewIndex(stmt.Name, tbl)
	idx.Unique = stmt.Unique
	for _, colName := range stmt.Columns {
		ci := tbl.ColumnIndex(colName)
		if ci < 0 {
			return nil, fmt.Errorf("ddl: no such column: %s", colName)
		}
		idx.Columns = append(idx.Columns, ci)
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.CreateIndex, 0, 0, "")
	c.Prog.Emit(vdbe.Callback, 1, 0, "")
	if err := c.populateIndex(idx, tbl); err != nil {
		return nil, err
	}
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	effect := func(row []value.Value, h storage.Handle) error {
		if len(row) == 0 {
			return fmt.Errorf("ddl: CREATE INDEX produced no root page")
		}
		idx.RootPage = row[0].Integer()
		db.Indices.Set(stmt.Name, idx)
		tbl.Indices = append(tbl.Indices, idx)
		registerName(h, qualifiedName(db.Name, stmt.Name), idx.RootPage)
		c.Catalog.ChangeSignature(db)
		return nil
	}
	return &Result{Prog: c.Prog, Effect: effect}, nil
}

// populateIndex back-fills a freshly created index from every existing row
// of its table (spec §4.1: CREATE INDEX on a non-empty table must index
// the rows already there, not just rows inserted afterward).
func (c *Compiler) populateIndex(idx *schema.Index, tbl *schema.Table) error {
	baseCur := c.allocCursor()
	idxCur := c.allocCursor()
	c.Prog.Emit(vdbe.OpenRead, baseCur, int(tbl.RootPage), tbl.Name)
	c.Prog.Emit(vdbe.OpenWrite, idxCur, 0, idx.Name)

	rewind := c.Prog.Emit(vdbe.Rewind, baseCur, 0, "")
	body := c.Prog.Here()
	c.Prog.Emit(vdbe.Recno, baseCur, 0, "")
	for _, ci := range idx.Columns {
		c.Prog.Emit(vdbe.Column, baseCur, ci, fmt.Sprint(len(tbl.Columns)))
	}
	c.Prog.Emit(vdbe.MakeIdxKey, len(idx.Columns), 0, "")
	c.Prog.Emit(vdbe.IdxPut, idxCur, 0, "")
	next := c.Prog.Emit(vdbe.Next, baseCur, 0, "")
	c.Prog.PatchP2(next, body)
	c.Prog.PatchP2(rewind, c.Prog.Here())
	c.Prog.Emit(vdbe.Close, baseCur, 0, "")
	c.Prog.Emit(vdbe.Close, idxCur, 0, "")
	return nil
}

// CompileCreateView emits CREATE VIEW. A view carries no storage object of
// its own (spec §3.2: "a Table with a non-null associated SELECT"), so
// there is no root page to wait for — the schema cache mutation happens
// directly here, at compile time, same as triggers.
func (c *Compiler) CompileCreateView(stmt *parser.CreateViewStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	if existing, _ := db.Tables.Get(stmt.Name); existing != nil {
		return nil, fmt.Errorf("ddl: view %s already exists", stmt.Name)
	}
	if err := c.checkAuth(authorizer.CreateView, stmt.Name, "", db.Name); err != nil {
		return nil, err
	}

	tbl := schema.NewTable(stmt.Name, db.Index)
	tbl.Select = stmt.Select.Clone()
	if len(stmt.Columns) > 0 {
		for _, name := range stmt.Columns {
			tbl.AddColumn(name)
		}
		tbl.ViewColumnsCached = true
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	db.Tables.Set(stmt.Name, tbl)
	c.Catalog.ChangeSignature(db)
	return &Result{Prog: c.Prog}, nil
}

// CompileCreateTrigger emits CREATE TRIGGER. The body is kept as raw
// re-parseable text (schema.Trigger.Body's contract) and the trigger is
// registered in the schema cache so DROP TRIGGER and sqlite_master queries
// see it; actually firing a trigger's body as a Gosub subroutine off
// INSERT/UPDATE/DELETE is not wired into this pass (see DESIGN.md's
// "Accepted simplifications").
func (c *Compiler) CompileCreateTrigger(stmt *parser.CreateTriggerStmt) (*Result, error) {
	db, err := c.database(schema.Main, stmt.Database)
	if err != nil {
		return nil, err
	}
	if existing, _ := db.Triggers.Get(stmt.Name); existing != nil {
		return nil, fmt.Errorf("ddl: trigger %s already exists", stmt.Name)
	}
	if _, err := c.table(db, stmt.Table); err != nil {
		return nil, err
	}
	if err := c.checkAuth(authorizer.CreateTrigger, stmt.Name, stmt.Table, db.Name); err != nil {
		return nil, err
	}

	trig := &schema.Trigger{
		Name: stmt.Name, Table: stmt.Table, Event: stmt.Event,
		Timing: stmt.Timing, Body: append([]string(nil), stmt.Body...),
		ForEach: stmt.ForEach,
	}

	c.Prog.Emit(vdbe.Transaction, 0, 0, "")
	c.Prog.Emit(vdbe.Commit, 0, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")

	db.Triggers.Set(stmt.Name, trig)
	c.Catalog.ChangeSignature(db)
	return &Result{Prog: c.Prog}, nil
}
