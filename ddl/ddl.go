// Package ddl compiles schema-mutation and row-mutation statements —
// CREATE/DROP TABLE/INDEX/VIEW/TRIGGER, INSERT/UPDATE/DELETE, PRAGMA and
// BEGIN/COMMIT/ROLLBACK — into a vdbe.Program, the half of spec.md's
// "parse -> codegen -> run" pipeline package plan leaves to SELECT alone.
// Grounded on the teacher's schema/generator.go traversal shape (walk a
// parsed statement, emit one effect per difference) adapted from "emit DDL
// text" to "emit bytecode + mutate the live schema cache", and on package
// plan's own Compiler/exprCtx pattern for expression codegen, reused here
// rather than duplicated via plan.EmitExpr.
package ddl

import (
	"fmt"
	"strings"

	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/plan"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/storage"
	"github.com/dbsql/dbsql/vdbe"
)

// Effect runs once the program's schema-creating opcode has actually
// executed (a CREATE TABLE/INDEX needs the root page storage.Handle hands
// back at run time, not compile time, before the schema cache can record
// it) — see Result.Effect. row is one internal result row: CREATE TABLE/
// INDEX surface one per root page allocated, via a Callback right after
// each CreateTable/CreateIndex, and DROP TABLE/INDEX surface one empty row
// after their Destroys; h is the same storage.Handle the statement is running
// against, needed for the name->rootpage registration memstore (and any
// real backing store) keeps outside the storage.Handle interface proper.
type Effect func(row []value.Value, h storage.Handle) error

// Result is what compiling one ddl-kind statement produces: the bytecode,
// a Names slot for output column names, and an optional Effect. No
// compiler in this package sets Names; statements that surface real rows
// (PRAGMA table_info, PRAGMA user_version) leave it nil.
type Result struct {
	Prog   *vdbe.Program
	Names  []string
	Effect Effect
}

// Compiler emits bytecode for one DDL/DML/PRAGMA/transaction-control
// statement. It shares PC's Resolver (cursor/memory-cell counters, per-
// Select scope cache) so expression codegen done through PC (a WHERE
// subquery, for instance) never collides with registers ddl's own codegen
// hands out.
type Compiler struct {
	Prog    *vdbe.Program
	R       *resolve.Resolver
	PC      *plan.Compiler
	Catalog *schema.Catalog
	Auth    authorizer.Hook
}

func NewCompiler(prog *vdbe.Program, r *resolve.Resolver, catalog *schema.Catalog, auth authorizer.Hook) *Compiler {
	return &Compiler{Prog: prog, R: r, PC: plan.NewCompiler(prog, r), Catalog: catalog, Auth: auth}
}

func (c *Compiler) allocCursor() int {
	*c.R.NextCursor++
	if n := *c.R.NextCursor + 1; n > c.Prog.NumCursors {
		c.Prog.NumCursors = n
	}
	return *c.R.NextCursor
}

func (c *Compiler) allocMem() int {
	*c.R.NextMemory++
	if n := *c.R.NextMemory + 1; n > c.Prog.NumMem {
		c.Prog.NumMem = n
	}
	return *c.R.NextMemory
}

// checkAuth consults Auth once per statement-level action (spec §4.6);
// resolve.Resolver already does the per-column Read checks during WHERE/
// assignment resolution.
func (c *Compiler) checkAuth(action authorizer.Action, arg1, arg2, dbName string) error {
	if c.Auth == nil {
		return nil
	}
	switch c.Auth(action, arg1, arg2, dbName) {
	case authorizer.Deny:
		return fmt.Errorf("ddl: authorization denied for %s on %s", actionName(action), arg1)
	}
	return nil
}

func actionName(a authorizer.Action) string {
	return fmt.Sprintf("action(%d)", int(a))
}

// database resolves a statement's target database: an explicit qualifier
// beats dbIndex, the default attach point for unqualified names.
func (c *Compiler) database(dbIndex int, name string) (*schema.Database, error) {
	if name != "" {
		if d := c.Catalog.ByName(name); d != nil {
			return d, nil
		}
		return nil, fmt.Errorf("ddl: no such database %q", name)
	}
	if d := c.Catalog.ByIndex(dbIndex); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("ddl: no such database index %d", dbIndex)
}

func (c *Compiler) table(db *schema.Database, name string) (*schema.Table, error) {
	t, _ := db.Tables.Get(name)
	if t == nil {
		return nil, fmt.Errorf("ddl: no such table: %s", name)
	}
	return t, nil
}

// sortClassOf implements spec §4.3's column-affinity rule: a declared type
// containing "char"/"clob"/"text"/"blob" sorts as Text, everything else
// (including no declared type) as Numeric.
func sortClassOf(declType string) schema.SortClass {
	t := strings.ToLower(declType)
	for _, kw := range []string{"char", "clob", "text", "blob"} {
		if strings.Contains(t, kw) {
			return schema.SortText
		}
	}
	return schema.SortNumeric
}

// qualifiedName is the name.RegisterName/RootPageOf key: "db.object", so
// the same object name in two attached databases doesn't collide in a
// single process-wide storage.Env (spec §6.2).
func qualifiedName(dbName, objName string) string {
	return dbName + "." + objName
}

// nameRegistrar is the storage.Handle name<->rootpage cache memstore.handle
// implements but storage.Handle itself does not declare (RootPageOf alone
// is enough for read-only lookup; only ddl's CREATE/DROP codegen needs to
// populate that cache, and only a subset of real Handle implementations may
// choose to back it this way — a durable store can instead derive
// RootPageOf from its own catalog page, so this stays an optional
// capability rather than growing the Handle interface).
type nameRegistrar interface {
	RegisterName(name string, root int64)
	UnregisterName(name string)
}

func registerName(h storage.Handle, name string, root int64) {
	if r, ok := h.(nameRegistrar); ok {
		r.RegisterName(name, root)
	}
}

func unregisterName(h storage.Handle, name string) {
	if r, ok := h.(nameRegistrar); ok {
		r.UnregisterName(name)
	}
}

// singleTableScope synthesizes the resolve.Scope a WHERE/assignment
// expression needs to resolve column references against one bare table —
// the shape UPDATE/DELETE need without paying for resolve.ResolveSelect's
// full FROM-clause/result-set machinery, which exists for SELECT's
// multi-source joins.
func singleTableScope(cur int, alias string, tbl *schema.Table) *resolve.Scope {
	return &resolve.Scope{Sources: []resolve.ResolvedSrc{{
		Src:   &expr.SrcItem{Alias: alias, Table: tbl.Name, CursorIdx: cur},
		Table: tbl,
	}}}
}
