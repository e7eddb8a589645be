package plan

import (
	"context"
	"testing"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/internal/dbrand"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/storage"
	"github.com/dbsql/dbsql/storage/memstore"
	"github.com/dbsql/dbsql/vdbe"
)

// testDB wires a schema.Catalog to a live memstore.Handle so a test can
// both resolve/compile a SELECT against the catalog and seed rows the
// compiled program will actually scan.
type testDB struct {
	t   *testing.T
	cat *schema.Catalog
	h   storage.Handle
	ctx context.Context
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	env := memstore.NewEnv()
	h, err := env.Create(context.Background(), ":memory:", false, false)
	if err != nil {
		t.Fatalf("create handle: %v", err)
	}
	return &testDB{t: t, cat: schema.NewCatalog(1, 2), h: h, ctx: context.Background()}
}

// table registers a table named name with the given columns (numeric
// affinity unless the name is listed in textCols), backed by a fresh
// storage root, and returns it for row seeding.
func (db *testDB) table(name string, textCols map[string]bool, cols ...string) *schema.Table {
	db.t.Helper()
	root, err := db.h.CreateTable(db.ctx)
	if err != nil {
		db.t.Fatalf("create table %s: %v", name, err)
	}
	tbl := schema.NewTable(name, schema.Main)
	tbl.RootPage = root
	for _, c := range cols {
		col := tbl.AddColumn(c)
		if textCols[c] {
			col.Sort = schema.SortText
		}
	}
	d := db.cat.ByIndex(schema.Main)
	d.Tables.Set(name, tbl)
	return tbl
}

// insert writes one row at the given rowid, encoding vals the same way
// package ddl's INSERT codegen would (MakeRecord payload, integer rowid
// key) so a compiled SELECT reads it back through the normal Column path.
func (db *testDB) insert(tbl *schema.Table, rowid int64, vals ...value.Value) {
	db.t.Helper()
	cur, err := db.h.Cursor(db.ctx, tbl.RootPage, true)
	if err != nil {
		db.t.Fatalf("cursor for %s: %v", tbl.Name, err)
	}
	defer cur.Close()
	rec := value.MakeRecord(vals)
	if err := cur.Insert(db.ctx, value.IntToKey(rowid), rec); err != nil {
		db.t.Fatalf("insert into %s: %v", tbl.Name, err)
	}
}

func intVal(n int64) value.Value   { return value.NewInt(n) }
func textVal(s string) value.Value { return value.NewStaticText(s) }

func testFuncs() resolve.FuncTable {
	return resolve.FuncTable{
		"count": {Name: "count", MinArgs: 0, MaxArgs: 1, IsAgg: true, Returns: expr.Numeric},
		"sum":   {Name: "sum", MinArgs: 1, MaxArgs: 1, IsAgg: true, Returns: expr.Numeric},
		"min":   {Name: "min", MinArgs: 1, MaxArgs: 1, IsAgg: true, Returns: expr.Numeric},
		"max":   {Name: "max", MinArgs: 1, MaxArgs: 1, IsAgg: true, Returns: expr.Numeric},
		"upper": {Name: "upper", MinArgs: 1, MaxArgs: 1, IsAgg: false, Returns: expr.Text},
	}
}

// run resolves and compiles sel against db's catalog, executes the
// resulting program start to finish, and returns every ResultRow's values
// alongside the output column names CompileSelect derived.
func (db *testDB) run(sel *expr.Select) ([]string, [][]value.Value, error) {
	cur, mem := 0, 0
	r := &resolve.Resolver{Catalog: db.cat, NextCursor: &cur, NextMemory: &mem}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err != nil {
		return nil, nil, err
	}

	prog := vdbe.NewProgram()
	c := NewCompiler(prog, r)
	names, err := c.CompileSelect(sel)
	if err != nil {
		return nil, nil, err
	}

	v := vdbe.New(prog, db.h, nil, dbrand.New(1, 2))
	var rows [][]value.Value
	for {
		res, serr := v.Step(db.ctx)
		if serr != nil {
			return names, rows, serr
		}
		if res == vdbe.StepDone {
			break
		}
		row := append([]value.Value(nil), v.ResultRow...)
		rows = append(rows, row)
	}
	return names, rows, nil
}
