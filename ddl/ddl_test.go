package ddl

import (
	"context"
	"testing"

	"github.com/dbsql/dbsql/internal/dbrand"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/parser"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/storage"
	"github.com/dbsql/dbsql/storage/memstore"
	"github.com/dbsql/dbsql/vdbe"
)

// testDB wires a fresh schema.Catalog to a live memstore.Handle, the same
// pairing package plan's own tests use, so a statement can be parsed,
// compiled, and actually executed against real storage in one call.
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

// exec parses, compiles and runs one statement. When the statement has an
// Effect, every row the program surfaces is handed to it instead of being
// collected; otherwise exec returns the last row and every row surfaced.
func (db *testDB) exec(sql string) ([]value.Value, [][]value.Value, error) {
	db.t.Helper()
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, nil, err
	}

	cur, mem := 0, 0
	r := &resolve.Resolver{Catalog: db.cat, NextCursor: &cur, NextMemory: &mem}
	c := NewCompiler(vdbe.NewProgram(), r, db.cat, nil)
	res, err := c.Compile(stmt)
	if err != nil {
		return nil, nil, err
	}

	v := vdbe.New(res.Prog, db.h, nil, dbrand.New(1, 2))
	var rows [][]value.Value
	for {
		step, serr := v.Step(db.ctx)
		if serr != nil {
			return nil, rows, serr
		}
		if step == vdbe.StepDone {
			break
		}
		row := append([]value.Value(nil), v.ResultRow...)
		if res.Effect != nil {
			if err := res.Effect(row, db.h); err != nil {
				return nil, rows, err
			}
			continue
		}
		rows = append(rows, row)
	}
	var last []value.Value
	if len(rows) > 0 {
		last = rows[len(rows)-1]
	}
	return last, rows, nil
}

func intVal(n int64) value.Value { return value.NewInt(n) }
