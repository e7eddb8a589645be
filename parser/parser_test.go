package parser

import (
	"testing"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/schema"
)

func mustParse(t *testing.T, sql string) *Stmt {
	t.Helper()
	stmt, err := Parse(sql)
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	return stmt
}

func TestParseSimpleSelect(t *testing.T) {
	stmt := mustParse(t, "SELECT a, b FROM t WHERE a = 1 ORDER BY b DESC LIMIT 10 OFFSET 5")
	if stmt.Kind != StmtSelect {
		t.Fatalf("expected StmtSelect, got %v", stmt.Kind)
	}
	sel := stmt.Select
	if len(sel.ResultColumns) != 2 {
		t.Fatalf("expected 2 result columns, got %d", len(sel.ResultColumns))
	}
	if len(sel.From) != 1 || sel.From[0].Table != "t" {
		t.Fatalf("expected FROM t, got %+v", sel.From)
	}
	if sel.Where == nil || sel.Where.Op != expr.OpEq {
		t.Fatalf("expected WHERE a = 1, got %+v", sel.Where)
	}
	if len(sel.OrderBy) != 1 || !sel.OrderBy[0].Desc {
		t.Fatalf("expected ORDER BY ... DESC, got %+v", sel.OrderBy)
	}
	if sel.Limit == nil || sel.Limit.Token != "10" {
		t.Fatalf("expected LIMIT 10, got %+v", sel.Limit)
	}
	if sel.Offset == nil || sel.Offset.Token != "5" {
		t.Fatalf("expected OFFSET 5, got %+v", sel.Offset)
	}
}

func TestParseSelectWildcardAndTableWildcard(t *testing.T) {
	stmt := mustParse(t, "SELECT *, t.*, a.b FROM t, u AS a")
	cols := stmt.Select.ResultColumns
	if !cols[0].Star || cols[0].StarTable != "" {
		t.Fatalf("expected bare *, got %+v", cols[0])
	}
	if !cols[1].Star || cols[1].StarTable != "t" {
		t.Fatalf("expected t.*, got %+v", cols[1])
	}
	if cols[2].Expr == nil || cols[2].Expr.Op != expr.OpDot {
		t.Fatalf("expected a.b as a dot expr, got %+v", cols[2])
	}
	if len(stmt.Select.From) != 2 || stmt.Select.From[1].Alias != "a" {
		t.Fatalf("expected u aliased a, got %+v", stmt.Select.From)
	}
}

func TestParseJoinWithOn(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM t LEFT OUTER JOIN u ON t.id = u.t_id")
	from := stmt.Select.From
	if len(from) != 2 {
		t.Fatalf("expected 2 source items, got %d", len(from))
	}
	if from[1].Join != expr.JoinLeftOuter {
		t.Fatalf("expected left outer join, got %v", from[1].Join)
	}
	if from[1].On == nil || from[1].On.Op != expr.OpEq {
		t.Fatalf("expected ON clause, got %+v", from[1].On)
	}
}

func TestParseAggregateGroupByHaving(t *testing.T) {
	stmt := mustParse(t, "SELECT k, count(*), sum(v) FROM t GROUP BY k HAVING count(*) > 1")
	sel := stmt.Select
	if len(sel.GroupBy) != 1 {
		t.Fatalf("expected 1 group by term, got %d", len(sel.GroupBy))
	}
	if sel.Having == nil || sel.Having.Op != expr.OpGt {
		t.Fatalf("expected HAVING clause, got %+v", sel.Having)
	}
	fn := sel.ResultColumns[1].Expr
	if fn.Op != expr.OpFunction || fn.Token != "count" {
		t.Fatalf("expected count() function call, got %+v", fn)
	}
}

func TestParseCompoundSelectUnion(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM t UNION ALL SELECT a FROM u ORDER BY a")
	sel := stmt.Select
	if sel.Op != expr.CompoundUnionAll {
		t.Fatalf("expected UNION ALL, got %v", sel.Op)
	}
	if sel.Prior == nil || sel.Prior.From[0].Table != "t" {
		t.Fatalf("expected prior arm FROM t, got %+v", sel.Prior)
	}
	if len(sel.OrderBy) != 1 {
		t.Fatalf("expected trailing ORDER BY on the compound, got %+v", sel.OrderBy)
	}
}

func TestParseSubqueryInWhere(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM t WHERE a IN (SELECT b FROM u) AND EXISTS (SELECT 1 FROM v)")
	where := stmt.Select.Where
	if where.Op != expr.OpAnd {
		t.Fatalf("expected AND, got %+v", where)
	}
	if where.Left.Op != expr.OpInSelect {
		t.Fatalf("expected IN (SELECT ...), got %+v", where.Left)
	}
	if where.Right.Op != expr.OpExists {
		t.Fatalf("expected EXISTS (...), got %+v", where.Right)
	}
}

func TestParseBetweenAndNotIn(t *testing.T) {
	stmt := mustParse(t, "SELECT a FROM t WHERE a BETWEEN 1 AND 10 AND b NOT IN (1, 2, 3)")
	where := stmt.Select.Where
	if where.Op != expr.OpAnd {
		t.Fatalf("expected AND, got %+v", where)
	}
	if where.Left.Op != expr.OpAnd {
		t.Fatalf("expected BETWEEN to desugar to AND of >=/<=, got %+v", where.Left)
	}
	if where.Right.Op != expr.OpNot || where.Right.Left.Op != expr.OpInList {
		t.Fatalf("expected NOT IN (list), got %+v", where.Right)
	}
}

func TestParseCaseExpr(t *testing.T) {
	stmt := mustParse(t, "SELECT CASE WHEN a > 0 THEN 'pos' WHEN a < 0 THEN 'neg' ELSE 'zero' END FROM t")
	e := stmt.Select.ResultColumns[0].Expr
	if e.Op != expr.OpCase {
		t.Fatalf("expected OpCase, got %+v", e)
	}
	if len(e.List) != 5 {
		t.Fatalf("expected 2 when/then pairs plus else, got %d items", len(e.List))
	}
}

func TestParseInsertValues(t *testing.T) {
	stmt := mustParse(t, "INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')")
	ins := stmt.Insert
	if ins.Table != "t" || len(ins.Columns) != 2 {
		t.Fatalf("expected table t with 2 columns, got %+v", ins)
	}
	if len(ins.Rows) != 2 || len(ins.Rows[0]) != 2 {
		t.Fatalf("expected 2 rows of 2 values, got %+v", ins.Rows)
	}
}

func TestParseInsertOrReplaceSelect(t *testing.T) {
	stmt := mustParse(t, "INSERT OR REPLACE INTO t SELECT a, b FROM u")
	ins := stmt.Insert
	if ins.OnConflict != schema.ConflictReplace {
		t.Fatalf("expected ConflictReplace, got %v", ins.OnConflict)
	}
	if ins.Select == nil || ins.Select.From[0].Table != "u" {
		t.Fatalf("expected INSERT...SELECT, got %+v", ins.Select)
	}
}

func TestParseUpdateWithWhere(t *testing.T) {
	stmt := mustParse(t, "UPDATE t SET a = 1, b = a + 1 WHERE id = 5")
	upd := stmt.Update
	if len(upd.Assigns) != 2 || upd.Assigns[0].Column != "a" {
		t.Fatalf("expected 2 assignments, got %+v", upd.Assigns)
	}
	if upd.Where == nil {
		t.Fatalf("expected WHERE clause")
	}
}

func TestParseDelete(t *testing.T) {
	stmt := mustParse(t, "DELETE FROM t WHERE id = 5")
	del := stmt.Delete
	if del.Table != "t" || del.Where == nil {
		t.Fatalf("expected DELETE FROM t WHERE ..., got %+v", del)
	}
}

func TestParseCreateTableWithConstraints(t *testing.T) {
	stmt := mustParse(t, `CREATE TABLE IF NOT EXISTS t (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT 'x',
		parent_id INTEGER REFERENCES t(id) ON DELETE CASCADE,
		FOREIGN KEY (parent_id) REFERENCES t(id),
		UNIQUE (name)
	)`)
	ct := stmt.CreateTable
	if !ct.IfNotExists || ct.Name != "t" {
		t.Fatalf("expected t with IF NOT EXISTS, got %+v", ct)
	}
	if len(ct.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(ct.Columns))
	}
	if !ct.Columns[0].IsPK || !ct.Columns[0].PKAutoincr {
		t.Fatalf("expected id to be PK autoincrement, got %+v", ct.Columns[0])
	}
	if !ct.Columns[1].NotNull || ct.Columns[1].Default == nil {
		t.Fatalf("expected name NOT NULL DEFAULT 'x', got %+v", ct.Columns[1])
	}
	if len(ct.ForeignKeys) != 1 || ct.ForeignKeys[0].ToTable != "t" {
		t.Fatalf("expected 1 table-level foreign key, got %+v", ct.ForeignKeys)
	}
	if len(ct.UniqueSets) != 1 {
		t.Fatalf("expected 1 unique set, got %+v", ct.UniqueSets)
	}
}

func TestParseCreateIndex(t *testing.T) {
	stmt := mustParse(t, "CREATE UNIQUE INDEX idx_t_name ON t (name, id)")
	ci := stmt.CreateIndex
	if !ci.Unique || ci.Table != "t" || len(ci.Columns) != 2 {
		t.Fatalf("unexpected index stmt: %+v", ci)
	}
}

func TestParseCreateView(t *testing.T) {
	stmt := mustParse(t, "CREATE VIEW v AS SELECT a, b FROM t WHERE a > 0")
	cv := stmt.CreateView
	if cv.Name != "v" || cv.Select == nil {
		t.Fatalf("unexpected view stmt: %+v", cv)
	}
}

func TestParseCreateTrigger(t *testing.T) {
	stmt := mustParse(t, `CREATE TRIGGER trg AFTER INSERT ON t FOR EACH ROW BEGIN
		UPDATE u SET n = n + 1 WHERE id = 1;
		DELETE FROM v WHERE x = 1;
	END`)
	trg := stmt.CreateTrig
	if trg.Name != "trg" || trg.Timing != schema.TriggerAfter || trg.Event != schema.TriggerInsert {
		t.Fatalf("unexpected trigger stmt: %+v", trg)
	}
	if !trg.ForEach {
		t.Fatalf("expected FOR EACH ROW")
	}
	if len(trg.Body) != 2 {
		t.Fatalf("expected 2 body statements, got %d: %+v", len(trg.Body), trg.Body)
	}
}

func TestParseDropVariants(t *testing.T) {
	cases := []struct {
		sql  string
		kind StmtKind
	}{
		{"DROP TABLE IF EXISTS t", StmtDropTable},
		{"DROP INDEX idx", StmtDropIndex},
		{"DROP VIEW v", StmtDropView},
		{"DROP TRIGGER trg", StmtDropTrigger},
	}
	for _, c := range cases {
		stmt := mustParse(t, c.sql)
		if stmt.Kind != c.kind {
			t.Errorf("%q: expected kind %v, got %v", c.sql, c.kind, stmt.Kind)
		}
	}
}

func TestParsePragma(t *testing.T) {
	stmt := mustParse(t, "PRAGMA cache_size = 100")
	if stmt.Pragma.Name != "cache_size" || stmt.Pragma.Value == nil {
		t.Fatalf("unexpected pragma stmt: %+v", stmt.Pragma)
	}
}

func TestParseBeginCommitRollback(t *testing.T) {
	for sql, kind := range map[string]StmtKind{
		"BEGIN":              StmtBegin,
		"BEGIN TRANSACTION":  StmtBegin,
		"COMMIT":             StmtCommit,
		"ROLLBACK":           StmtRollback,
	} {
		stmt := mustParse(t, sql)
		if stmt.Kind != kind {
			t.Errorf("%q: expected kind %v, got %v", sql, kind, stmt.Kind)
		}
	}
}
