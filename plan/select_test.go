package plan

import (
	"testing"

	"github.com/dbsql/dbsql/expr"
)

func TestCompileSimpleScanAndFilter(t *testing.T) {
	db := newTestDB(t)
	users := db.table("users", map[string]bool{"name": true}, "id", "name")
	db.insert(users, 1, intVal(1), textVal("ann"))
	db.insert(users, 2, intVal(2), textVal("bob"))

	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("name")}},
		Where:         expr.NewBinary(expr.OpGt, expr.NewId("id"), expr.NewLiteral(expr.OpInt, "1")),
	}
	names, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(names) != 1 || names[0] != "name" {
		t.Fatalf("expected [name], got %v", names)
	}
	if len(rows) != 1 || rows[0][0].Text() != "bob" {
		t.Fatalf("expected one row [bob], got %v", rows)
	}
}

func TestCompileInnerJoin(t *testing.T) {
	db := newTestDB(t)
	users := db.table("users", nil, "id")
	orders := db.table("orders", nil, "id", "user_id")
	db.insert(users, 1, intVal(1))
	db.insert(users, 2, intVal(2))
	db.insert(orders, 1, intVal(1), intVal(1))
	db.insert(orders, 2, intVal(2), intVal(2))

	sel := &expr.Select{
		From: []expr.SrcItem{
			{Table: "users"},
			{Table: "orders", On: expr.NewBinary(expr.OpEq, expr.NewDot("", "users", "id"), expr.NewDot("", "orders", "user_id"))},
		},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewDot("", "orders", "id")}},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 joined rows, got %d: %v", len(rows), rows)
	}
}

func TestCompileLeftOuterJoinProducesNullRow(t *testing.T) {
	db := newTestDB(t)
	users := db.table("users", nil, "id")
	orders := db.table("orders", nil, "id", "user_id")
	db.insert(users, 1, intVal(1))
	db.insert(users, 2, intVal(2))
	db.insert(orders, 1, intVal(1), intVal(1))

	sel := &expr.Select{
		From: []expr.SrcItem{
			{Table: "users"},
			{Table: "orders", Join: expr.JoinLeftOuter, On: expr.NewBinary(expr.OpEq, expr.NewDot("", "users", "id"), expr.NewDot("", "orders", "user_id"))},
		},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewDot("", "users", "id")},
			{Expr: expr.NewDot("", "orders", "id")},
		},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (one matched, one null-padded), got %d: %v", len(rows), rows)
	}
	var sawNull bool
	for _, row := range rows {
		if row[0].Integer() == 2 && row[1].IsNull() {
			sawNull = true
		}
	}
	if !sawNull {
		t.Fatalf("expected the unmatched user to produce a NULL orders.id, got %v", rows)
	}
}

func TestCompileAggregateGroupBy(t *testing.T) {
	db := newTestDB(t)
	sales := db.table("sales", map[string]bool{"region": true}, "region", "amount")
	db.insert(sales, 1, textVal("east"), intVal(10))
	db.insert(sales, 2, textVal("east"), intVal(20))
	db.insert(sales, 3, textVal("west"), intVal(5))

	sel := &expr.Select{
		From: []expr.SrcItem{{Table: "sales"}},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewId("region")},
			{Expr: expr.NewFunction("sum", []*expr.Expr{expr.NewId("amount")})},
		},
		GroupBy: []*expr.Expr{expr.NewId("region")},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d: %v", len(rows), rows)
	}
	totals := map[string]int64{}
	for _, row := range rows {
		totals[row[0].Text()] = row[1].Integer()
	}
	if totals["east"] != 30 || totals["west"] != 5 {
		t.Fatalf("expected east=30 west=5, got %v", totals)
	}
}

func TestCompileAggregateHaving(t *testing.T) {
	db := newTestDB(t)
	sales := db.table("sales", map[string]bool{"region": true}, "region", "amount")
	db.insert(sales, 1, textVal("east"), intVal(10))
	db.insert(sales, 2, textVal("east"), intVal(20))
	db.insert(sales, 3, textVal("west"), intVal(5))

	sel := &expr.Select{
		From: []expr.SrcItem{{Table: "sales"}},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewId("region")},
			{Expr: expr.NewFunction("sum", []*expr.Expr{expr.NewId("amount")})},
		},
		GroupBy: []*expr.Expr{expr.NewId("region")},
		Having:  expr.NewBinary(expr.OpGt, expr.NewFunction("sum", []*expr.Expr{expr.NewId("amount")}), expr.NewLiteral(expr.OpInt, "15")),
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 1 || rows[0][0].Text() != "east" {
		t.Fatalf("expected only east to survive HAVING sum > 15, got %v", rows)
	}
}

func TestCompileOrderBy(t *testing.T) {
	db := newTestDB(t)
	t1 := db.table("t", nil, "n")
	db.insert(t1, 1, intVal(3))
	db.insert(t1, 2, intVal(1))
	db.insert(t1, 3, intVal(2))

	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "t"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
		OrderBy:       []expr.OrderingTerm{{Expr: expr.NewId("n")}},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []int64{1, 2, 3} {
		if rows[i][0].Integer() != want {
			t.Fatalf("row %d: expected %d, got %v", i, want, rows[i][0])
		}
	}
}

func TestCompileOrderByWithLimitOffset(t *testing.T) {
	db := newTestDB(t)
	t1 := db.table("t", nil, "n")
	for i, n := range []int64{5, 3, 1, 4, 2} {
		db.insert(t1, int64(i+1), intVal(n))
	}

	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "t"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
		OrderBy:       []expr.OrderingTerm{{Expr: expr.NewId("n")}},
		Limit:         expr.NewLiteral(expr.OpInt, "2"),
		Offset:        expr.NewLiteral(expr.OpInt, "1"),
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Sorted order is 1,2,3,4,5; OFFSET 1 skips the 1, LIMIT 2 keeps 2,3 —
	// this only passes if LIMIT/OFFSET gate the post-sort drain rather
	// than the scan (which visits rows in insertion order: 5,3,1,4,2).
	if len(rows) != 2 || rows[0][0].Integer() != 2 || rows[1][0].Integer() != 3 {
		t.Fatalf("expected [2,3] after sorted OFFSET/LIMIT, got %v", rows)
	}
}

func TestCompileLimitOffsetWithoutOrderBy(t *testing.T) {
	db := newTestDB(t)
	t1 := db.table("t", nil, "n")
	for i := int64(1); i <= 5; i++ {
		db.insert(t1, i, intVal(i))
	}

	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "t"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
		Limit:         expr.NewLiteral(expr.OpInt, "2"),
		Offset:        expr.NewLiteral(expr.OpInt, "2"),
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 || rows[0][0].Integer() != 3 || rows[1][0].Integer() != 4 {
		t.Fatalf("expected [3,4], got %v", rows)
	}
}

func TestCompileDistinct(t *testing.T) {
	db := newTestDB(t)
	t1 := db.table("t", map[string]bool{"v": true}, "v")
	db.insert(t1, 1, textVal("a"))
	db.insert(t1, 2, textVal("a"))
	db.insert(t1, 3, textVal("b"))

	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "t"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("v")}},
		Distinct:      true,
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 distinct values, got %d: %v", len(rows), rows)
	}
}

func TestCompileUnionAllKeepsDuplicates(t *testing.T) {
	db := newTestDB(t)
	a := db.table("a", nil, "n")
	b := db.table("b", nil, "n")
	db.insert(a, 1, intVal(1))
	db.insert(b, 1, intVal(1))

	left := &expr.Select{
		From:          []expr.SrcItem{{Table: "a"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
	}
	right := &expr.Select{
		From:          []expr.SrcItem{{Table: "b"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
		Op:            expr.CompoundUnionAll,
		Prior:         left,
	}
	_, rows, err := db.run(right)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("UNION ALL must keep duplicates, expected 2 rows, got %d", len(rows))
	}
}

func TestCompileUnionDedups(t *testing.T) {
	db := newTestDB(t)
	a := db.table("a", nil, "n")
	b := db.table("b", nil, "n")
	db.insert(a, 1, intVal(1))
	db.insert(a, 2, intVal(2))
	db.insert(b, 1, intVal(2))
	db.insert(b, 2, intVal(3))

	left := &expr.Select{
		From:          []expr.SrcItem{{Table: "a"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
	}
	right := &expr.Select{
		From:          []expr.SrcItem{{Table: "b"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
		Op:            expr.CompoundUnion,
		Prior:         left,
	}
	_, rows, err := db.run(right)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("UNION must dedup the shared value 2, expected 3 rows, got %d: %v", len(rows), rows)
	}
}

func TestCompileInSubquery(t *testing.T) {
	db := newTestDB(t)
	users := db.table("users", nil, "id")
	orders := db.table("orders", nil, "user_id")
	db.insert(users, 1, intVal(1))
	db.insert(users, 2, intVal(2))
	db.insert(orders, 1, intVal(1))

	sub := &expr.Select{
		From:          []expr.SrcItem{{Table: "orders"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("user_id")}},
	}
	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("id")}},
		Where:         &expr.Expr{Op: expr.OpInSelect, Left: expr.NewId("id"), Select: sub},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 1 || rows[0][0].Integer() != 1 {
		t.Fatalf("expected only user 1 (who has an order), got %v", rows)
	}
}

func TestCompileExists(t *testing.T) {
	db := newTestDB(t)
	users := db.table("users", nil, "id")
	orders := db.table("orders", nil, "user_id")
	db.insert(users, 1, intVal(1))
	db.insert(users, 2, intVal(2))
	db.insert(orders, 1, intVal(1))

	sub := &expr.Select{
		From:          []expr.SrcItem{{Table: "orders"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("user_id")}},
		Where:         expr.NewBinary(expr.OpEq, expr.NewDot("", "orders", "user_id"), expr.NewDot("", "users", "id")),
	}
	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("id")}},
		Where:         &expr.Expr{Op: expr.OpExists, Select: sub},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 1 || rows[0][0].Integer() != 1 {
		t.Fatalf("expected only user 1 to have a matching order, got %v", rows)
	}
}

func TestCompileFromSubquery(t *testing.T) {
	db := newTestDB(t)
	t1 := db.table("t", nil, "n")
	db.insert(t1, 1, intVal(1))
	db.insert(t1, 2, intVal(2))
	db.insert(t1, 3, intVal(3))

	sub := &expr.Select{
		From:          []expr.SrcItem{{Table: "t"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
		Where:         expr.NewBinary(expr.OpGt, expr.NewId("n"), expr.NewLiteral(expr.OpInt, "1")),
	}
	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "derived", Subquery: sub}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("n")}},
	}
	_, rows, err := db.run(sel)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from the materialized subquery, got %d: %v", len(rows), rows)
	}
}
