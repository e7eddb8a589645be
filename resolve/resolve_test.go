package resolve

import (
	"testing"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/schema"
)

func newTestCatalog() *schema.Catalog {
	c := schema.NewCatalog(1, 2)
	d := c.ByIndex(schema.Main)

	t1 := schema.NewTable("users", schema.Main)
	t1.AddColumn("id").Sort = schema.SortNumeric
	t1.AddColumn("name").Sort = schema.SortText
	d.Tables.Set("users", t1)

	t2 := schema.NewTable("orders", schema.Main)
	t2.AddColumn("id").Sort = schema.SortNumeric
	t2.AddColumn("user_id").Sort = schema.SortNumeric
	d.Tables.Set("orders", t2)

	return c
}

func newResolver(c *schema.Catalog) *Resolver {
	cur, mem := 0, 0
	return &Resolver{Catalog: c, NextCursor: &cur, NextMemory: &mem}
}

func testFuncs() FuncTable {
	return FuncTable{
		"count": {Name: "count", MinArgs: 0, MaxArgs: 1, IsAgg: true, Returns: expr.Numeric},
		"upper": {Name: "upper", MinArgs: 1, MaxArgs: 1, IsAgg: false, Returns: expr.Text},
	}
}

func TestResolveSimpleColumn(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("name")}},
	}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	col := sel.ResultColumns[0].Expr
	if col.Op != expr.OpColumn || col.IColumn != 1 {
		t.Fatalf("expected name to resolve to column 1, got op=%v col=%d", col.Op, col.IColumn)
	}
	if col.DataType != expr.Text {
		t.Fatalf("expected text affinity for name, got %v", col.DataType)
	}
}

func TestResolveAmbiguousColumn(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "users"}, {Table: "orders"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("id")}},
	}
	_, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs())
	if err == nil {
		t.Fatal("expected ambiguous column error")
	}
}

func TestResolveQualifiedColumn(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From: []expr.SrcItem{{Table: "users"}, {Table: "orders"}},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewDot("", "orders", "user_id")},
		},
		Where: expr.NewBinary(expr.OpEq, expr.NewDot("", "users", "id"), expr.NewDot("", "orders", "user_id")),
	}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	where := sel.Where
	if where.Left.Op != expr.OpColumn || where.Right.Op != expr.OpColumn {
		t.Fatal("expected both sides of join predicate to resolve")
	}
}

func TestResolveOrderByAlias(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From: []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewId("name"), Alias: "n"},
		},
		OrderBy: []expr.OrderingTerm{{Expr: expr.NewId("n")}},
	}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.OrderBy[0].Expr.Op != expr.OpAs {
		t.Fatalf("expected ORDER BY alias to rewrite to OpAs, got %v", sel.OrderBy[0].Expr.Op)
	}
}

func TestResolveNoSuchColumn(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From:          []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{{Expr: expr.NewId("bogus")}},
	}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err == nil {
		t.Fatal("expected no-such-column error")
	}
}

func TestCheckTypesAggregateTagging(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From: []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewFunction("count", []*expr.Expr{expr.NewId("id")})},
		},
	}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.ResultColumns[0].Expr.Op != expr.OpAggFunction {
		t.Fatalf("expected count(...) to be tagged as aggregate, got %v", sel.ResultColumns[0].Expr.Op)
	}
	if !sel.IsAgg {
		t.Fatal("expected select to be marked aggregating")
	}
}

func TestCheckTypesArityError(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	sel := &expr.Select{
		From: []expr.SrcItem{{Table: "users"}},
		ResultColumns: []expr.ResultColumn{
			{Expr: expr.NewFunction("upper", []*expr.Expr{expr.NewId("name"), expr.NewId("id")})},
		},
	}
	if _, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs()); err == nil {
		t.Fatal("expected arity error for upper(name, id)")
	}
}

func TestResolveInListRejectsNonConstant(t *testing.T) {
	c := newTestCatalog()
	r := newResolver(c)
	in := &expr.Expr{Op: expr.OpInList, Left: expr.NewId("id"), List: []*expr.Expr{expr.NewId("name")}}
	scope := &Scope{}
	sel := &expr.Select{From: []expr.SrcItem{{Table: "users"}}}
	s, err := r.ResolveSelect(schema.Main, sel, nil, testFuncs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scope = s
	if err := r.ResolveIDs(scope, in); err == nil {
		t.Fatal("expected non-constant IN list element to be rejected")
	}
}
