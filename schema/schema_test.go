package schema

import (
	"testing"

	"github.com/dbsql/dbsql/expr"
)

func TestCatalogAttachDetach(t *testing.T) {
	c := NewCatalog(1, 2)
	if c.ByIndex(Main) == nil {
		t.Fatal("main should be attached by default")
	}
	aux := c.Attach("aux1")
	if aux.Index != 2 {
		t.Fatalf("expected aux db at index 2, got %d", aux.Index)
	}
	if c.ByName("aux1") != aux {
		t.Fatal("ByName should find attached db")
	}
	if !c.Detach("aux1") {
		t.Fatal("Detach should succeed")
	}
	if c.ByName("aux1") != nil {
		t.Fatal("detached db should no longer be findable")
	}
}

func TestSignatureStrictlyChanges(t *testing.T) {
	c := NewCatalog(1, 2)
	d := c.ByIndex(Main)
	last := d.Signature
	for i := 0; i < 50; i++ {
		c.ChangeSignature(d)
		if d.Signature == last {
			t.Fatalf("signature did not change on iteration %d", i)
		}
		last = d.Signature
	}
}

func TestTableColumnLifecycle(t *testing.T) {
	tbl := NewTable("t", Main)
	tbl.AddColumn("a")
	tbl.LastColumn().DeclType = "INTEGER"
	tbl.LastColumn().IsPK = true
	tbl.AddColumn("b")
	tbl.LastColumn().DeclType = "TEXT"
	tbl.LastColumn().Sort = SortText

	if idx := tbl.ColumnIndex("B"); idx != 1 {
		t.Fatalf("expected case-insensitive column lookup, got %d", idx)
	}
	if tbl.IsView() {
		t.Fatal("table with no Select should not be a view")
	}
}

func TestViewInvalidation(t *testing.T) {
	c := NewCatalog(1, 2)
	d := c.ByIndex(Main)
	base := NewTable("base", Main)
	d.Tables.Set("base", base)

	view := NewTable("v", Main)
	view.Select = &expr.Select{From: []expr.SrcItem{{Table: "base"}}}
	view.ViewColumnsCached = true
	d.Tables.Set("v", view)

	d.InvalidateViewsReferencing("base")
	if view.ViewColumnsCached {
		t.Fatal("view column cache should be cleared when its base table changes")
	}
	if !d.HasFlag(UnresetViews) {
		t.Fatal("UnresetViews flag should be set")
	}
}
