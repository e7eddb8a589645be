package ddl

import (
	"testing"

	"github.com/dbsql/dbsql/internal/value"
)

func TestCompileUpdateRewritesRowAndIndexEntry(t *testing.T) {
	db := newTestDB(t)
	setupUsers(t, db)
	if _, _, err := db.exec("INSERT INTO users (id, name) VALUES (1, 'ann')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := db.exec("UPDATE users SET name = 'annie' WHERE id = 1"); err != nil {
		t.Fatalf("update: %v", err)
	}

	main := db.cat.ByIndex(0)
	tbl, _ := main.Tables.Get("users")
	cur, err := db.h.Cursor(db.ctx, tbl.RootPage, false)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	defer cur.Close()
	ok, err := cur.First(db.ctx)
	if err != nil || !ok {
		t.Fatalf("expected the row to still exist, ok=%v err=%v", ok, err)
	}
	sz, err := cur.DataSize(db.ctx)
	if err != nil {
		t.Fatalf("data size: %v", err)
	}
	data, err := cur.Data(db.ctx, 0, sz)
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	name := value.Column(data, 2, 1)
	if name.Text() != "annie" {
		t.Fatalf("expected name to be updated to annie, got %v", name)
	}

	idx := tbl.Indices[0]
	idxCur, err := db.h.Cursor(db.ctx, idx.RootPage, false)
	if err != nil {
		t.Fatalf("index cursor: %v", err)
	}
	defer idxCur.Close()
	n := 0
	iok, _ := idxCur.First(db.ctx)
	for iok {
		n++
		iok, _ = idxCur.Next(db.ctx)
	}
	if n != 1 {
		t.Fatalf("expected exactly one (rebuilt) index entry, got %d", n)
	}
}

func TestCompileUpdateOfRowidColumnIsRejected(t *testing.T) {
	db := newTestDB(t)
	setupUsers(t, db)
	if _, _, err := db.exec("INSERT INTO users (id, name) VALUES (1, 'ann')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := db.exec("UPDATE users SET id = 2 WHERE id = 1"); err == nil {
		t.Fatalf("expected updating the rowid-alias column to be rejected")
	}
}
