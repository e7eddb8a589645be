package ddl

import "testing"

func TestCompileCreateTableRegistersRootPage(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT UNIQUE)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	main := db.cat.ByIndex(0)
	tbl, ok := main.Tables.Get("users")
	if !ok {
		t.Fatalf("users not registered")
	}
	if tbl.RootPage == 0 {
		t.Fatalf("expected a nonzero root page, got 0")
	}
	if tbl.IPKey != 0 {
		t.Fatalf("expected id to be the rowid alias, got IPKey=%d", tbl.IPKey)
	}
	if len(tbl.Indices) != 1 {
		t.Fatalf("expected one auto-created unique index, got %d", len(tbl.Indices))
	}
	if tbl.Indices[0].RootPage == 0 {
		t.Fatalf("auto-index never got a root page")
	}
}

func TestCompileCreateTableIfNotExistsIsNoop(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("CREATE TABLE t (a INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := db.exec("CREATE TABLE IF NOT EXISTS t (a INTEGER)"); err != nil {
		t.Fatalf("create if not exists: %v", err)
	}
}

func TestCompileCreateTableDuplicateErrors(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("CREATE TABLE t (a INTEGER)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := db.exec("CREATE TABLE t (a INTEGER)"); err == nil {
		t.Fatalf("expected duplicate-table error")
	}
}

func TestCompileCreateIndexBackfillsExistingRows(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, _, err := db.exec("INSERT INTO t (id, name) VALUES (1, 'ann'), (2, 'bob')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, err := db.exec("CREATE INDEX idx_name ON t (name)"); err != nil {
		t.Fatalf("create index: %v", err)
	}
	main := db.cat.ByIndex(0)
	idx, ok := main.Indices.Get("idx_name")
	if !ok {
		t.Fatalf("idx_name not registered")
	}
	if idx.RootPage == 0 {
		t.Fatalf("index never got a root page")
	}
}

func TestCompileCreateViewAndTrigger(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, _, err := db.exec("CREATE VIEW v AS SELECT id, name FROM t"); err != nil {
		t.Fatalf("create view: %v", err)
	}
	main := db.cat.ByIndex(0)
	view, ok := main.Tables.Get("v")
	if !ok || !view.IsView() {
		t.Fatalf("v not registered as a view")
	}

	sql := `CREATE TRIGGER trg AFTER INSERT ON t FOR EACH ROW BEGIN
		UPDATE t SET name = name WHERE id = 1;
	END`
	if _, _, err := db.exec(sql); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	if _, ok := main.Triggers.Get("trg"); !ok {
		t.Fatalf("trg not registered")
	}
}
