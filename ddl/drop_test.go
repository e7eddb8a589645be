package ddl

import "testing"

func TestCompileDropTableUnlinksTableAndIndices(t *testing.T) {
	db := newTestDB(t)
	setupUsers(t, db)
	if _, _, err := db.exec("DROP TABLE users"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	main := db.cat.ByIndex(0)
	if _, ok := main.Tables.Get("users"); ok {
		t.Fatalf("expected users to be unlinked")
	}
}

func TestCompileDropTableIfExistsIsNoopWhenMissing(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("DROP TABLE IF EXISTS nope"); err != nil {
		t.Fatalf("drop table if exists: %v", err)
	}
}

func TestCompileDropTableMissingErrors(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("DROP TABLE nope"); err == nil {
		t.Fatalf("expected an error dropping a nonexistent table")
	}
}

func TestCompileDropIndexUnlinksFromTable(t *testing.T) {
	db := newTestDB(t)
	setupUsers(t, db)
	main := db.cat.ByIndex(0)
	tbl, _ := main.Tables.Get("users")
	idxName := tbl.Indices[0].Name
	if _, _, err := db.exec("DROP INDEX " + idxName); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if len(tbl.Indices) != 0 {
		t.Fatalf("expected the index to be unlinked from its table, got %d left", len(tbl.Indices))
	}
	if _, ok := main.Indices.Get(idxName); ok {
		t.Fatalf("expected the index to be unlinked from the catalog")
	}
}

func TestCompileDropViewRejectsTableTarget(t *testing.T) {
	db := newTestDB(t)
	setupUsers(t, db)
	if _, _, err := db.exec("DROP VIEW users"); err == nil {
		t.Fatalf("expected DROP VIEW on a base table to fail")
	}
}
