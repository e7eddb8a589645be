package ddl

import "testing"

func TestCompilePragmaTableInfo(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	_, rows, err := db.exec("PRAGMA table_info(t)")
	if err != nil {
		t.Fatalf("pragma table_info: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 column rows, got %d", len(rows))
	}
	if rows[1][1].Text() != "name" || rows[1][3].Integer() != 1 {
		t.Fatalf("expected row 1 to describe NOT NULL column name, got %v", rows[1])
	}
}

func TestCompilePragmaUserVersionRoundTrips(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("PRAGMA user_version = 42"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_, rows, err := db.exec("PRAGMA user_version")
	if err != nil {
		t.Fatalf("get user_version: %v", err)
	}
	if len(rows) != 1 || rows[0][0].Integer() != 42 {
		t.Fatalf("expected user_version 42, got %v", rows)
	}
}

func TestCompilePragmaUnknownIsNoop(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("PRAGMA encoding"); err != nil {
		t.Fatalf("unknown pragma should be a no-op, got %v", err)
	}
}
