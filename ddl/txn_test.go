package ddl

import "testing"

func TestCompileBeginCommitRollback(t *testing.T) {
	db := newTestDB(t)
	if _, _, err := db.exec("BEGIN"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, _, err := db.exec("COMMIT"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, _, err := db.exec("BEGIN TRANSACTION"); err != nil {
		t.Fatalf("begin transaction: %v", err)
	}
	if _, _, err := db.exec("ROLLBACK"); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}
