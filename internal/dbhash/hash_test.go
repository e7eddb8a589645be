package dbhash

import "testing"

func TestCaseInsensitive(t *testing.T) {
	m := New[int]()
	m.Set("Foo", 1)
	if v, ok := m.Get("FOO"); !ok || v != 1 {
		t.Fatalf("expected case-insensitive hit, got %v %v", v, ok)
	}
	m.Set("foo", 2)
	if v, _ := m.Get("fOo"); v != 2 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.Len())
	}
	keys := m.Keys()
	if len(keys) != 1 || keys[0] != "Foo" {
		t.Fatalf("expected original casing 'Foo' preserved, got %v", keys)
	}
}

func TestDelete(t *testing.T) {
	m := New[string]()
	m.Set("a", "x")
	m.Delete("A")
	if _, ok := m.Get("a"); ok {
		t.Fatalf("expected deletion")
	}
}
