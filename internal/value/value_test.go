package value

import "testing"

func TestCoercion(t *testing.T) {
	cases := []struct {
		v    Value
		i    int64
		r    float64
		text string
	}{
		{NewInt(42), 42, 42, "42"},
		{NewReal(3.5), 3, 3.5, "3.5"},
		{NewDynamicText("17abc"), 17, 17, "17abc"},
		{NewDynamicText("abc"), 0, 0, "abc"},
		{NewNull(), 0, 0, ""},
	}
	for _, c := range cases {
		if got := c.v.Integer(); got != c.i {
			t.Errorf("Integer(%v) = %d, want %d", c.v, got, c.i)
		}
		if got := c.v.Real(); got != c.r {
			t.Errorf("Real(%v) = %v, want %v", c.v, got, c.r)
		}
		if got := c.v.Text(); got != c.text {
			t.Errorf("Text(%v) = %q, want %q", c.v, got, c.text)
		}
	}
}

func TestStringSubtypeInvariant(t *testing.T) {
	vals := []Value{
		NewStaticText("x"),
		NewDynamicText("a long string that does not fit inline at all"),
		NewEphemeralText("y"),
		NewDynamicText("short"),
	}
	for _, v := range vals {
		if !v.IsStr() {
			t.Fatalf("expected Str flag set")
		}
		sub := v.StrSubtype()
		count := 0
		for _, f := range []Flag{Static, Dynamic, Ephemeral, Inline} {
			if sub&f != 0 {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected exactly one string subtype flag, got %d for %q", count, v.Text())
		}
	}
}

func TestNullPropagation(t *testing.T) {
	_, ok := Compare(NewNull(), NewInt(1), true)
	if ok {
		t.Fatal("Compare involving Null should report ok=false")
	}
}

func TestClone(t *testing.T) {
	orig := NewEphemeralText("borrowed")
	clone := orig.Clone()
	if clone.StrSubtype()&(Dynamic|Inline) == 0 {
		t.Fatalf("Clone should force owned storage, got flags %v", clone.StrSubtype())
	}
	if clone.Text() != "borrowed" {
		t.Fatalf("Clone changed value: %q", clone.Text())
	}
}
