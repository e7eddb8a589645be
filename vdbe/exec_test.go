package vdbe

import (
	"context"
	"testing"

	"github.com/dbsql/dbsql/internal/dbrand"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/storage/memstore"
)

func newTestVdbe(t *testing.T, prog *Program) (*Vdbe, func()) {
	t.Helper()
	env := memstore.NewEnv()
	h, err := env.Create(context.Background(), ":memory:", false, false)
	if err != nil {
		t.Fatalf("create handle: %v", err)
	}
	v := New(prog, h, nil, dbrand.New(1, 2))
	return v, func() { _ = v.Finalize() }
}

func TestTextOpcodeInvariant(t *testing.T) {
	pairs := []struct{ numeric, text Op }{
		{Eq, StrEq}, {Ne, StrNe}, {Lt, StrLt}, {Le, StrLe}, {Gt, StrGt}, {Ge, StrGe},
	}
	for _, p := range pairs {
		if got := TextOpcode(p.numeric); got != p.text {
			t.Errorf("TextOpcode(%s) = %s, want %s", p.numeric, got, p.text)
		}
		if int(p.text)-int(p.numeric) != 6 {
			t.Errorf("%s - %s = %d, want 6", p.text, p.numeric, int(p.text)-int(p.numeric))
		}
	}
}

func TestArithmeticAndIntegerAdd(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, 2, 0, "")
	prog.Emit(Integer, 3, 0, "")
	prog.Emit(Add, 0, 0, "")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")
	prog.NumMem = 0
	prog.NumCursors = 0

	v, done := newTestVdbe(t, prog)
	defer done()

	res, err := v.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res != StepRow {
		t.Fatalf("expected StepRow, got %v", res)
	}
	if len(v.ResultRow) != 1 || v.ResultRow[0].Integer() != 5 {
		t.Fatalf("expected [5], got %v", v.ResultRow)
	}
}

func TestDivideByZeroYieldsNull(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, 10, 0, "")
	prog.Emit(Integer, 0, 0, "")
	prog.Emit(Divide, 0, 0, "")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !v.ResultRow[0].IsNull() {
		t.Fatalf("expected NULL from divide by zero, got %v", v.ResultRow[0])
	}
}

func TestThreeValuedAnd(t *testing.T) {
	// FALSE AND NULL must be FALSE, not NULL.
	prog := NewProgram()
	prog.Emit(Integer, 0, 0, "")
	prog.Emit(Null, 0, 0, "")
	prog.Emit(And, 0, 0, "")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v.ResultRow[0].IsNull() || v.ResultRow[0].Integer() != 0 {
		t.Fatalf("expected FALSE, got %v", v.ResultRow[0])
	}
}

func TestGotoAndIf(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, 1, 0, "")     // 0
	prog.Emit(If, 0, 3, "")          // 1: jump to 3 if true
	prog.Emit(Integer, 99, 0, "")    // 2 (skipped)
	prog.Emit(Integer, 7, 0, "")     // 3
	prog.Emit(Callback, 1, 0, "")    // 4
	prog.Emit(Halt, 0, 0, "")        // 5

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v.ResultRow[0].Integer() != 7 {
		t.Fatalf("expected 7, got %v", v.ResultRow[0])
	}
}

func TestMultiRowCallbackSuspendsAndResumes(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, 1, 0, "")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Integer, 2, 0, "")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	ctx := context.Background()
	res, err := v.Step(ctx)
	if err != nil || res != StepRow || v.ResultRow[0].Integer() != 1 {
		t.Fatalf("first step: res=%v err=%v row=%v", res, err, v.ResultRow)
	}
	res, err = v.Step(ctx)
	if err != nil || res != StepRow || v.ResultRow[0].Integer() != 2 {
		t.Fatalf("second step: res=%v err=%v row=%v", res, err, v.ResultRow)
	}
	res, err = v.Step(ctx)
	if err != nil || res != StepDone {
		t.Fatalf("third step: res=%v err=%v", res, err)
	}
}

func TestMakeRecordThenColumnViaPseudoCursor(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, 42, 0, "")
	prog.EmitValue(String, valuePtr(value.NewStaticText("hi")))
	prog.Emit(MakeRecord, 2, 0, "")
	prog.Emit(Column, 0, 1, "2")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	ctx := context.Background()
	// Run the first three opcodes (build the record, leaving it on the
	// stack), stash it as cursor 0's pseudo row, then let Step carry on
	// from Column onward.
	for v.PC < 3 {
		if _, err := v.exec1(ctx, v.Program.Ops[v.PC]); err != nil {
			t.Fatalf("exec1: %v", err)
		}
	}
	rec := v.pop()
	v.setCursor(0, &Cursor{IsPseudo: true, PseudoData: []byte(rec.Text())})

	res, err := v.Step(ctx)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res != StepRow || v.ResultRow[0].Text() != "hi" {
		t.Fatalf("expected column 1 = hi, got res=%v row=%v", res, v.ResultRow)
	}
}

func TestAggregatorGroupsByKey(t *testing.T) {
	var agg Aggregator
	agg.Reset(1)

	agg.Focus([]byte("groupA"))
	agg.Set(0, value.NewInt(1))
	agg.Focus([]byte("groupB"))
	agg.Set(0, value.NewInt(1))
	found := agg.Focus([]byte("groupA"))
	if !found {
		t.Fatalf("expected groupA to already exist")
	}
	agg.Set(0, value.NewInt(agg.Get(0).Integer()+1))

	count := 0
	for {
		ok, _ := agg.Next()
		if !ok {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 groups, got %d", count)
	}
}

func TestSetMembership(t *testing.T) {
	var sets SetTable
	sets.Insert(0, []byte("x"))
	sets.Insert(0, []byte("y"))
	if !sets.Found(0, []byte("x")) {
		t.Fatalf("expected x to be a member")
	}
	if sets.Found(0, []byte("z")) {
		t.Fatalf("expected z to not be a member")
	}
}

func TestSorterOrdersByKey(t *testing.T) {
	var s Sorter
	s.Put([]byte("b"), []byte("second"))
	s.Put([]byte("a"), []byte("first"))
	s.Sort()

	_, rec, ok := s.Current()
	if !ok || string(rec) != "first" {
		t.Fatalf("expected first row to sort before second, got %q", rec)
	}
	if !s.Next() {
		t.Fatalf("expected a second row")
	}
	_, rec, ok = s.Current()
	if !ok || string(rec) != "second" {
		t.Fatalf("expected second row, got %q", rec)
	}
}

func TestKeylistStackPushPop(t *testing.T) {
	var k KeylistStack
	k.Write(1)
	k.Write(2)
	k.Push()
	k.Write(100)
	if got, ok := k.Read(); !ok || got != 100 {
		t.Fatalf("expected inner keylist to read 100 first, got %d ok=%v", got, ok)
	}
	k.Pop()
	k.Rewind()
	if got, ok := k.Read(); !ok || got != 1 {
		t.Fatalf("expected outer keylist to resume at 1, got %d ok=%v", got, ok)
	}
}

func valuePtr(v value.Value) *value.Value { return &v }
