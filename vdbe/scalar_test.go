package vdbe

import (
	"context"
	"testing"

	"github.com/dbsql/dbsql/internal/value"
)

func TestFuncOpcodeUpper(t *testing.T) {
	prog := NewProgram()
	prog.EmitValue(String, valuePtr(value.NewStaticText("hi")))
	prog.Emit(Func, 1, 0, "upper")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	res, err := v.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res != StepRow || v.ResultRow[0].Text() != "HI" {
		t.Fatalf("expected HI, got res=%v row=%v", res, v.ResultRow)
	}
}

func TestFuncOpcodeLikeWildcards(t *testing.T) {
	prog := NewProgram()
	prog.EmitValue(String, valuePtr(value.NewStaticText("hello world")))
	prog.EmitValue(String, valuePtr(value.NewStaticText("hello%")))
	prog.Emit(Func, 2, 0, "like")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v.ResultRow[0].Integer() != 1 {
		t.Fatalf("expected match, got %v", v.ResultRow[0])
	}
}

func TestFuncOpcodeCoalesceSkipsNulls(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Null, 0, 0, "")
	prog.Emit(Null, 0, 0, "")
	prog.Emit(Integer, 5, 0, "")
	prog.Emit(Func, 3, 0, "coalesce")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v.ResultRow[0].IsNull() || v.ResultRow[0].Integer() != 5 {
		t.Fatalf("expected 5, got %v", v.ResultRow[0])
	}
}

func TestMemStoreAndLoad(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, 9, 0, "")
	prog.Emit(MemStore, 0, 0, "")
	prog.Emit(MemLoad, 0, 0, "")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")
	prog.NumMem = 1

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v.ResultRow[0].Integer() != 9 {
		t.Fatalf("expected 9, got %v", v.ResultRow[0])
	}
}

func TestFuncOpcodeAbs(t *testing.T) {
	prog := NewProgram()
	prog.Emit(Integer, -7, 0, "")
	prog.Emit(Func, 1, 0, "abs")
	prog.Emit(Callback, 1, 0, "")
	prog.Emit(Halt, 0, 0, "")

	v, done := newTestVdbe(t, prog)
	defer done()

	if _, err := v.Step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if v.ResultRow[0].Integer() != 7 {
		t.Fatalf("expected abs(-7) = 7, got %v", v.ResultRow[0])
	}
}
