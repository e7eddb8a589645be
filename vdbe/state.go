package vdbe

import (
	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/internal/dbrand"
	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/storage"
)

// RunState is the executor's coarse run state (spec §5: IDLE before the
// first Step, RUN while stepping, HALT/ERROR once Halt has fired).
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateHalt
	StateError
)

// StepResult is what one Step call produced, driving the caller's loop
// (spec §5: a statement suspends on Callback with DBSQL_ROW and resumes on
// the next Step).
type StepResult int

const (
	StepDone StepResult = iota
	StepRow
	StepError
)

// Vdbe is one prepared statement's bytecode interpreter instance: the
// register file, the return-address stack for Gosub/Return, the cursor
// table, and the statement-scoped Keylist/Sorter/Aggregator/Set state
// (spec §3.4, §3.5).
type Vdbe struct {
	Program *Program

	Mem  []value.Value
	Vars []value.Value

	Stack []value.Value

	Cursors []*Cursor

	// ReturnStack holds PC+1 for every outstanding Gosub, popped by Return
	// (spec §4.5 Control: "Gosub pushes return addr" / "Return pops it").
	ReturnStack []int

	PC    int
	State RunState

	Keylists   KeylistStack
	Sorter     Sorter
	Aggregator Aggregator
	Sets       SetTable

	Storage storage.Handle
	Auth    authorizer.Hook
	Rand    *dbrand.Source

	// LastError holds the error that moved State to StateError, so a
	// caller inspecting a halted Vdbe after the fact can retrieve it.
	LastError error

	// ResultRow is populated immediately before a Callback opcode returns
	// StepRow, and read by the caller before the next Step call.
	ResultRow []value.Value

	// ColumnNameRow holds names staged by ColumnName, surfaced alongside
	// the first ResultRow.
	ColumnNameRow []string
}

// New allocates a Vdbe ready to run prog against storage h.
func New(prog *Program, h storage.Handle, auth authorizer.Hook, rand *dbrand.Source) *Vdbe {
	v := &Vdbe{
		Program: prog,
		Mem:     make([]value.Value, prog.NumMem),
		Vars:    make([]value.Value, prog.NumVars),
		Cursors: make([]*Cursor, prog.NumCursors),
		Storage: h,
		Auth:    auth,
		Rand:    rand,
		State:   StateIdle,
	}
	return v
}

// Reset rewinds PC and run state so the statement can be re-run with
// possibly-rebound variables, without re-allocating cursors (spec §6.1's
// "statement reuse across a transaction" discipline).
func (v *Vdbe) Reset() {
	v.PC = 0
	v.State = StateIdle
	v.Stack = v.Stack[:0]
	v.ReturnStack = v.ReturnStack[:0]
	v.LastError = nil
	v.ResultRow = nil
	for i := range v.Mem {
		v.Mem[i] = value.NewNull()
	}
	v.Keylists.Reset()
	v.Sorter.Reset()
	v.Aggregator.Reset(v.Aggregator.nCols)
}

// Finalize closes every open cursor (spec §6.1 cursor lifecycle: a
// statement's cursors close when the statement is finalized, regardless of
// how execution ended).
func (v *Vdbe) Finalize() error {
	var first error
	for _, c := range v.Cursors {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// push/pop/top implement the stack-machine register discipline most
// opcodes share (spec §3.4's evaluation stack).
func (v *Vdbe) push(val value.Value) { v.Stack = append(v.Stack, val) }

func (v *Vdbe) pop() value.Value {
	n := len(v.Stack)
	val := v.Stack[n-1]
	v.Stack = v.Stack[:n-1]
	return val
}

func (v *Vdbe) popN(n int) []value.Value {
	start := len(v.Stack) - n
	out := append([]value.Value(nil), v.Stack[start:]...)
	v.Stack = v.Stack[:start]
	return out
}

func (v *Vdbe) top() value.Value { return v.Stack[len(v.Stack)-1] }
