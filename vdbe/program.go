package vdbe

import (
	"fmt"
	"strings"

	"github.com/dbsql/dbsql/internal/value"
)

// Instr is one VDBE instruction: a 4-tuple of opcode, two integer
// operands and an optional third operand carrying a static/owned payload
// (a string, a pre-built Value, or a parsed sub-structure such as a type
// mask) — spec §3.4's `{opcode, p1, p2, p3}`.
type Instr struct {
	Op Op
	P1 int
	P2 int
	P3 string // string/type-mask payload; most opcodes leave this empty
	P4 *value.Value // literal value payload, for Real/String (Integer reads P1)
}

// Program is a compiled, runnable bytecode sequence (spec §3.4): the flat
// op array, a slot for result-column names (no compiler here fills it;
// ColumnName opcodes stage names at run time in Vdbe.ColumnNameRow), and
// the count of memory cells/cursors/variables the executor
// must allocate.
type Program struct {
	Ops         []Instr
	ColumnNames []string

	NumMem      int
	NumCursors  int
	NumVars     int

	// SchemaSigs records, per attached database index, the schema
	// signature this program was compiled against (spec §5's
	// VerifySchemaSignature re-prepare-on-mismatch rule).
	SchemaSigs map[int]uint32
}

// NewProgram returns an empty Program ready for Emit calls.
func NewProgram() *Program {
	return &Program{SchemaSigs: make(map[int]uint32)}
}

// Emit appends an instruction and returns its index, for later patching
// (e.g. a forward jump target resolved once the loop body is emitted).
func (p *Program) Emit(op Op, p1, p2 int, p3 string) int {
	p.Ops = append(p.Ops, Instr{Op: op, P1: p1, P2: p2, P3: p3})
	return len(p.Ops) - 1
}

// EmitValue appends a literal-bearing instruction (Real/String; Integer
// and Null ignore P4).
func (p *Program) EmitValue(op Op, v *value.Value) int {
	p.Ops = append(p.Ops, Instr{Op: op, P4: v})
	return len(p.Ops) - 1
}

// PatchP2 rewrites an already-emitted instruction's jump target, the
// label-patching idiom spec.md's codegen relies on throughout §4.4/§4.7.
func (p *Program) PatchP2(instrIdx, target int) {
	p.Ops[instrIdx].P2 = target
}

// Here returns the index the next Emit call will land on — the usual
// "resolve this label to here" pattern.
func (p *Program) Here() int { return len(p.Ops) }

// Disassemble renders the program in a human-readable form, one line per
// instruction, grounded on the teacher's query-plan EXPLAIN-style dumps.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for i, instr := range p.Ops {
		fmt.Fprintf(&b, "%4d  %-16s p1=%-6d p2=%-6d", i, instr.Op, instr.P1, instr.P2)
		if instr.P3 != "" {
			fmt.Fprintf(&b, " p3=%q", instr.P3)
		}
		if instr.P4 != nil {
			fmt.Fprintf(&b, " p4=%v", instr.P4)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
