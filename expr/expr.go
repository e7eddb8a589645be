// Package expr defines the SQL expression and SELECT statement trees built
// by the parser's semantic actions (spec §3.3, §4.1). It has no dependency
// on the schema cache: resolution against live schema objects happens in
// package resolve, and execution happens in package plan/vdbe. Node
// shapes are grounded on the teacher's parser/expr.go operator tagging and
// schema/ast.go's use of optional pointer fields.
package expr

// Op tags an expression node. Names mirror the opaque TK_* tokens spec.md
// treats the (external) tokenizer as producing.
type Op int

const (
	OpNull Op = iota
	OpInt
	OpReal
	OpString
	OpVariable // ?N bind parameter
	OpId       // bare identifier, pre-resolution
	OpDot      // a.b or a.b.c, pre-resolution
	OpColumn   // resolved column reference (iTable, iColumn set)
	OpAs       // aliases a result-set expression (ORDER BY alias support)

	OpAnd
	OpOr
	OpNot

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpConcat
	OpNeg
	OpBitNot

	OpIsNull
	OpNotNull

	OpFunction
	OpAggFunction // tagged by CheckTypes once a function name resolves as aggregate

	OpInList     // expr IN (expr, expr, ...)
	OpInSelect   // expr IN (SELECT ...)
	OpExists     // EXISTS (SELECT ...)
	OpSelectExpr // scalar subquery, (SELECT ...)

	OpCase
)

// DataType classifies an expression's inferred SQL type (spec §4.3).
type DataType int

const (
	Numeric DataType = iota
	Text
)

// Expr is an expression tree node. A node exclusively owns Left/Right/List;
// duplication (e.g. CREATE VIEW keeping its SELECT) must deep-clone via Clone.
type Expr struct {
	Op Op

	Left  *Expr
	Right *Expr
	List  []*Expr // function args, IN-list, CASE branches

	Select *Select // subquery for OpInSelect/OpExists/OpSelectExpr

	Token string // source text for literals/identifiers/function names
	Span  string // full source span, for error messages

	// Filled in by resolve.ResolveIDs once this node is a resolved column
	// reference (OpColumn) or a bound aggregate (OpAggFunction).
	ITable  int // cursor index, or -1 if unresolved
	IColumn int // column index, or -1 for rowid
	IAgg    int // index into the enclosing select's aggregate-info array

	DataType DataType

	// For OpDot with three parts (db.table.col), Token holds "col" and
	// these carry the qualifiers during pre-resolution.
	Qualifier1 string // database, for db.table.col
	Qualifier2 string // table, for table.col or db.table.col

	VarIndex int // for OpVariable: the ?N slot, 1-based
}

// NewLiteral constructs a literal node from a source token.
func NewLiteral(op Op, token string) *Expr {
	return &Expr{Op: op, Token: token, ITable: -1, IColumn: -1}
}

// NewBinary constructs a binary expression node.
func NewBinary(op Op, left, right *Expr) *Expr {
	return &Expr{Op: op, Left: left, Right: right, ITable: -1, IColumn: -1}
}

// NewUnary constructs a unary expression node.
func NewUnary(op Op, operand *Expr) *Expr {
	return &Expr{Op: op, Left: operand, ITable: -1, IColumn: -1}
}

// NewId constructs a pre-resolution bare identifier node.
func NewId(name string) *Expr {
	return &Expr{Op: OpId, Token: name, ITable: -1, IColumn: -1}
}

// NewDot constructs a pre-resolution qualified identifier: table.col or
// db.table.col.
func NewDot(qualifier1, qualifier2, name string) *Expr {
	return &Expr{Op: OpDot, Token: name, Qualifier1: qualifier1, Qualifier2: qualifier2, ITable: -1, IColumn: -1}
}

// NewFunction constructs a function-call node.
func NewFunction(name string, args []*Expr) *Expr {
	return &Expr{Op: OpFunction, Token: name, List: args, ITable: -1, IColumn: -1}
}

// NewVariable constructs a ?N bind-parameter node.
func NewVariable(idx int) *Expr {
	return &Expr{Op: OpVariable, VarIndex: idx, ITable: -1, IColumn: -1}
}

// Clone deep-copies an expression tree (CREATE VIEW stores a clone of its
// defining SELECT; ORDER BY alias resolution clones the aliased expression).
func (e *Expr) Clone() *Expr {
	if e == nil {
		return nil
	}
	out := *e
	out.Left = e.Left.Clone()
	out.Right = e.Right.Clone()
	if e.List != nil {
		out.List = make([]*Expr, len(e.List))
		for i, c := range e.List {
			out.List[i] = c.Clone()
		}
	}
	if e.Select != nil {
		out.Select = e.Select.Clone()
	}
	return &out
}

// IsConstant reports whether e contains no column references, variables or
// subqueries — required for the scalar form of "x IN (...)" (spec §4.2).
func (e *Expr) IsConstant() bool {
	if e == nil {
		return true
	}
	switch e.Op {
	case OpColumn, OpId, OpDot, OpVariable, OpInSelect, OpExists, OpSelectExpr:
		return false
	case OpFunction, OpAggFunction:
		return false // conservative: function results may not be constant-foldable pre-resolution
	}
	if !e.Left.IsConstant() || !e.Right.IsConstant() {
		return false
	}
	for _, c := range e.List {
		if !c.IsConstant() {
			return false
		}
	}
	return true
}

// IsComparison reports whether op is one of the six comparison Ops. It
// documents the expression-level side of the codegen invariant of spec
// §4.3/§6.3 (the text-comparison opcode is always exactly the
// numeric-comparison opcode plus the fixed offset of 6, Eq->StrEq etc. in
// vdbe's opcode space): which comparison Op the planner chooses is
// unaffected by DataType, only how it's codegen'd is — package plan maps
// the Op and the inferred DataType to an opcode via vdbe.TextOpcode.
func IsComparison(op Op) bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}
