// Package vdbe implements the VDBE bytecode program model and the
// stack-machine executor that runs it (spec §3.4, §4.5, §6.3). A Program
// is a flat array of 4-tuple instructions; Vdbe is one running instance
// of a Program against a storage.Handle. Opcode semantics are grounded on
// original_source/src/vdbe.c, translated into idiomatic Go rather than
// transliterated.
package vdbe

// Op tags one VDBE instruction. The six text-comparison opcodes are
// deliberately laid out immediately after their six numeric counterparts
// so that `op + 6` is the codegen invariant spec.md §6.3/§4.3 requires
// ("the text-comparison opcode is always exactly the numeric-comparison
// opcode's Op plus the fixed offset of 6").
type Op int

const (
	Noop Op = iota

	// Control
	Goto
	Gosub
	Return
	Halt
	If
	IfNot
	IsNull
	NotNull

	// Stack
	Integer
	Real
	String
	Null
	Variable
	Pop
	Dup
	Pull
	Push
	Concat
	MemStore
	MemLoad

	// Comparison — numeric block, must stay contiguous and in this order.
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	// Comparison — text block, Eq+6 == StrEq etc (enforced by a test).
	StrEq
	StrNe
	StrLt
	StrLe
	StrGt
	StrGe

	// Arithmetic / bitwise / logic / unary
	Add
	Subtract
	Multiply
	Divide
	Remainder
	And
	Or
	Negative
	AbsValue
	Not
	BitNot
	AddImm
	ForceInt
	MustBeInt

	// Record / key encoding
	MakeRecord
	MakeKey
	MakeIdxKey
	IncrKey

	// Cursor lifecycle
	OpenRead
	OpenWrite
	OpenTemp
	OpenPseudo
	SetPseudo
	Close

	// Cursor positioning / iteration
	MoveTo
	MoveLt
	Rewind
	Last
	Next
	Prev
	Found
	NotFound
	Distinct
	NotExists
	IsUnique

	// Row-id
	NewRecno

	// I/O
	RowData
	RowKey
	Column
	Recno
	FullKey
	NullRow
	PutIntKey
	PutStrKey
	Delete
	IdxPut
	IdxDelete
	IdxRecno
	IdxGT
	IdxGE
	IdxLT
	IdxIsNull

	// Schema
	CreateTable
	CreateIndex
	Destroy
	Clear

	// Transactions
	Transaction
	Commit
	Rollback
	Checkpoint
	SetFormatVersion
	SetSchemaSignature
	VerifySchemaSignature
	ReadCookie
	SetCookie

	// Keylist
	ListWrite
	ListRead
	ListRewind
	ListReset
	ListPush
	ListPop

	// Sorter
	SortPut
	SortMakeRec
	SortMakeKey
	Sort
	SortNext
	SortCallback
	SortReset

	// Scalar functions
	Func

	// Aggregator
	AggReset
	AggInit
	AggFunc
	AggFocus
	AggSet
	AggGet
	AggNext

	// Sets
	SetInsert
	SetFound
	SetNotFound
	SetFirst
	SetNext

	// Callbacks
	Callback
	NullCallback
	ColumnName

	// File bulk-load (COPY)
	FileOpen
	FileRead
	FileColumn

	opCount
)

var opNames = [opCount]string{
	Noop: "Noop", Goto: "Goto", Gosub: "Gosub", Return: "Return", Halt: "Halt",
	If: "If", IfNot: "IfNot", IsNull: "IsNull", NotNull: "NotNull",
	Integer: "Integer", Real: "Real", String: "String", Null: "Null",
	Variable: "Variable", Pop: "Pop", Dup: "Dup", Pull: "Pull", Push: "Push",
	Concat: "Concat", MemStore: "MemStore", MemLoad: "MemLoad",
	Eq:      "Eq", Ne: "Ne", Lt: "Lt", Le: "Le", Gt: "Gt", Ge: "Ge",
	StrEq: "StrEq", StrNe: "StrNe", StrLt: "StrLt", StrLe: "StrLe", StrGt: "StrGt", StrGe: "StrGe",
	Add: "Add", Subtract: "Subtract", Multiply: "Multiply", Divide: "Divide",
	Remainder: "Remainder", And: "And", Or: "Or", Negative: "Negative",
	AbsValue: "AbsValue", Not: "Not", BitNot: "BitNot", AddImm: "AddImm",
	ForceInt: "ForceInt", MustBeInt: "MustBeInt",
	MakeRecord: "MakeRecord", MakeKey: "MakeKey", MakeIdxKey: "MakeIdxKey", IncrKey: "IncrKey",
	OpenRead: "OpenRead", OpenWrite: "OpenWrite", OpenTemp: "OpenTemp",
	OpenPseudo: "OpenPseudo", SetPseudo: "SetPseudo", Close: "Close",
	MoveTo: "MoveTo", MoveLt: "MoveLt", Rewind: "Rewind", Last: "Last",
	Next: "Next", Prev: "Prev", Found: "Found", NotFound: "NotFound",
	Distinct: "Distinct", NotExists: "NotExists", IsUnique: "IsUnique",
	NewRecno: "NewRecno",
	RowData:  "RowData", RowKey: "RowKey", Column: "Column", Recno: "Recno",
	FullKey: "FullKey", NullRow: "NullRow", PutIntKey: "PutIntKey",
	PutStrKey: "PutStrKey", Delete: "Delete", IdxPut: "IdxPut",
	IdxDelete: "IdxDelete", IdxRecno: "IdxRecno", IdxGT: "IdxGT", IdxGE: "IdxGE",
	IdxLT: "IdxLT", IdxIsNull: "IdxIsNull",
	CreateTable: "CreateTable", CreateIndex: "CreateIndex", Destroy: "Destroy", Clear: "Clear",
	Transaction: "Transaction", Commit: "Commit", Rollback: "Rollback",
	Checkpoint: "Checkpoint", SetFormatVersion: "SetFormatVersion",
	SetSchemaSignature: "SetSchemaSignature", VerifySchemaSignature: "VerifySchemaSignature",
	ReadCookie: "ReadCookie", SetCookie: "SetCookie",
	ListWrite: "ListWrite", ListRead: "ListRead", ListRewind: "ListRewind",
	ListReset: "ListReset", ListPush: "ListPush", ListPop: "ListPop",
	SortPut: "SortPut", SortMakeRec: "SortMakeRec", SortMakeKey: "SortMakeKey",
	Sort: "Sort", SortNext: "SortNext", SortCallback: "SortCallback", SortReset: "SortReset",
	Func:     "Func",
	AggReset: "AggReset", AggInit: "AggInit", AggFunc: "AggFunc", AggFocus: "AggFocus",
	AggSet: "AggSet", AggGet: "AggGet", AggNext: "AggNext",
	SetInsert: "SetInsert", SetFound: "SetFound", SetNotFound: "SetNotFound",
	SetFirst: "SetFirst", SetNext: "SetNext",
	Callback: "Callback", NullCallback: "NullCallback", ColumnName: "ColumnName",
	FileOpen: "FileOpen", FileRead: "FileRead", FileColumn: "FileColumn",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "Op(?)"
}

// TextOpcode returns the text-comparison counterpart of a numeric
// comparison opcode (spec §4.3/§6.3's op+6 invariant), expressed as a
// helper rather than mutating the opcode byte in place (spec §9 design
// note).
func TextOpcode(numeric Op) Op {
	switch numeric {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return numeric + 6
	}
	return numeric
}

// IsComparison reports whether op is one of the twelve numeric/text
// comparison opcodes.
func IsComparison(op Op) bool {
	return op >= Eq && op <= StrGe
}

// IsJump reports whether op is one of the opcodes the interrupt flag is
// checked at (spec §5 "Cancellation").
func IsJump(op Op) bool {
	switch op {
	case Goto, Gosub, Next, Prev, SortNext, AggNext, ListRead, SetNext:
		return true
	}
	return false
}
