package schema

// Index describes a secondary (or UNIQUE-constraint-backed) index over a
// table (spec §3.2).
type Index struct {
	Name        string
	Table       *Table
	Columns     []int // column indices into Table.Columns, in key order
	Unique      bool
	OnError     ConflictAction
	AutoCreated bool // created implicitly for a UNIQUE/PK column constraint
	RootPage    int64
}

func NewIndex(name string, table *Table) *Index {
	return &Index{Name: name, Table: table, OnError: ConflictAbort}
}
