package schema

import "github.com/dbsql/dbsql/expr"

// ConflictAction is the OE_* constraint-conflict policy of spec §4.1/§7.
type ConflictAction int

const (
	ConflictNone ConflictAction = iota
	ConflictRollback
	ConflictAbort
	ConflictFail
	ConflictIgnore
	ConflictReplace
)

// SortClass is a column's declared sort affinity (spec §4.3): columns
// whose declared type contains "text"/"char"/"clob"/"blob" sort as Text,
// everything else as Numeric.
type SortClass int

const (
	SortNumeric SortClass = iota
	SortText
)

// Column describes one table column (spec §3.2).
type Column struct {
	Name       string
	DeclType   string
	Default    *expr.Expr
	Sort       SortClass
	NotNull    bool
	IsPK       bool
	Collate    string
	Position   int
}

// Table holds a base table, or — when Select is non-nil — a view (spec
// §3.2: "View: a Table with a non-null associated SELECT").
type Table struct {
	Name     string
	DbIndex  int
	Columns  []*Column
	RootPage int64

	// IPKey is the column index that serves as the INTEGER PRIMARY KEY /
	// rowid alias, or -1 if the table has a separate hidden rowid.
	IPKey int

	Select            *expr.Select // non-nil for views
	ViewColumnsCached bool

	Indices     []*Index
	ForeignKeys []*ForeignKey

	IsTransient bool // ephemeral table built from a subquery's result shape
}

func NewTable(name string, dbIndex int) *Table {
	return &Table{Name: name, DbIndex: dbIndex, IPKey: -1}
}

func (t *Table) IsView() bool { return t.Select != nil }

// ColumnIndex returns the 0-based index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if equalFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// AddColumn appends a column, matching the parser semantic action
// sequence of spec §4.1 (add_column then later add_column_type etc. all
// mutate the table's most-recently-added column).
func (t *Table) AddColumn(name string) *Column {
	c := &Column{Name: name, Position: len(t.Columns)}
	t.Columns = append(t.Columns, c)
	return c
}

// LastColumn returns the most recently added column, for the parser's
// add_column_type/add_default/add_not_null/add_primary_key actions which
// apply to "the column currently being defined".
func (t *Table) LastColumn() *Column {
	if len(t.Columns) == 0 {
		return nil
	}
	return t.Columns[len(t.Columns)-1]
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
