package schema

// ForeignKey describes an outgoing foreign key from one table to another
// (spec §3.2). It is owned by the source Table and, once committed, also
// linked into the referenced database's FKReverse map.
type ForeignKey struct {
	Table       *Table // owning (source) table
	FromColumns []string
	ToTable     string
	ToColumns   []string

	OnDelete ConflictAction
	OnUpdate ConflictAction
	// OnInsert is the INSERT-side conflict action of spec §3.2 ("conflict
	// actions for DELETE/UPDATE/INSERT"). Nothing sets or reads it, and no
	// code enforces foreign keys.
	OnInsert ConflictAction

	IsDeferred bool
}
