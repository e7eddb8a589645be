// Package schema implements the in-memory schema cache (spec §3.2): the
// attached databases, their tables/indices/triggers/foreign keys, and the
// per-database signature used to invalidate prepared statements across
// transactions. Struct shapes are grounded on the teacher's schema/ast.go
// (Table/Column/Index/ForeignKey), generalized from "a diffable DDL model"
// into "a live cache with root-page numbers and dirty flags".
package schema

import (
	"github.com/dbsql/dbsql/internal/dbhash"
	"github.com/dbsql/dbsql/internal/dbrand"
)

// Well-known database indices (spec §3.2).
const (
	Main = 0
	Temp = 1
	// 2, 3, ... are auxiliary attached databases.
)

// DBFlag is the per-database property bitset named in spec §3.2.
type DBFlag uint8

const (
	SchemaLoaded DBFlag = 1 << iota
	CookieRead
	SchemaLocked
	UnresetViews
)

// Database is one attached storage handle's schema cache.
type Database struct {
	Name  string
	Index int

	Tables   *dbhash.Map[*Table]
	Indices  *dbhash.Map[*Index]
	Triggers *dbhash.Map[*Trigger]

	// FKReverse maps a referenced table name to the foreign keys that
	// point at it, across every table in this database (spec §3.2).
	FKReverse map[string][]*ForeignKey

	Signature uint32
	Flags     DBFlag
	InTxn     bool
}

func newDatabase(name string, index int) *Database {
	return &Database{
		Name:      name,
		Index:     index,
		Tables:    dbhash.New[*Table](),
		Indices:   dbhash.New[*Index](),
		Triggers:  dbhash.New[*Trigger](),
		FKReverse: make(map[string][]*ForeignKey),
	}
}

func (d *Database) HasFlag(f DBFlag) bool  { return d.Flags&f != 0 }
func (d *Database) SetFlag(f DBFlag)       { d.Flags |= f }
func (d *Database) ClearFlag(f DBFlag)     { d.Flags &^= f }

// RegisterForeignKey links fk into the reverse map keyed by its referenced
// table name (spec §4.1 create_foreign_key: "linked into the db FK hash at
// commit time").
func (d *Database) RegisterForeignKey(fk *ForeignKey) {
	d.FKReverse[fk.ToTable] = append(d.FKReverse[fk.ToTable], fk)
}

// InvalidateViewsReferencing clears the cached column list of every view
// whose defining SELECT mentions tableName (spec §3.2 UNRESET_VIEWS).
func (d *Database) InvalidateViewsReferencing(tableName string) {
	d.Tables.Each(func(_ string, t *Table) {
		if t.IsView() {
			for _, src := range t.Select.From {
				if src.Table == tableName {
					t.ViewColumnsCached = false
					d.SetFlag(UnresetViews)
					return
				}
			}
		}
	})
}

// Catalog is the full set of attached databases for one connection, plus
// the PRNG handle threaded through instead of global state (spec §9 open
// question).
type Catalog struct {
	dbs  []*Database
	Rand *dbrand.Source
}

// NewCatalog creates a Catalog with "main" already attached.
func NewCatalog(seed1, seed2 uint64) *Catalog {
	c := &Catalog{Rand: dbrand.New(seed1, seed2)}
	c.dbs = append(c.dbs, newDatabase("main", Main))
	return c
}

// Attach adds a new database at the next available index (or reuses Temp
// if name == "temp" and it isn't open yet).
func (c *Catalog) Attach(name string) *Database {
	if name == "temp" {
		if d := c.ByIndex(Temp); d != nil {
			return d
		}
		for len(c.dbs) <= Temp {
			c.dbs = append(c.dbs, nil)
		}
		d := newDatabase("temp", Temp)
		c.dbs[Temp] = d
		return d
	}
	for len(c.dbs) < 2 {
		c.dbs = append(c.dbs, nil)
	}
	d := newDatabase(name, len(c.dbs))
	c.dbs = append(c.dbs, d)
	return d
}

// Detach removes an auxiliary database by name (never main/temp).
func (c *Catalog) Detach(name string) bool {
	for i, d := range c.dbs {
		if i >= 2 && d != nil && d.Name == name {
			c.dbs[i] = nil
			return true
		}
	}
	return false
}

func (c *Catalog) ByIndex(i int) *Database {
	if i < 0 || i >= len(c.dbs) {
		return nil
	}
	return c.dbs[i]
}

func (c *Catalog) ByName(name string) *Database {
	for _, d := range c.dbs {
		if d != nil && d.Name == name {
			return d
		}
	}
	return nil
}

// All returns every currently-attached database, skipping detached slots.
func (c *Catalog) All() []*Database {
	out := make([]*Database, 0, len(c.dbs))
	for _, d := range c.dbs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// ChangeSignature bumps a database's schema_signature. It must strictly
// change on every committed DDL (spec §8 invariant); adding a random
// (nonzero) delta rather than a bare +1 avoids a predictable sequence
// while keeping the change unconditional.
func (c *Catalog) ChangeSignature(d *Database) {
	delta := uint32(1 + c.Rand.IntN(1000))
	d.Signature += delta
}
