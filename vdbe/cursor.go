package vdbe

import (
	"context"

	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/storage"
)

// Cursor is the VDBE's per-slot cursor state (spec §3.5: "aCsr[i]":
// storage_cursor, is_null_row, key_as_data, pseudo_table{key,data},
// next_rowid_valid, next_rowid, use_random_rowid, last_recno, recno_valid,
// deferred_move_to).
type Cursor struct {
	Storage storage.Cursor
	IsIndex bool
	KeyAsData bool // index cursors surface Column() reads against the key

	IsNullRow bool

	// Pseudo-table mode (OpenPseudo): a single fixed row held in memory,
	// used for trigger OLD/NEW (spec §6.1 cursor lifecycle).
	IsPseudo   bool
	PseudoKey  []byte
	PseudoData []byte

	NextRowidValid bool
	NextRowid      int64
	UseRandomRowid bool

	LastRecno   int64
	RecnoValid  bool

	// DeferredMoveTo fuses back-to-back MoveTo->(discarded read) pairs:
	// the move is recorded but not performed until the next read actually
	// needs the cursor positioned (spec §3.5).
	DeferredMoveTo    int64
	HasDeferredMoveTo bool
}

func (c *Cursor) flushDeferred(ctx context.Context) error {
	if !c.HasDeferredMoveTo || c.Storage == nil {
		return nil
	}
	key := value.IntToKey(c.DeferredMoveTo)
	_, err := c.Storage.MoveTo(ctx, key)
	c.HasDeferredMoveTo = false
	return err
}

func (c *Cursor) Close() error {
	if c.Storage != nil {
		return c.Storage.Close()
	}
	return nil
}
