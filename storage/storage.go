// Package storage defines the pluggable storage-manager interface DBSQL's
// VDBE executor runs against (spec §6.2): an ordered key-value B-tree-like
// store with cursors and transactions. DBSQL never implements a page cache
// itself — package memstore is the bundled in-memory reference
// implementation; production deployments supply their own Env.
package storage

import "context"

// Handle identifies one opened database file (or in-memory store).
type Handle interface {
	// BeginTxn/CommitTxn/AbortTxn bracket one transaction. Checkpoint
	// flushes without ending the transaction (a journal checkpoint, in
	// page-cache terms).
	BeginTxn(ctx context.Context) error
	CommitTxn(ctx context.Context) error
	AbortTxn(ctx context.Context) error
	Checkpoint(ctx context.Context) error

	CreateTable(ctx context.Context) (rootPage int64, err error)
	CreateIndex(ctx context.Context) (rootPage int64, err error)
	DropTable(ctx context.Context, root int64) error
	ClearTable(ctx context.Context, root int64) error

	Cursor(ctx context.Context, root int64, writable bool) (Cursor, error)

	GetSchemaSig() uint32
	SetSchemaSig(sig uint32) error

	GetFormatVersion(dbIndex int) int
	SetFormatVersion(dbIndex int, v int) error

	// (added, spec §6.2 addendum) user_version / root-page lookup cache,
	// needed by PRAGMA (§4.8) and schema bootstrap (§4.5).
	GetUserVersion() (int32, error)
	SetUserVersion(v int32) error
	RootPageOf(name string) (int64, bool)
}

// Env opens or creates a Handle. Real deployments implement this against a
// real file; memstore.Env keeps everything in a process-local map.
type Env interface {
	Create(ctx context.Context, filename string, isTemp, durable bool) (Handle, error)
}

// MoveResult is the three-way outcome of Cursor.MoveTo (spec §6.1
// "Found/NotFound/Distinct").
type MoveResult int

const (
	MoveExact MoveResult = iota
	MoveGreater
	MoveEOF
)

// Cursor is a positioned handle over one ordered key-value collection.
// Keys are the sortable byte encodings produced by value.MakeIdxKey /
// value.IntToKey; the cursor itself is opaque to comparisons beyond raw
// byte order.
type Cursor interface {
	First(ctx context.Context) (more bool, err error)
	Last(ctx context.Context) (more bool, err error)
	Next(ctx context.Context) (more bool, err error)
	Prev(ctx context.Context) (more bool, err error)

	// MoveTo seeks to key, or the first key greater than it if key is
	// absent (spec §6.1 MoveTo semantics).
	MoveTo(ctx context.Context, key []byte) (MoveResult, error)

	KeySize(ctx context.Context) (int, error)
	DataSize(ctx context.Context) (int, error)
	Key(ctx context.Context, offset, length int) ([]byte, error)
	Data(ctx context.Context, offset, length int) ([]byte, error)

	// KeyCompare compares the cursor's current key against key, skipping
	// the last skipTail bytes of both (used to compare index keys without
	// their trailing rowid suffix — spec §6.4).
	KeyCompare(ctx context.Context, key []byte, skipTail int) (int, error)

	Insert(ctx context.Context, key, data []byte) error
	Delete(ctx context.Context) error

	Close() error
}
