// Package memstore is the bundled in-memory reference implementation of
// the storage.Env/Handle/Cursor interfaces (spec §6.2's "(added) reference
// implementation boundary"). It backs the test suites of packages plan,
// ddl and vdbe; it is scaffolding, not a page-cached B-tree.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dbsql/dbsql/storage"
)

// Env creates in-memory Handles, one per filename (":memory:" or any other
// name gets an independent store; the same filename reopened within one
// process reuses the same underlying tables, mirroring a real file).
type Env struct {
	mu     sync.Mutex
	stores map[string]*store
}

func NewEnv() *Env { return &Env{stores: make(map[string]*store)} }

func (e *Env) Create(ctx context.Context, filename string, isTemp, durable bool) (storage.Handle, error) {
	if isTemp || filename == "" || filename == ":memory:" {
		return newHandle(newStore()), nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.stores[filename]
	if !ok {
		s = newStore()
		e.stores[filename] = s
	}
	return newHandle(s), nil
}

type table struct {
	rows map[string][]byte // key -> data, key is the raw sortable byte key
}

func newTable() *table { return &table{rows: make(map[string][]byte)} }

func (t *table) sortedKeys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type store struct {
	mu          sync.Mutex
	tables      map[int64]*table
	nextRoot    int64
	schemaSig   uint32
	formatVers  map[int]int
	userVersion int32
	rootByName  map[string]int64
}

func newStore() *store {
	return &store{
		tables:     make(map[int64]*table),
		nextRoot:   1,
		formatVers: make(map[int]int),
		rootByName: make(map[string]int64),
	}
}

type handle struct {
	s      *store
	inTxn  bool
	shadow map[int64]*table // copy-on-write snapshot for rollback
}

func newHandle(s *store) *handle { return &handle{s: s} }

func (h *handle) BeginTxn(ctx context.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.inTxn = true
	h.shadow = make(map[int64]*table, len(h.s.tables))
	for root, t := range h.s.tables {
		cp := newTable()
		for k, v := range t.rows {
			cp.rows[k] = append([]byte(nil), v...)
		}
		h.shadow[root] = cp
	}
	return nil
}

func (h *handle) CommitTxn(ctx context.Context) error {
	h.inTxn = false
	h.shadow = nil
	return nil
}

func (h *handle) AbortTxn(ctx context.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.shadow != nil {
		h.s.tables = h.shadow
	}
	h.inTxn = false
	h.shadow = nil
	return nil
}

func (h *handle) Checkpoint(ctx context.Context) error { return nil }

func (h *handle) CreateTable(ctx context.Context) (int64, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	root := h.s.nextRoot
	h.s.nextRoot++
	h.s.tables[root] = newTable()
	return root, nil
}

func (h *handle) CreateIndex(ctx context.Context) (int64, error) { return h.CreateTable(ctx) }

func (h *handle) DropTable(ctx context.Context, root int64) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	delete(h.s.tables, root)
	return nil
}

func (h *handle) ClearTable(ctx context.Context, root int64) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if t, ok := h.s.tables[root]; ok {
		t.rows = make(map[string][]byte)
	}
	return nil
}

func (h *handle) Cursor(ctx context.Context, root int64, writable bool) (storage.Cursor, error) {
	h.s.mu.Lock()
	t, ok := h.s.tables[root]
	if !ok {
		t = newTable()
		h.s.tables[root] = t
	}
	h.s.mu.Unlock()
	return &cursor{h: h, t: t, pos: -1}, nil
}

func (h *handle) GetSchemaSig() uint32 { return h.s.schemaSig }
func (h *handle) SetSchemaSig(sig uint32) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.schemaSig = sig
	return nil
}

func (h *handle) GetFormatVersion(dbIndex int) int {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.formatVers[dbIndex]
}

func (h *handle) SetFormatVersion(dbIndex int, v int) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.formatVers[dbIndex] = v
	return nil
}

func (h *handle) GetUserVersion() (int32, error) { return h.s.userVersion, nil }

func (h *handle) SetUserVersion(v int32) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.userVersion = v
	return nil
}

func (h *handle) RootPageOf(name string) (int64, bool) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	root, ok := h.s.rootByName[name]
	return root, ok
}

// RegisterName records a table/index name's root page for RootPageOf, used
// by package ddl when it creates (or drops) a schema object.
func (h *handle) RegisterName(name string, root int64) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.s.rootByName[name] = root
}

func (h *handle) UnregisterName(name string) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	delete(h.s.rootByName, name)
}

type cursor struct {
	h    *handle
	t    *table
	keys []string // snapshot of sorted keys, refreshed on (re)position
	pos  int
}

func (c *cursor) refresh() { c.keys = c.t.sortedKeys() }

func (c *cursor) First(ctx context.Context) (bool, error) {
	c.refresh()
	c.pos = 0
	return len(c.keys) > 0, nil
}

func (c *cursor) Last(ctx context.Context) (bool, error) {
	c.refresh()
	c.pos = len(c.keys) - 1
	return c.pos >= 0, nil
}

func (c *cursor) Next(ctx context.Context) (bool, error) {
	if c.keys == nil {
		c.refresh()
	}
	c.pos++
	return c.pos < len(c.keys), nil
}

func (c *cursor) Prev(ctx context.Context) (bool, error) {
	if c.keys == nil {
		c.refresh()
	}
	c.pos--
	return c.pos >= 0, nil
}

func (c *cursor) MoveTo(ctx context.Context, key []byte) (storage.MoveResult, error) {
	c.refresh()
	k := string(key)
	i := sort.SearchStrings(c.keys, k)
	c.pos = i
	if i < len(c.keys) {
		if c.keys[i] == k {
			return storage.MoveExact, nil
		}
		return storage.MoveGreater, nil
	}
	return storage.MoveEOF, nil
}

func (c *cursor) currentKey() ([]byte, error) {
	if c.pos < 0 || c.pos >= len(c.keys) {
		return nil, fmt.Errorf("cursor not positioned on a row")
	}
	return []byte(c.keys[c.pos]), nil
}

func (c *cursor) KeySize(ctx context.Context) (int, error) {
	k, err := c.currentKey()
	if err != nil {
		return 0, err
	}
	return len(k), nil
}

func (c *cursor) DataSize(ctx context.Context) (int, error) {
	k, err := c.currentKey()
	if err != nil {
		return 0, err
	}
	return len(c.t.rows[string(k)]), nil
}

func (c *cursor) Key(ctx context.Context, offset, length int) ([]byte, error) {
	k, err := c.currentKey()
	if err != nil {
		return nil, err
	}
	return sliceBounded(k, offset, length), nil
}

func (c *cursor) Data(ctx context.Context, offset, length int) ([]byte, error) {
	k, err := c.currentKey()
	if err != nil {
		return nil, err
	}
	return sliceBounded(c.t.rows[string(k)], offset, length), nil
}

func (c *cursor) KeyCompare(ctx context.Context, key []byte, skipTail int) (int, error) {
	k, err := c.currentKey()
	if err != nil {
		return 0, err
	}
	a, b := k, key
	if skipTail > 0 {
		if len(a) > skipTail {
			a = a[:len(a)-skipTail]
		}
		if len(b) > skipTail {
			b = b[:len(b)-skipTail]
		}
	}
	return bytes.Compare(a, b), nil
}

func (c *cursor) Insert(ctx context.Context, key, data []byte) error {
	c.t.rows[string(key)] = append([]byte(nil), data...)
	c.keys = nil
	return nil
}

func (c *cursor) Delete(ctx context.Context) error {
	k, err := c.currentKey()
	if err != nil {
		return err
	}
	delete(c.t.rows, string(k))
	c.keys = nil
	return nil
}

func (c *cursor) Close() error { return nil }

func sliceBounded(b []byte, offset, length int) []byte {
	if offset >= len(b) {
		return nil
	}
	end := offset + length
	if length < 0 || end > len(b) {
		end = len(b)
	}
	return b[offset:end]
}
