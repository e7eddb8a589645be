// Package resolve implements name resolution and type inference against
// the live schema cache (spec §4.2 expr_resolve_ids, §4.3 expr_check). It
// depends on both expr (the tree shape) and schema (the catalog being
// resolved against); kept separate from both so neither needs to know
// about the other, avoiding an import cycle.
package resolve

import (
	"fmt"

	"github.com/dbsql/dbsql/authorizer"
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/schema"
)

// ResolvedSrc pairs one FROM-clause entry with the live table it was bound
// to during fill_in_column_list (spec §4.4 step 2).
type ResolvedSrc struct {
	Src   *expr.SrcItem
	Table *schema.Table
}

// Scope is the set of FROM-clause bindings visible to one SELECT level,
// plus the enclosing levels (for correlated subqueries) and, in a trigger
// body, the OLD/NEW pseudo-table bindings.
type Scope struct {
	Sources []ResolvedSrc
	Outer   *Scope
	Result  []expr.ResultColumn // this level's own result-set, for alias matching

	OldTable *ResolvedSrc
	NewTable *ResolvedSrc
}

// Resolver carries the mutable state ResolveIDs needs across one
// expression-tree walk: a temp-cursor allocator for IN-subqueries and a
// memory-cell allocator for scalar subqueries (spec §4.2 steps 6-7).
type Resolver struct {
	Catalog    *schema.Catalog
	NextCursor *int
	NextMemory *int
	Auth       authorizer.Hook

	// CurrentDB/Funcs back resolveSubquery's recursive ResolveSelect call
	// for expression-level subqueries (IN/EXISTS/scalar), which — unlike
	// FROM-clause subqueries — reach ResolveIDs with no db index or
	// function table of their own to pass down.
	CurrentDB int
	Funcs     FuncTable

	// Scopes remembers the Scope built for every Select level this
	// Resolver has resolved, keyed by AST identity. ResolveSelect only
	// returns the outermost level's Scope to its caller; a compound
	// SELECT's Prior arms, and every expression-level subquery's Select,
	// are otherwise unreachable once resolution finishes — package plan
	// needs them back to know each arm's FROM-item table bindings during
	// codegen.
	Scopes map[*expr.Select]*Scope
}

// Error kinds named in spec §4.2.
var (
	ErrNoSuchColumn  = fmt.Errorf("no such column")
	ErrAmbiguous     = fmt.Errorf("ambiguous column name")
	ErrNoSuchTable   = fmt.Errorf("no such table")
	ErrBadArgCount   = fmt.Errorf("wrong number of arguments to function")
	ErrMisusedAgg    = fmt.Errorf("misuse of aggregate function")
	ErrNonConstantIN = fmt.Errorf("right-hand side of IN must be constant")
)

type resolveError struct {
	kind error
	ident string
}

func (e *resolveError) Error() string {
	if e.ident == "" {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.ident)
}

func (e *resolveError) Unwrap() error { return e.kind }

// ResolveIDs walks e, rewriting OpId/OpDot nodes into resolved OpColumn
// nodes against scope (spec §4.2). ORDER BY alias support needs the
// enclosing SELECT's own result-set, passed via scope.Result.
func (r *Resolver) ResolveIDs(scope *Scope, e *expr.Expr) error {
	if e == nil {
		return nil
	}
	switch e.Op {
	case expr.OpId:
		return r.resolveId(scope, e)
	case expr.OpDot:
		return r.resolveDot(scope, e)
	case expr.OpInSelect, expr.OpExists, expr.OpSelectExpr:
		return r.resolveSubquery(scope, e)
	case expr.OpInList:
		if err := r.ResolveIDs(scope, e.Left); err != nil {
			return err
		}
		for _, item := range e.List {
			if !item.IsConstant() {
				return &resolveError{kind: ErrNonConstantIN}
			}
			if err := r.ResolveIDs(scope, item); err != nil {
				return err
			}
		}
		return nil
	case expr.OpFunction:
		for _, a := range e.List {
			if err := r.ResolveIDs(scope, a); err != nil {
				return err
			}
		}
		return nil
	}
	if err := r.ResolveIDs(scope, e.Left); err != nil {
		return err
	}
	if err := r.ResolveIDs(scope, e.Right); err != nil {
		return err
	}
	for _, c := range e.List {
		if err := r.ResolveIDs(scope, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveId(scope *Scope, e *expr.Expr) error {
	name := e.Token
	switch name {
	case "ROWID", "_ROWID_", "OID":
		if len(scope.Sources) == 1 {
			e.Op = expr.OpColumn
			e.ITable = scope.Sources[0].Src.CursorIdx
			e.IColumn = -1
			return nil
		}
	}

	// Match the bare name against every FROM source's columns first
	// (spec §4.2 step 2); output aliases are tried only after that, below.
	var match *ResolvedSrc
	var matchCol int = -1
	count := 0
	for i := range scope.Sources {
		src := &scope.Sources[i]
		if src.Table == nil {
			continue
		}
		if ci := src.Table.ColumnIndex(name); ci >= 0 {
			match = src
			matchCol = ci
			count++
		}
	}
	if count > 1 {
		return &resolveError{kind: ErrAmbiguous, ident: name}
	}
	if count == 1 {
		if r.Auth != nil {
			if res := r.Auth(authorizer.Read, match.Table.Name, name, ""); res == authorizer.Deny {
				return fmt.Errorf("authorization denied reading %s.%s", match.Table.Name, name)
			} else if res == authorizer.Ignore {
				e.Op = expr.OpNull
				return nil
			}
		}
		e.Op = expr.OpColumn
		e.ITable = match.Src.CursorIdx
		e.IColumn = matchCol
		return nil
	}

	// Output-alias rewrite for ORDER BY alias (spec §4.2 step 5).
	for _, rc := range scope.Result {
		if rc.Alias != "" && equalFold(rc.Alias, name) {
			e.Op = expr.OpAs
			e.Left = rc.Expr.Clone()
			return nil
		}
	}

	if scope.Outer != nil {
		return r.resolveId(scope.Outer, e)
	}
	return &resolveError{kind: ErrNoSuchColumn, ident: name}
}

func (r *Resolver) resolveDot(scope *Scope, e *expr.Expr) error {
	col := e.Token
	if e.Qualifier1 != "" {
		// db.table.col
		for i := range scope.Sources {
			src := &scope.Sources[i]
			if src.Table == nil {
				continue
			}
			if equalFold(srcName(src), e.Qualifier2) && src.Table.DbIndex >= 0 {
				if ci := src.Table.ColumnIndex(col); ci >= 0 {
					e.Op = expr.OpColumn
					e.ITable = src.Src.CursorIdx
					e.IColumn = ci
					return nil
				}
			}
		}
		return &resolveError{kind: ErrNoSuchColumn, ident: e.Qualifier2 + "." + col}
	}
	table := e.Qualifier2
	for i := range scope.Sources {
		src := &scope.Sources[i]
		if src.Table == nil {
			continue
		}
		if equalFold(srcName(src), table) {
			ci := src.Table.ColumnIndex(col)
			if ci < 0 && (equalFold(col, "rowid") || equalFold(col, "_rowid_") || equalFold(col, "oid")) {
				ci = -1
			} else if ci < 0 {
				return &resolveError{kind: ErrNoSuchColumn, ident: table + "." + col}
			}
			if r.Auth != nil {
				res := r.Auth(authorizer.Read, src.Table.Name, col, "")
				if res == authorizer.Deny {
					return fmt.Errorf("authorization denied reading %s.%s", table, col)
				} else if res == authorizer.Ignore {
					e.Op = expr.OpNull
					return nil
				}
			}
			e.Op = expr.OpColumn
			e.ITable = src.Src.CursorIdx
			e.IColumn = ci
			return nil
		}
	}
	if scope.Outer != nil {
		return r.resolveDot(scope.Outer, e)
	}
	return &resolveError{kind: ErrNoSuchTable, ident: table}
}

func srcName(src *ResolvedSrc) string {
	if src.Src.Alias != "" {
		return src.Src.Alias
	}
	return src.Src.Table
}

func (r *Resolver) resolveSubquery(scope *Scope, e *expr.Expr) error {
	if e.Op == expr.OpInSelect {
		if err := r.ResolveIDs(scope, e.Left); err != nil {
			return err
		}
	}
	if _, err := r.ResolveSelect(r.CurrentDB, e.Select, scope, r.Funcs); err != nil {
		return err
	}
	switch e.Op {
	case expr.OpInSelect, expr.OpExists:
		*r.NextCursor++
		e.ITable = *r.NextCursor
	case expr.OpSelectExpr:
		*r.NextMemory++
		e.IColumn = *r.NextMemory
	}
	return nil
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
