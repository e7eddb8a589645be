package resolve

import (
	"fmt"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/schema"
)

// ResolveSelect binds every FROM-clause entry of sel to a live schema
// table (spec §4.4 step 2, "fill_in_column_list"), assigns each a cursor
// index via r.NextCursor, then resolves names in every clause (result-set,
// WHERE, GROUP BY, HAVING, ORDER BY) and infers types in all of them but
// GROUP BY. outer is
// the enclosing SELECT's scope for correlated subqueries, or nil at the
// top level.
func (r *Resolver) ResolveSelect(db int, sel *expr.Select, outer *Scope, funcs FuncTable) (*Scope, error) {
	if sel.Prior != nil {
		if _, err := r.ResolveSelect(db, sel.Prior, outer, funcs); err != nil {
			return nil, err
		}
	}

	scope := &Scope{Outer: outer}
	for i := range sel.From {
		src := &sel.From[i]
		*r.NextCursor++
		src.CursorIdx = *r.NextCursor

		var tbl *schema.Table
		if src.Subquery != nil {
			if _, err := r.ResolveSelect(db, src.Subquery, outer, funcs); err != nil {
				return nil, err
			}
			tbl = transientTableFromSelect(src, src.Subquery)
		} else {
			dbIdx := db
			dbase := r.Catalog.ByIndex(dbIdx)
			if src.Database != "" {
				if d := r.Catalog.ByName(src.Database); d != nil {
					dbase = d
					dbIdx = d.Index
				} else {
					return nil, &resolveError{kind: ErrNoSuchTable, ident: src.Database}
				}
			}
			if dbase == nil {
				return nil, &resolveError{kind: ErrNoSuchTable, ident: src.Table}
			}
			tbl, _ = dbase.Tables.Get(src.Table)
			if tbl == nil {
				return nil, &resolveError{kind: ErrNoSuchTable, ident: src.Table}
			}
		}
		scope.Sources = append(scope.Sources, ResolvedSrc{Src: src, Table: tbl})
	}

	// ON/USING predicates resolve against the join pair only, but since
	// every earlier source is already in scope by the time a later
	// SrcItem's ON clause is walked, resolving against the whole
	// accumulated scope is equivalent and simpler (spec §4.4's join
	// folding happens later, in package plan).
	for i := range sel.From {
		if on := sel.From[i].On; on != nil {
			if err := r.ResolveIDs(scope, on); err != nil {
				return nil, err
			}
			if err := CheckTypes(scope.Sources, funcs, nil, on); err != nil {
				return nil, err
			}
		}
	}

	scope.Result = sel.ResultColumns
	for i := range sel.ResultColumns {
		rc := &sel.ResultColumns[i]
		if rc.Star {
			continue // expanded later by package plan once source shapes are final
		}
		if err := r.ResolveIDs(scope, rc.Expr); err != nil {
			return nil, err
		}
	}

	if err := r.ResolveIDs(scope, sel.Where); err != nil {
		return nil, err
	}
	for _, g := range sel.GroupBy {
		if err := r.ResolveIDs(scope, g); err != nil {
			return nil, err
		}
	}
	if err := r.ResolveIDs(scope, sel.Having); err != nil {
		return nil, err
	}
	for _, o := range sel.OrderBy {
		if err := r.ResolveIDs(scope, o.Expr); err != nil {
			return nil, err
		}
	}
	if err := r.ResolveIDs(scope, sel.Limit); err != nil {
		return nil, err
	}
	if err := r.ResolveIDs(scope, sel.Offset); err != nil {
		return nil, err
	}

	allocAgg := func() int {
		n := len(sel.Aggregates)
		sel.Aggregates = append(sel.Aggregates, nil)
		return n
	}
	for i := range sel.ResultColumns {
		if sel.ResultColumns[i].Star {
			continue
		}
		if err := CheckTypes(scope.Sources, funcs, allocAgg, sel.ResultColumns[i].Expr); err != nil {
			return nil, err
		}
	}
	if err := CheckTypes(scope.Sources, funcs, allocAgg, sel.Where); err != nil {
		return nil, err
	}
	if err := CheckTypes(scope.Sources, funcs, allocAgg, sel.Having); err != nil {
		return nil, err
	}
	for _, o := range sel.OrderBy {
		if err := CheckTypes(scope.Sources, funcs, allocAgg, o.Expr); err != nil {
			return nil, err
		}
	}

	if len(sel.Aggregates) > 0 {
		sel.IsAgg = true
	}

	if containsAgg(sel.Where) {
		return nil, fmt.Errorf("aggregate functions are not allowed in WHERE")
	}

	if r.Scopes == nil {
		r.Scopes = make(map[*expr.Select]*Scope)
	}
	r.Scopes[sel] = scope

	return scope, nil
}

func containsAgg(e *expr.Expr) bool {
	if e == nil {
		return false
	}
	if e.Op == expr.OpAggFunction {
		return true
	}
	return containsAgg(e.Left) || containsAgg(e.Right)
}

// transientTableFromSelect synthesizes an unregistered schema.Table
// shaped like sub's result-set, so a FROM-clause subquery's columns
// resolve the same way a real table's would (spec §4.4's subquery
// flattening candidates still need this shape even when flattening
// doesn't apply).
func transientTableFromSelect(src *expr.SrcItem, sub *expr.Select) *schema.Table {
	t := schema.NewTable(src.Table, -1)
	t.IsTransient = true
	for _, rc := range sub.ResultColumns {
		name := rc.Alias
		if name == "" && rc.Expr != nil && rc.Expr.Op == expr.OpColumn {
			name = rc.Expr.Token
		}
		if name == "" {
			name = "?column?"
		}
		col := t.AddColumn(name)
		if rc.Expr != nil {
			if rc.Expr.DataType == expr.Text {
				col.Sort = schema.SortText
			}
		}
	}
	return t
}
