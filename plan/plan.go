// Package plan turns a resolved, type-checked SELECT tree (package expr,
// bound by package resolve) into a runnable vdbe.Program (spec §4.4). It
// imports resolve, schema, expr and vdbe together (as package ddl, which
// builds on it, also does): codegen needs the live schema shape (column counts, root
// pages) that vdbe's executor expects, and the bound cursor/column
// indices resolve already assigned.
package plan

import (
	"fmt"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/resolve"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/vdbe"
)

// Compiler emits bytecode for one statement. It shares its Resolver's
// cursor/memory-cell counters and per-Select scope cache, so temp
// cursors and scratch registers allocated during codegen never collide
// with the ones resolve already handed out to FROM items and subqueries.
type Compiler struct {
	Prog *vdbe.Program
	R    *resolve.Resolver
}

func NewCompiler(prog *vdbe.Program, r *resolve.Resolver) *Compiler {
	return &Compiler{Prog: prog, R: r}
}

func (c *Compiler) allocCursor() int {
	*c.R.NextCursor++
	if n := *c.R.NextCursor + 1; n > c.Prog.NumCursors {
		c.Prog.NumCursors = n
	}
	return *c.R.NextCursor
}

func (c *Compiler) allocMem() int {
	*c.R.NextMemory++
	if n := *c.R.NextMemory + 1; n > c.Prog.NumMem {
		c.Prog.NumMem = n
	}
	return *c.R.NextMemory
}

func (c *Compiler) scopeOf(sel *expr.Select) (*resolve.Scope, error) {
	s := c.R.Scopes[sel]
	if s == nil {
		return nil, fmt.Errorf("plan: select was never resolved")
	}
	return s, nil
}

// CompileSelect emits a full SELECT statement — compound arms, WHERE,
// GROUP BY/aggregates, ORDER BY, LIMIT/OFFSET and DISTINCT — ending in
// Transaction/Halt bracketing, and returns the output column names via
// ColumnName opcodes already emitted into c.Prog.
func (c *Compiler) CompileSelect(sel *expr.Select) ([]string, error) {
	c.Prog.Emit(vdbe.Transaction, 0, 0, "")

	names, err := c.compileCompound(sel, func(vals int) {
		c.Prog.Emit(vdbe.Callback, vals, 0, "")
	})
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		c.Prog.Emit(vdbe.ColumnName, i, 0, name)
	}
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return names, nil
}

// resultNames derives the output column names of one SELECT arm (spec
// §4.4's column-naming rule: an explicit alias, else the bare column
// name for a simple column reference, else the source text).
func resultNames(sel *expr.Select, scope *resolve.Scope) []string {
	var names []string
	for i := range sel.ResultColumns {
		rc := &sel.ResultColumns[i]
		if rc.Star {
			names = append(names, starNames(scope, rc.StarTable)...)
			continue
		}
		switch {
		case rc.Alias != "":
			names = append(names, rc.Alias)
		case rc.Expr.Op == expr.OpColumn:
			names = append(names, columnName(scope, rc.Expr))
		case rc.Expr.Token != "":
			names = append(names, rc.Expr.Token)
		default:
			names = append(names, fmt.Sprintf("column%d", i+1))
		}
	}
	return names
}

func columnName(scope *resolve.Scope, e *expr.Expr) string {
	if e.IColumn < 0 {
		return "rowid"
	}
	for _, src := range scope.Sources {
		if src.Src.CursorIdx == e.ITable && src.Table != nil && e.IColumn < len(src.Table.Columns) {
			return src.Table.Columns[e.IColumn].Name
		}
	}
	return "?column?"
}

func starNames(scope *resolve.Scope, table string) []string {
	var names []string
	for _, src := range scope.Sources {
		if src.Table == nil {
			continue
		}
		if table != "" && !equalFold(srcAliasOrName(&src), table) {
			continue
		}
		for _, col := range src.Table.Columns {
			names = append(names, col.Name)
		}
	}
	return names
}

func srcAliasOrName(src *resolve.ResolvedSrc) string {
	if src.Src.Alias != "" {
		return src.Src.Alias
	}
	return src.Src.Table
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

// expandResultColumns resolves Star/StarTable wildcards against scope
// into a flat list of plain expressions, in source order, the way
// select_expand_star would run once FROM shapes are final (spec §4.4
// step 3 — deferred out of package resolve specifically so wildcard
// expansion happens after every FROM item has a live Table).
func expandResultColumns(sel *expr.Select, scope *resolve.Scope) []*expr.Expr {
	var out []*expr.Expr
	for i := range sel.ResultColumns {
		rc := &sel.ResultColumns[i]
		if !rc.Star {
			out = append(out, rc.Expr)
			continue
		}
		for _, src := range scope.Sources {
			if src.Table == nil {
				continue
			}
			if rc.StarTable != "" && !equalFold(srcAliasOrName(&src), rc.StarTable) {
				continue
			}
			for i := range src.Table.Columns {
				out = append(out, &expr.Expr{
					Op: expr.OpColumn, ITable: src.Src.CursorIdx, IColumn: i,
					DataType: sortToDataType(src.Table.Columns[i].Sort),
				})
			}
		}
	}
	return out
}

func sortToDataType(s schema.SortClass) expr.DataType {
	if s == schema.SortText {
		return expr.Text
	}
	return expr.Numeric
}
