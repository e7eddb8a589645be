package ddl

import (
	"fmt"
	"strconv"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/parser"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/vdbe"
)

// CompilePragma emits the small set of PRAGMAs spec §4.8 names:
// schema_version and user_version read/write a storage cookie via
// ReadCookie/SetCookie; table_info(name) is answered entirely at compile
// time from the schema cache, since it needs no storage access at all;
// foreign_keys and busy_timeout are per-connection settings with no
// backing row, answered as a literal echo of the value supplied (or of
// the compiled-in default when read); nothing in this repository applies
// either setting to later statements.
func (c *Compiler) CompilePragma(stmt *parser.PragmaStmt) (*Result, error) {
	switch toLowerASCII(stmt.Name) {
	case "schema_version":
		return c.compileCookiePragma(0, stmt.Value)
	case "user_version":
		return c.compileCookiePragma(1, stmt.Value)
	case "table_info":
		return c.compileTableInfo(stmt.Value)
	case "foreign_keys":
		return c.compileLiteralEcho(stmt.Value, 1)
	case "busy_timeout":
		return c.compileLiteralEcho(stmt.Value, 0)
	default:
		// Unrecognized pragmas are no-ops, sqlite's own convention.
		c.Prog.Emit(vdbe.Halt, 0, 0, "")
		return &Result{Prog: c.Prog}, nil
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, ch := range b {
		if 'A' <= ch && ch <= 'Z' {
			b[i] = ch + ('a' - 'A')
		}
	}
	return string(b)
}

// compileCookiePragma handles the two storage-backed cookies: a bare read
// pushes the cookie's current value through a Callback; an assignment
// writes it via SetCookie and returns no row.
func (c *Compiler) compileCookiePragma(cookie int, val *expr.Expr) (*Result, error) {
	if val == nil {
		c.Prog.Emit(vdbe.ReadCookie, cookie, 0, "")
		c.Prog.Emit(vdbe.Callback, 1, 0, "")
		c.Prog.Emit(vdbe.Halt, 0, 0, "")
		return &Result{Prog: c.Prog}, nil
	}
	n, err := strconv.Atoi(val.Token)
	if err != nil {
		return nil, fmt.Errorf("ddl: pragma value must be an integer: %s", val.Token)
	}
	c.Prog.Emit(vdbe.SetCookie, cookie, n, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

// compileTableInfo answers PRAGMA table_info(name) purely from the schema
// cache, one Callback row per column: (cid, name, type, notnull,
// dflt_value, pk).
func (c *Compiler) compileTableInfo(arg *expr.Expr) (*Result, error) {
	if arg == nil {
		return nil, fmt.Errorf("ddl: pragma table_info requires a table name")
	}
	db, err := c.database(schema.Main, "")
	if err != nil {
		return nil, err
	}
	tbl, err := c.table(db, arg.Token)
	if err != nil {
		return nil, err
	}
	for i, col := range tbl.Columns {
		c.Prog.Emit(vdbe.Integer, i, 0, "")
		c.Prog.Emit(vdbe.String, 0, 0, col.Name)
		c.Prog.Emit(vdbe.String, 0, 0, col.DeclType)
		c.Prog.Emit(vdbe.Integer, boolToInt(col.NotNull), 0, "")
		if col.Default != nil {
			c.Prog.Emit(vdbe.String, 0, 0, col.Default.Token)
		} else {
			c.Prog.Emit(vdbe.Null, 0, 0, "")
		}
		c.Prog.Emit(vdbe.Integer, boolToInt(col.IsPK), 0, "")
		c.Prog.Emit(vdbe.Callback, 6, 0, "")
	}
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

// compileLiteralEcho answers a connection-level pragma this package has
// no storage backing for: a read surfaces def, a write surfaces the value
// the caller supplied.
func (c *Compiler) compileLiteralEcho(v *expr.Expr, def int) (*Result, error) {
	n := def
	if v != nil {
		parsed, err := strconv.Atoi(v.Token)
		if err != nil {
			return nil, fmt.Errorf("ddl: pragma value must be an integer: %s", v.Token)
		}
		n = parsed
	}
	c.Prog.Emit(vdbe.Integer, n, 0, "")
	c.Prog.Emit(vdbe.Callback, 1, 0, "")
	c.Prog.Emit(vdbe.Halt, 0, 0, "")
	return &Result{Prog: c.Prog}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
