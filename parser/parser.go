package parser

import (
	"fmt"

	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/schema"
	"github.com/dbsql/dbsql/token"
)

type lexeme struct {
	tok  token.Tok
	text string
}

// Parser drives a token.Tokenizer one statement at a time. Tokens are
// buffered eagerly (the whole statement is short; there is no benefit to
// lazy scanning) so lookahead beyond one token — needed for e.g. "IS NOT
// NULL" vs "IS NULL", or distinguishing a function call from a bare
// identifier — is just indexing into the slice.
type Parser struct {
	toks []lexeme
	pos  int
}

// New tokenizes sql (one statement; split multi-statement input on ';'
// before calling New) and returns a Parser positioned at the first token.
func New(sql string) *Parser {
	p := &Parser{}
	tz := token.New(sql)
	for {
		tok, text := tz.Scan()
		p.toks = append(p.toks, lexeme{tok, text})
		if tok == token.EOF {
			break
		}
	}
	return p
}

// Parse parses exactly one statement.
func Parse(sql string) (*Stmt, error) {
	return New(sql).ParseStatement()
}

func (p *Parser) peek() lexeme  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) lexeme {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *Parser) advance() lexeme {
	l := p.toks[p.pos]
	if l.tok != token.EOF {
		p.pos++
	}
	return l
}
func (p *Parser) check(t token.Tok) bool { return p.peek().tok == t }
func (p *Parser) match(types ...token.Tok) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}
func (p *Parser) expect(t token.Tok, what string) (lexeme, error) {
	if !p.check(t) {
		return lexeme{}, p.errorf("expected %s, got %q", what, p.peek().text)
	}
	return p.advance(), nil
}
func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("parser: "+format, args...)
}

// ParseStatement dispatches on the leading keyword (spec §4.1's begin_stmt
// action: the statement kind is known from its first token).
func (p *Parser) ParseStatement() (*Stmt, error) {
	switch {
	case p.match(token.SELECT):
		sel, err := p.parseSelectBody()
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: StmtSelect, Select: sel}, nil
	case p.match(token.INSERT):
		s, err := p.parseInsert()
		return &Stmt{Kind: StmtInsert, Insert: s}, err
	case p.match(token.REPLACE):
		s, err := p.parseInsertBody(schema.ConflictReplace)
		return &Stmt{Kind: StmtInsert, Insert: s}, err
	case p.match(token.UPDATE):
		s, err := p.parseUpdate()
		return &Stmt{Kind: StmtUpdate, Update: s}, err
	case p.match(token.DELETE):
		s, err := p.parseDelete()
		return &Stmt{Kind: StmtDelete, Delete: s}, err
	case p.match(token.CREATE):
		return p.parseCreate()
	case p.match(token.DROP):
		return p.parseDrop()
	case p.match(token.BEGIN):
		p.match(token.TRANSACTION)
		return &Stmt{Kind: StmtBegin}, nil
	case p.match(token.COMMIT):
		p.match(token.TRANSACTION)
		return &Stmt{Kind: StmtCommit}, nil
	case p.match(token.ROLLBACK):
		p.match(token.TRANSACTION)
		return &Stmt{Kind: StmtRollback}, nil
	case p.match(token.PRAGMA):
		s, err := p.parsePragma()
		return &Stmt{Kind: StmtPragma, Pragma: s}, err
	}
	return nil, p.errorf("unrecognized statement starting with %q", p.peek().text)
}

// ---- name parsing ----

// parseQualifiedName parses [db.]name.
func (p *Parser) parseQualifiedName() (db, name string, err error) {
	first, err := p.expectName()
	if err != nil {
		return "", "", err
	}
	if p.match(token.Dot) {
		second, err := p.expectName()
		if err != nil {
			return "", "", err
		}
		return first, second, nil
	}
	return "", first, nil
}

func (p *Parser) expectName() (string, error) {
	if !p.check(token.ID) {
		return "", p.errorf("expected identifier, got %q", p.peek().text)
	}
	return p.advance().text, nil
}

// ---- CREATE ----

func (p *Parser) parseCreate() (*Stmt, error) {
	temp := p.match(token.TEMP, token.TEMPORARY)
	switch {
	case p.match(token.TABLE):
		s, err := p.parseCreateTable(temp)
		return &Stmt{Kind: StmtCreateTable, CreateTable: s}, err
	case p.match(token.UNIQUE):
		if !p.match(token.INDEX) {
			return nil, p.errorf("expected INDEX after UNIQUE")
		}
		s, err := p.parseCreateIndex(true)
		return &Stmt{Kind: StmtCreateIndex, CreateIndex: s}, err
	case p.match(token.INDEX):
		s, err := p.parseCreateIndex(false)
		return &Stmt{Kind: StmtCreateIndex, CreateIndex: s}, err
	case p.match(token.VIEW):
		s, err := p.parseCreateView(temp)
		return &Stmt{Kind: StmtCreateView, CreateView: s}, err
	case p.match(token.TRIGGER):
		s, err := p.parseCreateTrigger()
		return &Stmt{Kind: StmtCreateTrigger, CreateTrig: s}, err
	}
	return nil, p.errorf("expected TABLE, INDEX, VIEW or TRIGGER after CREATE")
}

func (p *Parser) parseCreateTable(temp bool) (*CreateTableStmt, error) {
	stmt := &CreateTableStmt{Temp: temp}
	if p.match(token.IF) {
		if _, err := p.expect(token.NOT, "NOT"); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.EXISTS, "EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Name = db, name

	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	for {
		if p.check(token.PRIMARY) || p.check(token.FOREIGN) || p.check(token.UNIQUE) || p.check(token.CHECK) || p.check(token.CONSTRAINT) {
			if err := p.parseTableConstraint(stmt); err != nil {
				return nil, err
			}
		} else {
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseColumnDef implements add_column/add_column_type/add_default/
// add_not_null/add_collate_type/add_primary_key as one straight-line
// sequence of constraint checks (spec §4.1): each constraint keyword, as
// it is seen, mutates the column definition currently being built.
func (p *Parser) parseColumnDef() (*ColumnDef, error) {
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	col := &ColumnDef{Name: name}
	col.DeclType = p.parseOptionalTypeName()

	for {
		switch {
		case p.match(token.PRIMARY):
			if _, err := p.expect(token.KEY, "KEY"); err != nil {
				return nil, err
			}
			col.IsPK = true
			p.match(token.ASC)
			p.match(token.DESC)
			if p.matchAnyID("autoincrement") {
				col.PKAutoincr = true
			}
		case p.match(token.NOT):
			if _, err := p.expect(token.NULL, "NULL"); err != nil {
				return nil, err
			}
			col.NotNull = true
		case p.match(token.UNIQUE):
			col.Unique = true
		case p.match(token.DEFAULT):
			e, err := p.parseDefaultValue()
			if err != nil {
				return nil, err
			}
			col.Default = e
		case p.match(token.COLLATE):
			n, err := p.expectName()
			if err != nil {
				return nil, err
			}
			col.Collate = n
		case p.match(token.CHECK):
			if err := p.skipParenExpr(); err != nil {
				return nil, err
			}
		case p.match(token.REFERENCES):
			if err := p.skipInlineReferences(); err != nil {
				return nil, err
			}
		default:
			return col, nil
		}
	}
}

// parseDefaultValue accepts a literal or a parenthesized expression, the
// two forms a DEFAULT clause takes.
func (p *Parser) parseDefaultValue() (*expr.Expr, error) {
	if p.match(token.LParen) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	return p.parseUnary()
}

func (p *Parser) parseOptionalTypeName() string {
	if !p.check(token.ID) {
		return ""
	}
	// A type name is one or more bare identifiers (e.g. "double precision"),
	// stopping at the next column/table constraint keyword or punctuation.
	typ := p.advance().text
	for p.check(token.ID) {
		typ += " " + p.advance().text
	}
	if p.match(token.LParen) {
		for !p.check(token.RParen) && !p.check(token.EOF) {
			p.advance()
		}
		p.match(token.RParen)
	}
	return typ
}

func (p *Parser) skipParenExpr() error {
	if _, err := p.expect(token.LParen, "("); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		switch {
		case p.check(token.LParen):
			depth++
			p.advance()
		case p.check(token.RParen):
			depth--
			p.advance()
		case p.check(token.EOF):
			return p.errorf("unterminated parenthesized expression")
		default:
			p.advance()
		}
	}
	return nil
}

func (p *Parser) skipInlineReferences() error {
	if _, err := p.expectName(); err != nil {
		return err
	}
	if p.check(token.LParen) {
		if err := p.skipParenExpr(); err != nil {
			return err
		}
	}
	return p.parseForeignKeyClauses(&ForeignKeyDef{})
}

// parseForeignKeyClauses consumes zero or more "ON DELETE <action>" / "ON
// UPDATE <action>" / "NOT DEFERRABLE" clauses. CASCADE/RESTRICT/SET NULL/
// SET DEFAULT map onto schema.ConflictAction loosely — anything
// unrecognized is treated as ConflictNone rather than rejected, since
// referential actions are advisory: they are recorded on
// schema.ForeignKey and no code enforces them.
func (p *Parser) parseForeignKeyClauses(fk *ForeignKeyDef) error {
	for p.match(token.ON) {
		var onDelete bool
		switch {
		case p.match(token.DELETE):
			onDelete = true
		case p.match(token.UPDATE):
			onDelete = false
		default:
			return p.errorf("expected DELETE or UPDATE after ON, got %q", p.peek().text)
		}
		action := p.parseReferentialAction()
		if onDelete {
			fk.OnDelete = action
		} else {
			fk.OnUpdate = action
		}
	}
	if p.match(token.NOT) {
		if _, err := p.expectID("DEFERRABLE"); err != nil {
			return err
		}
	} else if _, ok := p.matchID("DEFERRABLE"); ok {
		fk.Deferred = true
	}
	return nil
}

func (p *Parser) parseReferentialAction() schema.ConflictAction {
	switch {
	case p.match(token.CASCADE):
		return schema.ConflictNone
	case p.match(token.RESTRICT):
		return schema.ConflictAbort
	case p.match(token.NO):
		p.match(token.ACTION)
		return schema.ConflictNone
	case p.check(token.ID) && equalFold(p.peek().text, "set"):
		p.advance()
		p.match(token.NULL)
		p.matchAnyID("default")
		return schema.ConflictNone
	}
	return schema.ConflictNone
}

// matchID consumes the next token if it is an ID matching name
// case-insensitively.
func (p *Parser) matchID(name string) (string, bool) {
	if p.check(token.ID) && equalFold(p.peek().text, name) {
		return p.advance().text, true
	}
	return "", false
}

func (p *Parser) matchAnyID(name string) bool {
	_, ok := p.matchID(name)
	return ok
}

func (p *Parser) expectID(name string) (string, error) {
	if s, ok := p.matchID(name); ok {
		return s, nil
	}
	return "", p.errorf("expected %q, got %q", name, p.peek().text)
}

func (p *Parser) parseTableConstraint(stmt *CreateTableStmt) error {
	if p.match(token.CONSTRAINT) {
		if _, err := p.expectName(); err != nil { // named constraint, name dropped
			return err
		}
	}
	switch {
	case p.match(token.PRIMARY):
		if _, err := p.expect(token.KEY, "KEY"); err != nil {
			return err
		}
		cols, err := p.parseColumnNameList()
		if err != nil {
			return err
		}
		stmt.PrimaryKey = cols
	case p.match(token.UNIQUE):
		cols, err := p.parseColumnNameList()
		if err != nil {
			return err
		}
		stmt.UniqueSets = append(stmt.UniqueSets, cols)
	case p.match(token.CHECK):
		return p.skipParenExpr()
	case p.match(token.FOREIGN):
		if _, err := p.expect(token.KEY, "KEY"); err != nil {
			return err
		}
		fromCols, err := p.parseColumnNameList()
		if err != nil {
			return err
		}
		if _, err := p.expect(token.REFERENCES, "REFERENCES"); err != nil {
			return err
		}
		toTable, err := p.expectName()
		if err != nil {
			return err
		}
		var toCols []string
		if p.check(token.LParen) {
			toCols, err = p.parseColumnNameList()
			if err != nil {
				return err
			}
		}
		fk := &ForeignKeyDef{FromColumns: fromCols, ToTable: toTable, ToColumns: toCols}
		if err := p.parseForeignKeyClauses(fk); err != nil {
			return err
		}
		stmt.ForeignKeys = append(stmt.ForeignKeys, fk)
	default:
		return p.errorf("expected a table constraint after CONSTRAINT, got %q", p.peek().text)
	}
	return nil
}

func (p *Parser) parseColumnNameList() ([]string, error) {
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	var names []string
	for {
		n, err := p.expectName()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		p.match(token.ASC)
		p.match(token.DESC)
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseCreateIndex(unique bool) (*CreateIndexStmt, error) {
	stmt := &CreateIndexStmt{Unique: unique}
	if p.match(token.IF) {
		if _, err := p.expect(token.NOT, "NOT"); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.EXISTS, "EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Name = db, name
	if _, err := p.expect(token.ON, "ON"); err != nil {
		return nil, err
	}
	table, err := p.expectName()
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	cols, err := p.parseColumnNameList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = cols
	return stmt, nil
}

func (p *Parser) parseCreateView(temp bool) (*CreateViewStmt, error) {
	stmt := &CreateViewStmt{Temp: temp}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Name = db, name
	if p.check(token.LParen) {
		cols, err := p.parseColumnNameList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}
	if _, err := p.expect(token.AS, "AS"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SELECT, "SELECT"); err != nil {
		return nil, err
	}
	sel, err := p.parseSelectBody()
	if err != nil {
		return nil, err
	}
	stmt.Select = sel
	return stmt, nil
}

func (p *Parser) parseCreateTrigger() (*CreateTriggerStmt, error) {
	stmt := &CreateTriggerStmt{Timing: schema.TriggerBefore, Event: schema.TriggerInsert}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Name = db, name
	switch {
	case p.match(token.BEFORE):
		stmt.Timing = schema.TriggerBefore
	case p.match(token.AFTER):
		stmt.Timing = schema.TriggerAfter
	case p.match(token.INSTEAD):
		if _, err := p.expect(token.OF, "OF"); err != nil {
			return nil, err
		}
		stmt.Timing = schema.TriggerAfter
	}
	switch {
	case p.match(token.INSERT):
		stmt.Event = schema.TriggerInsert
	case p.match(token.UPDATE):
		stmt.Event = schema.TriggerUpdate
	case p.match(token.DELETE):
		stmt.Event = schema.TriggerDelete
	default:
		return nil, p.errorf("expected INSERT, UPDATE or DELETE, got %q", p.peek().text)
	}
	if _, err := p.expect(token.ON, "ON"); err != nil {
		return nil, err
	}
	table, err := p.expectName()
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if p.match(token.FOR) {
		if _, err := p.expect(token.EACH, "EACH"); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ROW, "ROW"); err != nil {
			return nil, err
		}
		stmt.ForEach = true
	}
	if _, err := p.expect(token.BEGIN, "BEGIN"); err != nil {
		return nil, err
	}
	// The trigger body is kept as raw statement text (spec §3.2's
	// Trigger.Body contract) rather than parsed now; the text is copied
	// out so the body survives past this Parser's token buffer.
	var body []string
	start := p.pos
	depth := 0
	for {
		if p.check(token.BEGIN) {
			depth++
		}
		if p.check(token.END) {
			if depth == 0 {
				break
			}
			depth--
		}
		if p.check(token.EOF) {
			return nil, p.errorf("unterminated trigger body, expected END")
		}
		if p.check(token.Semi) && p.pos > start {
			body = append(body, p.sourceBetween(start, p.pos))
			p.advance()
			start = p.pos
			continue
		}
		p.advance()
	}
	if p.pos > start {
		if tail := p.sourceBetween(start, p.pos); tail != "" {
			body = append(body, tail)
		}
	}
	if _, err := p.expect(token.END, "END"); err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// sourceBetween re-renders the token texts from [from, to) space-joined.
// It is an approximation of the original source span (spacing/casing of
// literals is not preserved) sufficient for package ddl's re-parse.
func (p *Parser) sourceBetween(from, to int) string {
	s := ""
	for i := from; i < to; i++ {
		if s != "" {
			s += " "
		}
		s += p.toks[i].text
	}
	return s
}

// ---- DROP ----

func (p *Parser) parseDrop() (*Stmt, error) {
	switch {
	case p.match(token.TABLE):
		s, err := p.parseDropName()
		return &Stmt{Kind: StmtDropTable, DropTable: s}, err
	case p.match(token.INDEX):
		s, err := p.parseDropName()
		return &Stmt{Kind: StmtDropIndex, DropIndex: s}, err
	case p.match(token.VIEW):
		s, err := p.parseDropName()
		return &Stmt{Kind: StmtDropView, DropView: s}, err
	case p.match(token.TRIGGER):
		s, err := p.parseDropName()
		return &Stmt{Kind: StmtDropTrigger, DropTrigger: s}, err
	}
	return nil, p.errorf("expected TABLE, INDEX, VIEW or TRIGGER after DROP")
}

func (p *Parser) parseDropName() (*DropStmt, error) {
	stmt := &DropStmt{}
	if p.match(token.IF) {
		if _, err := p.expect(token.EXISTS, "EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfExists = true
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Name = db, name
	return stmt, nil
}

// ---- INSERT / UPDATE / DELETE ----

func (p *Parser) parseInsert() (*InsertStmt, error) {
	action := schema.ConflictAbort
	if p.match(token.OR) {
		action = p.parseConflictAction()
	}
	return p.parseInsertBody(action)
}

func (p *Parser) parseInsertBody(action schema.ConflictAction) (*InsertStmt, error) {
	if _, err := p.expect(token.INTO, "INTO"); err != nil {
		return nil, err
	}
	db, table, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{Database: db, Table: table, OnConflict: action}
	if p.check(token.LParen) {
		cols, err := p.parseColumnNameList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}
	if p.match(token.SELECT) {
		sel, err := p.parseSelectBody()
		if err != nil {
			return nil, err
		}
		stmt.Select = sel
		return stmt, nil
	}
	if _, err := p.expect(token.VALUES, "VALUES"); err != nil {
		return nil, err
	}
	for {
		if _, err := p.expect(token.LParen, "("); err != nil {
			return nil, err
		}
		var row []*expr.Expr
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			row = append(row, e)
			if !p.match(token.Comma) {
				break
			}
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.match(token.Comma) {
			break
		}
	}
	return stmt, nil
}

func (p *Parser) parseConflictAction() schema.ConflictAction {
	switch {
	case p.match(token.ROLLBACK):
		return schema.ConflictRollback
	case p.match(token.REPLACE):
		return schema.ConflictReplace
	case p.match(token.ID):
		switch toLowerASCII(p.toks[p.pos-1].text) {
		case "abort":
			return schema.ConflictAbort
		case "fail":
			return schema.ConflictFail
		case "ignore":
			return schema.ConflictIgnore
		}
	}
	return schema.ConflictAbort
}

func (p *Parser) parseUpdate() (*UpdateStmt, error) {
	action := schema.ConflictAbort
	if p.match(token.OR) {
		action = p.parseConflictAction()
	}
	db, table, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Database: db, Table: table, OnConflict: action}
	if p.check(token.ID) {
		stmt.Alias = p.advance().text
	}
	if _, err := p.expect(token.SET, "SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Eq, "="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Assigns = append(stmt.Assigns, Assignment{Column: col, Value: val})
		if !p.match(token.Comma) {
			break
		}
	}
	if p.match(token.WHERE) {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (*DeleteStmt, error) {
	if _, err := p.expect(token.FROM, "FROM"); err != nil {
		return nil, err
	}
	db, table, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{Database: db, Table: table}
	if p.check(token.ID) {
		stmt.Alias = p.advance().text
	}
	if p.match(token.WHERE) {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

// ---- PRAGMA ----

func (p *Parser) parsePragma() (*PragmaStmt, error) {
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	stmt := &PragmaStmt{Name: name}
	switch {
	case p.match(token.Eq):
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		stmt.Value = v
	case p.match(token.LParen):
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		stmt.Value = v
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func equalFold(a, b string) bool { return toLowerASCII(a) == toLowerASCII(b) }

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
