package parser

import (
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/token"
)

// parseSelectBody parses everything after the leading SELECT keyword
// (already consumed by the caller), including any compound-select tail
// (UNION/UNION ALL/INTERSECT/EXCEPT) chained onto it.
func (p *Parser) parseSelectBody() (*expr.Select, error) {
	sel, err := p.parseSelectCore()
	if err != nil {
		return nil, err
	}
	for {
		var op expr.CompoundOp
		switch {
		case p.match(token.UNION):
			if p.match(token.ALL) {
				op = expr.CompoundUnionAll
			} else {
				op = expr.CompoundUnion
			}
		case p.match(token.INTERSECT):
			op = expr.CompoundIntersect
		case p.match(token.EXCEPT):
			op = expr.CompoundExcept
		default:
			return p.parseOrderLimit(sel)
		}
		if _, err := p.expect(token.SELECT, "SELECT"); err != nil {
			return nil, err
		}
		next, err := p.parseSelectCore()
		if err != nil {
			return nil, err
		}
		next.Op = op
		next.Prior = sel
		sel = next
	}
}

// parseOrderLimit attaches a trailing ORDER BY/LIMIT/OFFSET clause, which
// binds to the whole compound SELECT rather than to any one arm.
func (p *Parser) parseOrderLimit(sel *expr.Select) (*expr.Select, error) {
	if p.match(token.ORDER) {
		if _, err := p.expect(token.BY, "BY"); err != nil {
			return nil, err
		}
		terms, err := p.parseOrderingTermList()
		if err != nil {
			return nil, err
		}
		sel.OrderBy = terms
	}
	if p.match(token.LIMIT) {
		lim, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		sel.Limit = lim
		if p.match(token.Comma) {
			off, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			sel.Offset = lim
			sel.Limit = off
		} else if p.match(token.OFFSET) {
			off, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			sel.Offset = off
		}
	}
	return sel, nil
}

func (p *Parser) parseOrderingTermList() ([]expr.OrderingTerm, error) {
	var terms []expr.OrderingTerm
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		t := expr.OrderingTerm{Expr: e}
		switch {
		case p.match(token.ASC):
		case p.match(token.DESC):
			t.Desc = true
		}
		terms = append(terms, t)
		if !p.match(token.Comma) {
			break
		}
	}
	return terms, nil
}

// parseSelectCore parses one SELECT arm: DISTINCT/ALL, result columns,
// FROM/WHERE/GROUP BY/HAVING, with no ORDER BY/LIMIT (those bind to the
// whole compound, parsed by parseOrderLimit).
func (p *Parser) parseSelectCore() (*expr.Select, error) {
	sel := &expr.Select{}
	switch {
	case p.match(token.DISTINCT):
		sel.Distinct = true
	case p.match(token.ALL):
	}

	cols, err := p.parseResultColumnList()
	if err != nil {
		return nil, err
	}
	sel.ResultColumns = cols

	if p.match(token.FROM) {
		from, err := p.parseFromClause()
		if err != nil {
			return nil, err
		}
		sel.From = from
	}
	if p.match(token.WHERE) {
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		sel.Where = w
	}
	if p.match(token.GROUP) {
		if _, err := p.expect(token.BY, "BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
			if !p.match(token.Comma) {
				break
			}
		}
		if p.match(token.HAVING) {
			h, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sel.Having = h
		}
	}
	return sel, nil
}

func (p *Parser) parseResultColumnList() ([]expr.ResultColumn, error) {
	var cols []expr.ResultColumn
	for {
		col, err := p.parseResultColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if !p.match(token.Comma) {
			break
		}
	}
	return cols, nil
}

func (p *Parser) parseResultColumn() (expr.ResultColumn, error) {
	if p.check(token.Star) {
		p.advance()
		return expr.ResultColumn{Star: true}, nil
	}
	// table.* needs two tokens of lookahead past a bare identifier before
	// falling back to the general expression parser.
	if p.check(token.ID) && p.peekAt(1).tok == token.Dot && p.peekAt(2).tok == token.Star {
		table := p.advance().text
		p.advance() // .
		p.advance() // *
		return expr.ResultColumn{Star: true, StarTable: table}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return expr.ResultColumn{}, err
	}
	rc := expr.ResultColumn{Expr: e}
	switch {
	case p.match(token.AS):
		alias, err := p.expectName()
		if err != nil {
			return expr.ResultColumn{}, err
		}
		rc.Alias = alias
	case p.check(token.ID):
		rc.Alias = p.advance().text
	}
	return rc, nil
}

// parseFromClause parses a comma/JOIN-separated sequence of source items.
// Comma-joins and JOIN-joins are folded into the same flat []SrcItem list
// (spec §4.4's fill_in_column_list treats both uniformly as inner-join
// candidates unless an ON/USING clause says otherwise).
func (p *Parser) parseFromClause() ([]expr.SrcItem, error) {
	var items []expr.SrcItem
	first, err := p.parseSrcItem(expr.JoinInner)
	if err != nil {
		return nil, err
	}
	items = append(items, first)
	for {
		switch {
		case p.match(token.Comma):
			item, err := p.parseSrcItem(expr.JoinInner)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case p.check(token.JOIN) || p.check(token.INNER) || p.check(token.LEFT) || p.check(token.CROSS):
			jt, err := p.parseJoinKeyword()
			if err != nil {
				return nil, err
			}
			item, err := p.parseSrcItem(jt)
			if err != nil {
				return nil, err
			}
			switch {
			case p.match(token.ON):
				on, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				item.On = on
				item.FromJoin = true
			case p.match(token.USING):
				cols, err := p.parseColumnNameList()
				if err != nil {
					return nil, err
				}
				item.Using = cols
				item.FromJoin = true
			}
			items = append(items, item)
		default:
			return items, nil
		}
	}
}

func (p *Parser) parseJoinKeyword() (expr.JoinType, error) {
	switch {
	case p.match(token.JOIN):
		return expr.JoinInner, nil
	case p.match(token.INNER):
		if _, err := p.expect(token.JOIN, "JOIN"); err != nil {
			return 0, err
		}
		return expr.JoinInner, nil
	case p.match(token.CROSS):
		if _, err := p.expect(token.JOIN, "JOIN"); err != nil {
			return 0, err
		}
		return expr.JoinCross, nil
	case p.match(token.LEFT):
		p.match(token.OUTER)
		if _, err := p.expect(token.JOIN, "JOIN"); err != nil {
			return 0, err
		}
		return expr.JoinLeftOuter, nil
	}
	return 0, p.errorf("expected join keyword, got %q", p.peek().text)
}

func (p *Parser) parseSrcItem(jt expr.JoinType) (expr.SrcItem, error) {
	if p.match(token.LParen) {
		if _, err := p.expect(token.SELECT, "SELECT"); err != nil {
			return expr.SrcItem{}, err
		}
		sub, err := p.parseSelectBody()
		if err != nil {
			return expr.SrcItem{}, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return expr.SrcItem{}, err
		}
		item := expr.SrcItem{Subquery: sub, Join: jt}
		if p.match(token.AS) {
			alias, err := p.expectName()
			if err != nil {
				return expr.SrcItem{}, err
			}
			item.Alias = alias
		} else if p.check(token.ID) {
			item.Alias = p.advance().text
		}
		return item, nil
	}
	db, table, err := p.parseQualifiedName()
	if err != nil {
		return expr.SrcItem{}, err
	}
	item := expr.SrcItem{Database: db, Table: table, Join: jt}
	switch {
	case p.match(token.AS):
		alias, err := p.expectName()
		if err != nil {
			return expr.SrcItem{}, err
		}
		item.Alias = alias
	case p.check(token.ID):
		item.Alias = p.advance().text
	}
	return item, nil
}
