package parser

import (
	"github.com/dbsql/dbsql/expr"
	"github.com/dbsql/dbsql/token"
)

// parseExpr is the expression grammar's entry point: OR is the loosest
// binding operator (spec §4.1's expression-construction actions, here
// expressed as direct expr.NewBinary/NewUnary calls rather than a
// parser-generator action stack).
func (p *Parser) parseExpr() (*expr.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (*expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(token.OR) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.OpOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (*expr.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.match(token.AND) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.OpAnd, left, right)
	}
	return left, nil
}

func (p *Parser) parseNot() (*expr.Expr, error) {
	if p.match(token.NOT) {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.OpNot, e), nil
	}
	return p.parseComparison()
}

// parseComparison handles the comparison/predicate layer, chaining
// left-associatively (a = b = c parses as (a = b) = c):
// =, <>, <, <=, >, >=, IS [NOT] NULL, [NOT] IN (...), [NOT] LIKE,
// [NOT] BETWEEN x AND y (spec §4.2's predicate forms).
func (p *Parser) parseComparison() (*expr.Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.Eq):
			left, err = p.comparisonRHS(expr.OpEq, left)
		case p.match(token.Ne):
			left, err = p.comparisonRHS(expr.OpNe, left)
		case p.match(token.Lt):
			left, err = p.comparisonRHS(expr.OpLt, left)
		case p.match(token.Le):
			left, err = p.comparisonRHS(expr.OpLe, left)
		case p.match(token.Gt):
			left, err = p.comparisonRHS(expr.OpGt, left)
		case p.match(token.Ge):
			left, err = p.comparisonRHS(expr.OpGe, left)
		case p.match(token.IS):
			not := p.match(token.NOT)
			if _, e := p.expect(token.NULL, "NULL"); e != nil {
				return nil, e
			}
			n := expr.NewUnary(expr.OpIsNull, left)
			if not {
				left = expr.NewUnary(expr.OpNot, n)
			} else {
				left = n
			}
		case p.check(token.NOT) && (p.peekAt(1).tok == token.IN || p.peekAt(1).tok == token.LIKE || p.peekAt(1).tok == token.BETWEEN):
			p.advance()
			left, err = p.parseNegatablePredicate(left, true)
		case p.check(token.IN) || p.check(token.LIKE) || p.check(token.BETWEEN):
			left, err = p.parseNegatablePredicate(left, false)
		default:
			return left, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) comparisonRHS(op expr.Op, left *expr.Expr) (*expr.Expr, error) {
	right, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return expr.NewBinary(op, left, right), nil
}

func (p *Parser) parseNegatablePredicate(left *expr.Expr, negate bool) (*expr.Expr, error) {
	var built *expr.Expr
	var err error
	switch {
	case p.match(token.IN):
		built, err = p.parseInPredicate(left)
	case p.match(token.LIKE):
		built, err = p.parseLikePredicate(left)
	case p.match(token.BETWEEN):
		built, err = p.parseBetweenPredicate(left)
	}
	if err != nil {
		return nil, err
	}
	if negate {
		return expr.NewUnary(expr.OpNot, built), nil
	}
	return built, nil
}

func (p *Parser) parseInPredicate(left *expr.Expr) (*expr.Expr, error) {
	if _, err := p.expect(token.LParen, "("); err != nil {
		return nil, err
	}
	if p.check(token.SELECT) {
		p.advance()
		sel, err := p.parseSelectBody()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		e := expr.NewUnary(expr.OpInSelect, left)
		e.Select = sel
		return e, nil
	}
	var items []*expr.Expr
	for {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	e := expr.NewUnary(expr.OpInList, left)
	e.List = items
	return e, nil
}

// parseLikePredicate desugars "a LIKE b" into a like(a,b) function call,
// since LIKE's matching semantics belong to package vdbe's built-in scalar
// functions (spec §4.9), not to a dedicated comparison opcode.
func (p *Parser) parseLikePredicate(left *expr.Expr) (*expr.Expr, error) {
	pattern, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return expr.NewFunction("like", []*expr.Expr{left, pattern}), nil
}

func (p *Parser) parseBetweenPredicate(left *expr.Expr) (*expr.Expr, error) {
	lo, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AND, "AND"); err != nil {
		return nil, err
	}
	hi, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	ge := expr.NewBinary(expr.OpGe, left, lo)
	le := expr.NewBinary(expr.OpLe, left.Clone(), hi)
	return expr.NewBinary(expr.OpAnd, ge, le), nil
}

func (p *Parser) parseConcat() (*expr.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.match(token.Concat) {
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.OpConcat, left, right)
	}
	return left, nil
}

func (p *Parser) parseAdditive() (*expr.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.Plus):
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpAdd, left, right)
		case p.match(token.Minus):
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpSub, left, right)
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseMultiplicative() (*expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(token.Star):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpMul, left, right)
		case p.match(token.Slash):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpDiv, left, right)
		case p.match(token.Percent):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = expr.NewBinary(expr.OpRem, left, right)
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseUnary() (*expr.Expr, error) {
	switch {
	case p.match(token.Minus):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.OpNeg, e), nil
	case p.match(token.Plus):
		return p.parseUnary()
	case p.match(token.BitNot):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.OpBitNot, e), nil
	case p.match(token.NOT):
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.OpNot, e), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*expr.Expr, error) {
	tk := p.peek()
	switch {
	case tk.tok == token.Int:
		p.advance()
		return expr.NewLiteral(expr.OpInt, tk.text), nil
	case tk.tok == token.Float:
		p.advance()
		return expr.NewLiteral(expr.OpReal, tk.text), nil
	case tk.tok == token.String:
		p.advance()
		return expr.NewLiteral(expr.OpString, tk.text), nil
	case tk.tok == token.NULL:
		p.advance()
		return expr.NewLiteral(expr.OpNull, ""), nil
	case tk.tok == token.Variable:
		p.advance()
		idx, _ := parseIntPrefix(tk.text)
		return expr.NewVariable(idx), nil
	case tk.tok == token.EXISTS:
		p.advance()
		if _, err := p.expect(token.LParen, "("); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SELECT, "SELECT"); err != nil {
			return nil, err
		}
		sel, err := p.parseSelectBody()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		e := &expr.Expr{Op: expr.OpExists, Select: sel, ITable: -1, IColumn: -1}
		return e, nil
	case tk.tok == token.CASE:
		return p.parseCase()
	case tk.tok == token.LParen:
		p.advance()
		if p.check(token.SELECT) {
			p.advance()
			sel, err := p.parseSelectBody()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen, ")"); err != nil {
				return nil, err
			}
			return &expr.Expr{Op: expr.OpSelectExpr, Select: sel, ITable: -1, IColumn: -1}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case tk.tok == token.ID:
		return p.parseIdOrFunctionOrDot()
	}
	return nil, p.errorf("expected expression, got %q", tk.text)
}

func (p *Parser) parseIdOrFunctionOrDot() (*expr.Expr, error) {
	name := p.advance().text

	if p.check(token.LParen) {
		return p.parseFunctionCall(name)
	}
	if p.match(token.Dot) {
		second, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if p.match(token.Dot) {
			third, err := p.expectName()
			if err != nil {
				return nil, err
			}
			return expr.NewDot(name, second, third), nil
		}
		return expr.NewDot("", name, second), nil
	}
	return expr.NewId(name), nil
}

func (p *Parser) parseFunctionCall(name string) (*expr.Expr, error) {
	p.advance() // (
	var args []*expr.Expr
	if p.check(token.Star) {
		// count(*): represented as a zero-arg aggregate call, matching the
		// ROWID-counting semantics of COUNT with no argument.
		p.advance()
	} else if !p.check(token.RParen) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if _, err := p.expect(token.RParen, ")"); err != nil {
		return nil, err
	}
	return expr.NewFunction(name, args), nil
}

func (p *Parser) parseCase() (*expr.Expr, error) {
	p.advance() // CASE
	e := &expr.Expr{Op: expr.OpCase, ITable: -1, IColumn: -1}
	var base *expr.Expr
	if !p.check(token.WHEN) {
		var err error
		base, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	for p.match(token.WHEN) {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if base != nil {
			cond = expr.NewBinary(expr.OpEq, base.Clone(), cond)
		}
		if _, err := p.expect(token.THEN, "THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e.List = append(e.List, cond, result)
	}
	if len(e.List) == 0 {
		return nil, p.errorf("CASE requires at least one WHEN clause")
	}
	if p.match(token.ELSE) {
		elseResult, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		e.List = append(e.List, elseResult)
	} else {
		e.List = append(e.List, expr.NewLiteral(expr.OpNull, ""))
	}
	if _, err := p.expect(token.END, "END"); err != nil {
		return nil, err
	}
	return e, nil
}

func parseIntPrefix(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
