package parser

import (
	"forwardbackward/ast"
	"forwardbackward/numeric"
	"forwardbackward/token"
	"forwardbackward/value"
)

// lambdaCounter-free naming: anonymous function literals all share the
// name "<lambda>" since nothing ever looks a literal up by name (only
// BuildFunction's static Def pointer identity matters, per spec §3).
const lambdaName = "<lambda>"

var scriptNumEnv = numeric.NewEnvironment()

// parseExpr parses a full expression at the lowest precedence (ternary).
func (p *ScriptParser) parseExpr() ast.Expr {
	return p.parseTernary()
}

func (p *ScriptParser) parseTernary() ast.Expr {
	cond := p.parseShortOr()
	if p.cur.Type == token.QUESTION {
		tok := p.cur
		p.advance()
		then := p.parseExpr()
		p.expect(token.COLON)
		els := p.parseTernary()
		return ast.NewTernary(&tok, cond, then, els)
	}
	return cond
}

func (p *ScriptParser) parseShortOr() ast.Expr {
	left := p.parseShortAnd()
	for p.cur.Type == token.PIPE {
		tok := p.cur
		p.advance()
		right := p.parseShortAnd()
		left = ast.NewBinary(&tok, ast.ShortOr, left, right)
	}
	return left
}

func (p *ScriptParser) parseShortAnd() ast.Expr {
	left := p.parseComparison()
	for p.cur.Type == token.AMP {
		tok := p.cur
		p.advance()
		right := p.parseComparison()
		left = ast.NewBinary(&tok, ast.ShortAnd, left, right)
	}
	return left
}

func (p *ScriptParser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinOp
		switch p.cur.Type {
		case token.ASSIGN:
			op = ast.Equals
		case token.NOT_EQ:
			op = ast.NotEqual
		case token.GT:
			op = ast.Greater
		case token.LT:
			op = ast.Less
		case token.GE:
			op = ast.GEQ
		case token.LE:
			op = ast.LEQ
		default:
			return left
		}
		tok := p.cur
		p.advance()
		right := p.parseAdditive()
		left = ast.NewBinary(&tok, op, left, right)
	}
}

func (p *ScriptParser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		tok := p.cur
		op := ast.Plus
		if tok.Type == token.MINUS {
			op = ast.Minus
		}
		p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinary(&tok, op, left, right)
	}
	return left
}

func (p *ScriptParser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur.Type == token.STAR || p.cur.Type == token.SLASH {
		tok := p.cur
		op := ast.Multiply
		if tok.Type == token.SLASH {
			op = ast.Divide
		}
		p.advance()
		right := p.parseUnary()
		left = ast.NewBinary(&tok, op, left, right)
	}
	return left
}

func (p *ScriptParser) parseUnary() ast.Expr {
	switch p.cur.Type {
	case token.MINUS:
		tok := p.cur
		p.advance()
		return ast.NewUnary(&tok, ast.Negate, p.parseUnary())
	case token.BANG:
		tok := p.cur
		p.advance()
		return ast.NewUnary(&tok, ast.Not, p.parseUnary())
	default:
		return p.parsePostfix()
	}
}

func (p *ScriptParser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.cur.Type {
		case token.LPAREN:
			tok := p.cur
			p.advance()
			var args []ast.Expr
			if p.cur.Type != token.RPAREN {
				for {
					args = append(args, p.parseExpr())
					if p.cur.Type != token.COMMA {
						break
					}
					p.advance()
				}
			}
			p.expect(token.RPAREN)
			e = ast.NewFunctionCall(&tok, e, args)
		case token.LBRACKET:
			tok := p.cur
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			e = ast.NewDerefVar(&tok, e, idx)
		default:
			return e
		}
	}
}

func (p *ScriptParser) parsePrimary() ast.Expr {
	tok := p.cur
	switch tok.Type {
	case token.NUMBER:
		p.advance()
		n, err := scriptNumEnv.FromString(tok.Text)
		if err != nil {
			p.errorf(tok, "invalid number literal %q", tok.Text)
		}
		return ast.NewConstant(&tok, &value.Float{N: n})
	case token.STRING:
		p.advance()
		return ast.NewConstant(&tok, &value.String{S: tok.Text})
	case token.IDENT:
		p.advance()
		return p.resolveRead(tok, tok.Text)
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	case token.FUNCTION:
		return p.parseFunctionLiteral()
	case token.LBRACE:
		return p.parseBraceLiteral()
	default:
		p.errorf(tok, "unexpected token %s %q in expression", tok.Type, tok.Text)
		p.advance()
		return ast.NewConstant(&tok, value.NilValue)
	}
}

// parseBraceLiteral parses `{ }` (empty array), `{ e, e, ... }` (array),
// or `{ k: v, k: v, ... }` (dictionary) — the kind is decided by whether
// a colon follows the first element.
func (p *ScriptParser) parseBraceLiteral() ast.Expr {
	tok := p.cur
	p.advance() // '{'
	if p.cur.Type == token.RBRACE {
		p.advance()
		return ast.NewArrayLit(&tok, nil)
	}
	first := p.parseExpr()
	if p.cur.Type == token.COLON {
		p.advance()
		firstVal := p.parseExpr()
		keys := []ast.Expr{first}
		vals := []ast.Expr{firstVal}
		for p.cur.Type == token.COMMA {
			p.advance()
			k := p.parseExpr()
			p.expect(token.COLON)
			v := p.parseExpr()
			keys = append(keys, k)
			vals = append(vals, v)
		}
		p.expect(token.RBRACE)
		return ast.NewDictLit(&tok, keys, vals)
	}
	elems := []ast.Expr{first}
	for p.cur.Type == token.COMMA {
		p.advance()
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RBRACE)
	return ast.NewArrayLit(&tok, elems)
}

func (p *ScriptParser) parseFunctionLiteral() ast.Expr {
	tok := p.cur
	p.advance() // 'function'
	def, captures := p.parseFunctionTail(tok, lambdaName)
	return ast.NewBuildFunction(&tok, def, captures)
}
