package parser

import (
	"fmt"
	"strconv"

	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/lexer"
	"forwardbackward/token"
	"forwardbackward/value"
)

// FormulaParser parses the Forward (formula) dialect: one expression per
// cell (spec §6.4). It is parameterized by the coordinates of the cell
// being parsed — relative cell references are stored as offsets from that
// cell, so the same parsed expression re-anchors when evaluated from a
// different cell frame (spec §4.10 step 1).
type FormulaParser struct {
	lex      *lexer.Lexer
	cur      token.Token
	peekTok  token.Token
	builtins map[string]value.Value
	col, row int
	errs     []error
}

// NewFormulaParser builds a parser for one cell's input. builtins is the
// built-in-name map `@NAME` calls resolve against (spec §3
// CallingContext).
func NewFormulaParser(source, input string, builtins map[string]value.Value, col, row int) *FormulaParser {
	p := &FormulaParser{
		lex:      lexer.NewFormula(source, input),
		builtins: builtins,
		col:      col,
		row:      row,
	}
	p.advance()
	p.advance()
	return p
}

func (p *FormulaParser) advance() {
	p.cur = p.peekTok
	p.peekTok = p.lex.Next()
}

func (p *FormulaParser) errorf(tok token.Token, format string, args ...any) {
	p.errs = append(p.errs, &engine.ParseError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *FormulaParser) expect(tt token.Type) token.Token {
	t := p.cur
	if p.cur.Type != tt {
		p.errorf(p.cur, "expected %s, got %s %q", tt, p.cur.Type, p.cur.Text)
	}
	p.advance()
	return t
}

// Parse parses the full cell expression; trailing input is an error.
func (p *FormulaParser) Parse() (ast.Expr, error) {
	e := p.parseComparison()
	if p.cur.Type != token.EOF {
		p.errorf(p.cur, "unexpected %s %q after expression", p.cur.Type, p.cur.Text)
	}
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return e, nil
}

// parseComparison is precedence level 1: = <> > < >= <=, left
// associative (spec §6.4).
func (p *FormulaParser) parseComparison() ast.Expr {
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

// parseAdditive is level 2: + - &, left associative.
func (p *FormulaParser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for {
		var op ast.BinOp
		switch p.cur.Type {
		case token.PLUS:
			op = ast.Plus
		case token.MINUS:
			op = ast.Minus
		case token.AMP:
			op = ast.Cat
		default:
			return left
		}
		tok := p.cur
		p.advance()
		right := p.parseMultiplicative()
		left = ast.NewBinary(&tok, op, left, right)
	}
}

// parseMultiplicative is level 3: * /, left associative.
func (p *FormulaParser) parseMultiplicative() ast.Expr {
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

// parseUnary is level 4: unary minus.
func (p *FormulaParser) parseUnary() ast.Expr {
	if p.cur.Type == token.MINUS {
		tok := p.cur
		p.advance()
		return ast.NewUnary(&tok, ast.Negate, p.parseUnary())
	}
	return p.parseRange()
}

// parseRange is level 5: the `:` range constructor, binding tighter than
// arithmetic so `@SUM(A0:B1)+1` groups the range first.
func (p *FormulaParser) parseRange() ast.Expr {
	left := p.parsePostfix()
	for p.cur.Type == token.COLON {
		tok := p.cur
		p.advance()
		right := p.parsePostfix()
		left = ast.NewMakeRange(&tok, left, right)
	}
	return left
}

// parsePostfix handles the move-reference operator `expr!identifier`
// (spec §6.4), which retags a reference or range with a sheet name.
func (p *FormulaParser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for p.cur.Type == token.BANG {
		tok := p.cur
		p.advance()
		name := p.expect(token.IDENT)
		e = ast.NewMoveReference(&tok, name.Text, e)
	}
	return e
}

func (p *FormulaParser) parsePrimary() ast.Expr {
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
	case token.CELLREF:
		p.advance()
		ref, ok := p.decomposeCellRef(tok)
		if !ok {
			return ast.NewConstant(&tok, value.NilValue)
		}
		return ast.NewConstant(&tok, ref)
	case token.NAME:
		p.advance()
		return ast.NewName(&tok, tok.Text)
	case token.AT:
		return p.parseFunctionCall()
	case token.LPAREN:
		p.advance()
		e := p.parseComparison()
		p.expect(token.RPAREN)
		return e
	default:
		p.errorf(tok, "unexpected token %s %q in formula", tok.Type, tok.Text)
		p.advance()
		return ast.NewConstant(&tok, value.NilValue)
	}
}

// parseFunctionCall parses `@NAME(arg; arg; ...)` — the separator is a
// semicolon, not a comma (spec §6.4).
func (p *FormulaParser) parseFunctionCall() ast.Expr {
	at := p.cur
	p.advance() // '@'
	name := p.expect(token.IDENT)
	fn, ok := p.builtins[name.Text]
	if !ok {
		p.errorf(name, "unknown function @%s", name.Text)
		fn = value.NilValue
	}
	p.expect(token.LPAREN)
	var args []ast.Expr
	if p.cur.Type != token.RPAREN {
		for {
			args = append(args, p.parseComparison())
			if p.cur.Type != token.SEMI {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	callee := ast.NewConstant(&name, fn)
	return ast.NewFunctionCall(&at, callee, args)
}

// decomposeCellRef splits a CELLREF token's text
// (`[$]?[A-Z]{1,4}[$]?[0-9]+`) into a CellRef value. Relative components
// are stored as offsets from the cell being parsed, so evaluation from
// any cell frame re-anchors them (spec §4.10 step 1).
func (p *FormulaParser) decomposeCellRef(tok token.Token) (*value.CellRef, bool) {
	text := tok.Text
	i := 0
	colAbs := false
	if i < len(text) && text[i] == '$' {
		colAbs = true
		i++
	}
	start := i
	for i < len(text) && text[i] >= 'A' && text[i] <= 'Z' {
		i++
	}
	colName := text[start:i]
	rowAbs := false
	if i < len(text) && text[i] == '$' {
		rowAbs = true
		i++
	}
	rowNum, err := strconv.Atoi(text[i:])
	if colName == "" || err != nil {
		p.errorf(tok, "malformed cell reference %q", text)
		return nil, false
	}
	col := value.ColumnIndex(colName)
	row := rowNum
	if !colAbs {
		col -= p.col
	}
	if !rowAbs {
		row -= p.row
	}
	return &value.CellRef{ColAbsolute: colAbs, Col: col, RowAbsolute: rowAbs, Row: row}, true
}
