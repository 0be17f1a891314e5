// Package parser implements the recursive-descent parsers for both
// dialects (spec §4.4/§6.4/§6.5), driving symtab name resolution as it
// goes (spec §4.5). Grounded on the teacher's Pratt-style parser package:
// same two-token lookahead shape, same "parse expr at precedence level"
// recursion, generalized to this spec's grammar and wired into
// symtab.Resolver instead of the teacher's map-based environment.
package parser

import (
	"fmt"
	"strconv"

	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/lexer"
	"forwardbackward/symtab"
	"forwardbackward/token"
)

// funcLitFrame tracks the in-progress capture list for one function body
// (named or literal) being parsed, so BuildFunction's capture-expression
// list can be assembled in the same order symtab.FunctionContext assigns
// capture indices.
type funcLitFrame struct {
	fc           *symtab.FunctionContext
	captureInits []ast.Expr
}

// ScriptParser parses the Backward (script) dialect into an *ast.Program.
type ScriptParser struct {
	lex      *lexer.Lexer
	cur      token.Token
	peekTok  token.Token
	resolver *symtab.Resolver
	globals  *symtab.Scope
	lits     []*funcLitFrame
	funcs    map[string]*ast.FunctionDef
	errs     []error
}

func NewScriptParser(source, input string) *ScriptParser {
	return NewScriptParserWithGlobals(source, input, symtab.NewGlobalScope())
}

// NewScriptParserWithGlobals parses against a caller-owned global scope,
// so built-ins installed before the parse (stdlib.Install) resolve as
// globals and successive top-level parses share one slot table.
func NewScriptParserWithGlobals(source, input string, globals *symtab.Scope) *ScriptParser {
	p := &ScriptParser{
		lex:      lexer.NewScript(source, input),
		globals:  globals,
		resolver: symtab.NewResolver(globals),
		funcs:    make(map[string]*ast.FunctionDef),
	}
	// Pre-scan for `function NAME` headers so a function can be called
	// before its textual definition (forward reference): each name gets a
	// placeholder *ast.FunctionDef now, filled in place once
	// parseNamedFunction reaches its real body. Pointer identity is
	// preserved, so any Constant(Function) built against the placeholder
	// earlier in the parse sees the completed definition at eval time.
	p.prescanFunctionNames(source, input)
	p.advance()
	p.advance()
	return p
}

func (p *ScriptParser) prescanFunctionNames(source, input string) {
	scan := lexer.NewScript(source, input)
	prev := scan.Next()
	for prev.Type != token.EOF {
		next := scan.Next()
		if prev.Type == token.FUNCTION && next.Type == token.IDENT {
			if _, exists := p.funcs[next.Text]; !exists {
				p.funcs[next.Text] = &ast.FunctionDef{Name: next.Text}
			}
		}
		prev = next
	}
}

func (p *ScriptParser) advance() {
	p.cur = p.peekTok
	p.peekTok = p.lex.Next()
}

func (p *ScriptParser) errorf(tok token.Token, format string, args ...any) {
	p.errs = append(p.errs, &engine.ParseError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *ScriptParser) expect(tt token.Type) token.Token {
	t := p.cur
	if p.cur.Type != tt {
		p.errorf(p.cur, "expected %s, got %s %q", tt, p.cur.Type, p.cur.Text)
	}
	p.advance()
	return t
}

// Parse parses a whole script-dialect source file into a Program.
func (p *ScriptParser) Parse() (*ast.Program, error) {
	prog := &ast.Program{Functions: p.funcs}
	if p.cur.Type == token.PROGRAM {
		p.advance()
		prog.Name = p.expect(token.IDENT).Text
	}
	for p.cur.Type != token.EOF {
		switch p.cur.Type {
		case token.FUNCTION:
			p.parseNamedFunction()
		case token.SET:
			prog.Globals = append(prog.Globals, p.parseStatement())
		default:
			prog.Globals = append(prog.Globals, p.parseStatement())
		}
	}
	if len(p.errs) > 0 {
		return prog, p.errs[0]
	}
	return prog, nil
}

// parseNamedFunction parses `function NAME ( ARGS ) is STATEMENTS end` and
// registers it in p.funcs.
func (p *ScriptParser) parseNamedFunction() {
	tok := p.cur
	p.advance() // 'function'
	name := p.expect(token.IDENT).Text
	def, _ := p.parseFunctionTail(tok, name)
	if placeholder, ok := p.funcs[name]; ok {
		// Fill the prescanned placeholder in place; forward references
		// already hold its pointer.
		*placeholder = *def
	} else {
		p.funcs[name] = def
	}
}

// GlobalScope returns the scope top-level `set` statements and built-ins
// resolve against, for sizing the runtime's global slot vector.
func (p *ScriptParser) GlobalScope() *symtab.Scope { return p.globals }

// parseFunctionTail parses the `( ARGS ) is STATEMENTS end` common to both
// named functions and anonymous function-literal expressions, returning
// the static definition and the capture-init expressions gathered while
// parsing its body (empty for a top-level named function, which has no
// enclosing function to capture from).
func (p *ScriptParser) parseFunctionTail(tok token.Token, name string) (*ast.FunctionDef, []ast.Expr) {
	fc := symtab.NewFunctionContext(name)
	outer := p.resolver
	p.resolver = outer.PushFunction(fc)
	frame := &funcLitFrame{fc: fc}
	p.lits = append(p.lits, frame)

	p.expect(token.LPAREN)
	if p.cur.Type != token.RPAREN {
		for {
			fc.DeclareArg(p.expect(token.IDENT).Text)
			if p.cur.Type != token.COMMA {
				break
			}
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.IS)
	body := p.parseStatementSeq(token.END)
	p.expect(token.END)

	p.lits = p.lits[:len(p.lits)-1]
	p.resolver = outer

	def := &ast.FunctionDef{
		Name:         name,
		ParamArgs:    fc.ArgCount(),
		Locals:       fc.LocalCount(),
		Body:         body,
		ArgNames:     fc.ArgNames(),
		LocalNames:   fc.LocalNames(),
		CaptureNames: fc.CaptureNames(),
	}
	return def, frame.captureInits
}

func (p *ScriptParser) parseStatementSeq(stop ...token.Type) *ast.StatementSeq {
	tok := p.cur
	var stmts []ast.Statement
	for !p.atAny(stop...) && p.cur.Type != token.EOF {
		stmts = append(stmts, p.parseStatement())
	}
	return ast.NewStatementSeq(&tok, stmts)
}

func (p *ScriptParser) atAny(types ...token.Type) bool {
	for _, tt := range types {
		if p.cur.Type == tt {
			return true
		}
	}
	return false
}

func (p *ScriptParser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.SET:
		return p.parseSetStatement()
	case token.CALL:
		return p.parseCallStatement()
	case token.IF:
		return p.parseIfBlock()
	case token.WHILE:
		return p.parseWhileBlock()
	case token.FOR:
		return p.parseForBlock()
	case token.SELECT:
		return p.parseSelectBlock()
	case token.BREAK:
		tok := p.cur
		p.advance()
		depth := p.optionalDepth()
		return ast.NewBreak(&tok, depth)
	case token.CONTINUE:
		tok := p.cur
		p.advance()
		depth := p.optionalDepth()
		return ast.NewContinue(&tok, depth)
	case token.RETURN:
		tok := p.cur
		p.advance()
		if p.startsExpr() {
			return ast.NewReturn(&tok, p.parseExpr())
		}
		return ast.NewReturn(&tok, nil)
	default:
		tok := p.cur
		p.errorf(tok, "unexpected token %s %q in statement", tok.Type, tok.Text)
		p.advance()
		return ast.NewStatementSeq(&tok, nil)
	}
}

func (p *ScriptParser) optionalDepth() int {
	if p.cur.Type == token.NUMBER {
		n, _ := strconv.Atoi(p.cur.Text)
		p.advance()
		return n
	}
	return 1
}

func (p *ScriptParser) startsExpr() bool {
	switch p.cur.Type {
	case token.END, token.ELSE, token.ELSEIF, token.EOF, token.CASE:
		return false
	default:
		return true
	}
}

// parseSetStatement parses `set NAME to EXPR` or `set NAME[INDEX] to EXPR`
// (RecAssign, spec §4.4).
func (p *ScriptParser) parseSetStatement() ast.Statement {
	tok := p.cur
	p.advance() // 'set'
	nameTok := p.expect(token.IDENT)
	gs := p.resolveWrite(nameTok.Text)
	target := ast.NewVariable(&nameTok, gs)

	if p.cur.Type == token.LBRACKET {
		p.advance()
		index := p.parseExpr()
		p.expect(token.RBRACKET)
		p.expect(token.TO)
		value := p.parseExpr()
		return ast.NewRecAssign(&tok, target, index, value)
	}

	p.expect(token.TO)
	value := p.parseExpr()
	return ast.NewAssign(&tok, target, value)
}

func (p *ScriptParser) parseCallStatement() ast.Statement {
	tok := p.cur
	p.advance()
	e := p.parseExpr()
	return ast.NewCall(&tok, e)
}

func (p *ScriptParser) parseIfBlock() ast.Statement {
	tok := p.cur
	var branches []ast.IfBranch
	p.advance() // 'if'
	cond := p.parseExpr()
	p.expect(token.THEN)
	body := p.parseStatementSeq(token.ELSEIF, token.ELSE, token.END)
	branches = append(branches, ast.IfBranch{Cond: cond, Body: body})
	for p.cur.Type == token.ELSEIF {
		p.advance()
		c := p.parseExpr()
		p.expect(token.THEN)
		b := p.parseStatementSeq(token.ELSEIF, token.ELSE, token.END)
		branches = append(branches, ast.IfBranch{Cond: c, Body: b})
	}
	if p.cur.Type == token.ELSE {
		p.advance()
		b := p.parseStatementSeq(token.END)
		branches = append(branches, ast.IfBranch{Cond: nil, Body: b})
	}
	p.expect(token.END)
	return ast.NewIfBlock(&tok, branches)
}

func (p *ScriptParser) parseWhileBlock() ast.Statement {
	tok := p.cur
	p.advance()
	cond := p.parseExpr()
	p.expect(token.DO)
	body := p.parseStatementSeq(token.END)
	p.expect(token.END)
	return ast.NewWhileBlock(&tok, cond, body)
}

func (p *ScriptParser) parseForBlock() ast.Statement {
	tok := p.cur
	p.advance() // 'for'
	varTok := p.expect(token.IDENT)

	if p.cur.Type == token.IN {
		p.advance()
		iterable := p.parseExpr()
		p.expect(token.DO)
		saved := p.resolver
		inner, scope := p.resolver.PushScope()
		p.resolver = inner
		gs := scope.Declare(varTok.Text)
		v := ast.NewVariable(&varTok, gs)
		body := p.parseStatementSeq(token.END)
		p.expect(token.END)
		p.resolver = saved
		return ast.NewIteratorForBlock(&tok, v, iterable, body)
	}

	p.expect(token.FROM)
	from := p.parseExpr()
	downto := false
	if p.cur.Type == token.TO {
		p.advance()
	} else {
		p.expect(token.DOWNTO)
		downto = true
	}
	to := p.parseExpr()
	var step ast.Expr
	if p.cur.Type == token.STEP {
		p.advance()
		step = p.parseExpr()
	}
	p.expect(token.DO)
	saved := p.resolver
	inner, scope := p.resolver.PushScope()
	p.resolver = inner
	gs := scope.Declare(varTok.Text)
	v := ast.NewVariable(&varTok, gs)
	body := p.parseStatementSeq(token.END)
	p.expect(token.END)
	p.resolver = saved
	return ast.NewNumericForBlock(&tok, v, from, to, step, downto, body)
}

func (p *ScriptParser) parseSelectBlock() ast.Statement {
	tok := p.cur
	p.advance() // 'select'
	subject := p.parseExpr()
	p.expect(token.FROM)
	var cases []ast.SelectCase
	for p.cur.Type == token.CASE {
		p.advance()
		guard := ast.CaseIs
		switch p.cur.Type {
		case token.ABOVE:
			guard = ast.CaseAbove
			p.advance()
		case token.BELOW:
			guard = ast.CaseBelow
			p.advance()
		case token.ALSO:
			guard = ast.CaseAlso
			p.advance()
		}
		var value ast.Expr
		if p.cur.Type != token.IS && p.cur.Type != token.COLON {
			value = p.parseExpr()
		}
		// `case C is ...` is the canonical form; a colon is accepted in
		// its place.
		if p.cur.Type == token.COLON {
			p.advance()
		} else {
			p.expect(token.IS)
		}
		body := p.parseStatementSeq(token.CASE, token.END)
		// An `also` case with no statements of its own shares the body of
		// the case it extends; an empty body must stay nil so execution
		// keeps using the preceding case's body.
		var caseBody ast.Statement
		if guard != ast.CaseAlso || len(body.Statements) > 0 {
			caseBody = body
		}
		cases = append(cases, ast.SelectCase{Guard: guard, Value: value, Body: caseBody})
	}
	p.expect(token.END)
	return ast.NewSelectBlock(&tok, subject, cases)
}

func (p *ScriptParser) resolveWrite(name string) *symtab.GetterSetter {
	return p.resolver.Write(name)
}

// resolveRead resolves a name for reading, ascending through enclosing
// function-literal frames and registering a Capture slot (plus its
// init expression) on every frame it crosses, per spec §4.5/§4.6.
func (p *ScriptParser) resolveRead(tok token.Token, name string) ast.Expr {
	if gs, ok := p.resolver.Read(name); ok {
		return ast.NewVariable(&tok, gs)
	}
	if p.resolver.Parent != nil {
		outer := p.ascendAndCapture(p.resolver, name, tok)
		if outer != nil {
			return outer
		}
	}
	if def, ok := p.funcs[name]; ok {
		return ast.NewBuildFunction(&tok, def, nil)
	}
	if gs, ok := p.globals.Lookup(name); ok {
		return ast.NewVariable(&tok, gs)
	}
	p.errorf(tok, "undefined name %q", name)
	return ast.NewConstant(&tok, nil)
}

// ascendAndCapture resolves name in r.Parent (recursively capturing
// through any further-enclosing literals), then declares a Capture slot
// on r.Func and records its init expression on the matching funcLitFrame.
func (p *ScriptParser) ascendAndCapture(r *symtab.Resolver, name string, tok token.Token) ast.Expr {
	if r.Parent == nil {
		return nil
	}
	var outerExpr ast.Expr
	if gs, ok := r.Parent.Read(name); ok {
		outerExpr = ast.NewVariable(&tok, gs)
	} else {
		outerExpr = p.ascendAndCapture(r.Parent, name, tok)
		if outerExpr == nil {
			if gs, ok := p.globals.Lookup(name); ok {
				outerExpr = ast.NewVariable(&tok, gs)
			}
		}
	}
	if outerExpr == nil {
		return nil
	}
	frame := p.frameFor(r.Func)
	before := frame.fc.CaptureCount()
	gs := frame.fc.DeclareCapture(name)
	if frame.fc.CaptureCount() > before {
		frame.captureInits = append(frame.captureInits, outerExpr)
	}
	return ast.NewVariable(&tok, gs)
}

func (p *ScriptParser) frameFor(fc *symtab.FunctionContext) *funcLitFrame {
	for i := len(p.lits) - 1; i >= 0; i-- {
		if p.lits[i].fc == fc {
			return p.lits[i]
		}
	}
	engine.Raise("parser: no funcLitFrame for FunctionContext %q", fc.Name)
	return nil
}
