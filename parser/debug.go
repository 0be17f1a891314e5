package parser

import (
	"forwardbackward/ast"
	"forwardbackward/lexer"
	"forwardbackward/symtab"
	"forwardbackward/token"
)

// DebugSource is the source name stamped on tokens of expressions typed
// at the debugger's `print` command, so their error locations read
// "From file Print Argument on line 1 at C".
const DebugSource = "Print Argument"

// ParseDebugExpression parses a single script-dialect expression against
// a pre-built resolution environment — the selected stack frame's
// mirrored FunctionContext, the innermost live lexical scope (may be
// nil), and the global scope (spec §4.8 `print`). Trailing input is a
// parse error.
func ParseDebugExpression(input string, fc *symtab.FunctionContext, scope, globals *symtab.Scope) (ast.Expr, error) {
	p := &ScriptParser{
		lex:      lexer.NewScript(DebugSource, input),
		globals:  globals,
		resolver: &symtab.Resolver{Func: fc, Scope: scope, Globals: globals},
		funcs:    make(map[string]*ast.FunctionDef),
	}
	p.advance()
	p.advance()
	e := p.parseExpr()
	if p.cur.Type != token.EOF {
		p.errorf(p.cur, "unexpected %s %q after expression", p.cur.Type, p.cur.Text)
	}
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return e, nil
}
