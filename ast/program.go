package ast

// Program is the parse result of a whole script-dialect source file: an
// optional name, the top-level `set` statements that populate global
// scope, and the named function definitions declared anywhere in the
// file (spec §6.5: "Top-level may contain `set NAME to EXPR>`").
type Program struct {
	Name      string
	Globals   []Statement
	Functions map[string]*FunctionDef
}
