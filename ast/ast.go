// Package ast defines the expression and statement node types shared (where
// semantics agree) between the Forward (formula) and Backward (script)
// dialects, per spec §4.4. Grounded on the teacher's ast package: one
// struct per node, a single Node marker interface, positions carried as an
// embedded token for error-location wrapping.
package ast

import (
	"forwardbackward/symtab"
	"forwardbackward/token"
)

// Node is implemented by every expression and statement node.
type Node interface {
	// Tok returns the token anchoring this node's source position, used
	// to tag TypedOperationException/FatalException locations.
	Tok() *token.Token
}

type base struct{ T *token.Token }

func (b base) Tok() *token.Token { return b.T }

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

type exprBase struct{ base }

func (exprBase) exprNode() {}

// Constant holds a literal value already resolved at parse time (Float,
// String, Nil, or — in the formula dialect — a CellRef, resolved through
// final_const at evaluation time per §4.10, or the Function named by an
// `@NAME(...)` call).
type Constant struct {
	exprBase
	Value ConstantValue
}

// ConstantValue is implemented by value.Float/value.String/value.Nil/
// value.CellRef/value.Function — kept as an interface here so ast doesn't import value,
// avoiding a dependency cycle with packages (interp) that need both.
type ConstantValue interface {
	Inspect() string
}

func NewConstant(tok *token.Token, v ConstantValue) *Constant {
	return &Constant{exprBase: exprBase{base{tok}}, Value: v}
}

// Variable reads through a resolved getter/setter handle (spec §4.5).
type Variable struct {
	exprBase
	Handle *symtab.GetterSetter
}

func NewVariable(tok *token.Token, h *symtab.GetterSetter) *Variable {
	return &Variable{exprBase: exprBase{base{tok}}, Handle: h}
}

// BinOp names the binary operators spec §4.4 lists.
type BinOp int

const (
	Plus BinOp = iota
	Minus
	Multiply
	Divide
	ShortAnd
	ShortOr
	Equals
	NotEqual
	Greater
	Less
	GEQ
	LEQ
	Cat
	MakeRangeOp
)

// Binary evaluates both sides (except ShortAnd/ShortOr, which short-circuit
// on the logical truth of lhs) and applies the value-model operation.
type Binary struct {
	exprBase
	Op          BinOp
	Left, Right Expr
}

func NewBinary(tok *token.Token, op BinOp, l, r Expr) *Binary {
	return &Binary{exprBase: exprBase{base{tok}}, Op: op, Left: l, Right: r}
}

// UnOp names the unary operators.
type UnOp int

const (
	Not UnOp = iota
	Negate
)

type Unary struct {
	exprBase
	Op      UnOp
	Operand Expr
}

func NewUnary(tok *token.Token, op UnOp, e Expr) *Unary {
	return &Unary{exprBase: exprBase{base{tok}}, Op: op, Operand: e}
}

// Ternary is `cond ? then : else`.
type Ternary struct {
	exprBase
	Cond, Then, Else Expr
}

func NewTernary(tok *token.Token, cond, then, els Expr) *Ternary {
	return &Ternary{exprBase: exprBase{base{tok}}, Cond: cond, Then: then, Else: els}
}

// DerefVar reads arrays (integer in bounds), dictionaries (key must
// exist), or cell ranges (integer in bounds) via `container[index]`.
type DerefVar struct {
	exprBase
	Container Expr
	Index     Expr
}

func NewDerefVar(tok *token.Token, container, index Expr) *DerefVar {
	return &DerefVar{exprBase: exprBase{base{tok}}, Container: container, Index: index}
}

// FunctionCall evaluates Callee, then Args left-to-right, then invokes.
type FunctionCall struct {
	exprBase
	Callee Expr
	Args   []Expr
}

func NewFunctionCall(tok *token.Token, callee Expr, args []Expr) *FunctionCall {
	return &FunctionCall{exprBase: exprBase{base{tok}}, Callee: callee, Args: args}
}

// FunctionDef is the static half of a user-defined function: its name,
// parameter count, and body — shared by every Function value built from
// this definition regardless of captures.
type FunctionDef struct {
	Name      string
	ParamArgs int
	Locals    int
	Body      Statement

	// ArgNames/LocalNames/CaptureNames carry the parse-time names for each
	// slot in declaration order, purely for the debugger's "show"/"print"
	// commands (spec §4.8) — evaluation itself only ever uses the
	// slot-indexed handles symtab resolves.
	ArgNames      []string
	LocalNames    []string
	CaptureNames  []string
}

func (d *FunctionDef) FunctionName() string { return d.Name }
func (d *FunctionDef) Arity() int           { return d.ParamArgs }

// BuildFunction pairs a static FunctionDef with evaluated capture
// expressions to produce a Function value.
type BuildFunction struct {
	exprBase
	Def      *FunctionDef
	Captures []Expr
}

func NewBuildFunction(tok *token.Token, def *FunctionDef, captures []Expr) *BuildFunction {
	return &BuildFunction{exprBase: exprBase{base{tok}}, Def: def, Captures: captures}
}

// MakeRange builds a CellRange from two CellRef-constant operands (spec
// §4.4): both must be Constant(CellRef), never computed.
type MakeRange struct {
	exprBase
	Left, Right Expr
}

func NewMakeRange(tok *token.Token, l, r Expr) *MakeRange {
	return &MakeRange{exprBase: exprBase{base{tok}}, Left: l, Right: r}
}

// Name (formula dialect only) looks up an identifier in the "name"
// side-table; Nil if absent.
type Name struct {
	exprBase
	Identifier string
}

func NewName(tok *token.Token, ident string) *Name {
	return &Name{exprBase: exprBase{base{tok}}, Identifier: ident}
}

// ArrayLit builds an Array value from a bracketed element list, `{ e,
// e, ... }` (spec §4.4's value model lists Array as a first-class
// construction target; the script dialect's `{ }` punctuation is its
// literal syntax).
type ArrayLit struct {
	exprBase
	Elements []Expr
}

func NewArrayLit(tok *token.Token, elems []Expr) *ArrayLit {
	return &ArrayLit{exprBase: exprBase{base{tok}}, Elements: elems}
}

// DictLit builds a Dictionary value from a bracketed key:value list,
// `{ k: v, k: v, ... }`. Keys and Values are evaluated pairwise,
// left-to-right, then inserted in ascending key order (spec §3's
// Dictionary is "ordered by total sort").
type DictLit struct {
	exprBase
	Keys, Values []Expr
}

func NewDictLit(tok *token.Token, keys, values []Expr) *DictLit {
	return &DictLit{exprBase: exprBase{base{tok}}, Keys: keys, Values: values}
}

// MoveReference (formula dialect) retags a CellRef or CellRange with a
// foreign sheet name, then evaluates (CellRefs resolve immediately).
type MoveReference struct {
	exprBase
	Sheet string
	Inner Expr
}

func NewMoveReference(tok *token.Token, sheet string, inner Expr) *MoveReference {
	return &MoveReference{exprBase: exprBase{base{tok}}, Sheet: sheet, Inner: inner}
}
