package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/value"
)

func testBuiltins() map[string]value.Value {
	return map[string]value.Value{
		"SUM": &value.Function{Code: &interp.NativeFunction{Name: "SUM", ArgCount: interp.Variadic}},
	}
}

func parseFormula(t *testing.T, input string, col, row int) ast.Expr {
	t.Helper()
	p := NewFormulaParser("cell", input, testBuiltins(), col, row)
	e, err := p.Parse()
	require.NoError(t, err)
	return e
}

func TestFormulaArithmeticPrecedence(t *testing.T) {
	e := parseFormula(t, "1+2*3", 0, 0)
	add, ok := e.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Plus, add.Op)
	mul, ok := add.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Multiply, mul.Op)
}

func TestFormulaComparisonBindsLoosest(t *testing.T) {
	e := parseFormula(t, "1+2=3", 0, 0)
	cmp, ok := e.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Equals, cmp.Op)
}

func TestFormulaCatOperator(t *testing.T) {
	e := parseFormula(t, "'a'&'b'", 0, 0)
	cat, ok := e.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Cat, cat.Op)
}

func TestFormulaRelativeReferenceOffsets(t *testing.T) {
	e := parseFormula(t, "A0", 1, 1)
	c, ok := e.(*ast.Constant)
	require.True(t, ok)
	ref, ok := c.Value.(*value.CellRef)
	require.True(t, ok)
	assert.False(t, ref.ColAbsolute)
	assert.False(t, ref.RowAbsolute)
	assert.Equal(t, -1, ref.Col)
	assert.Equal(t, -1, ref.Row)
	col, row := ref.Resolve(1, 1)
	assert.Equal(t, 0, col)
	assert.Equal(t, 0, row)
}

func TestFormulaAbsoluteReference(t *testing.T) {
	e := parseFormula(t, "$AB$12", 5, 5)
	ref := e.(*ast.Constant).Value.(*value.CellRef)
	assert.True(t, ref.ColAbsolute)
	assert.True(t, ref.RowAbsolute)
	assert.Equal(t, 27, ref.Col)
	assert.Equal(t, 12, ref.Row)
}

func TestFormulaMixedReference(t *testing.T) {
	e := parseFormula(t, "$C4", 1, 1)
	ref := e.(*ast.Constant).Value.(*value.CellRef)
	assert.True(t, ref.ColAbsolute)
	assert.False(t, ref.RowAbsolute)
	assert.Equal(t, 2, ref.Col)
	assert.Equal(t, 3, ref.Row)
}

func TestFormulaRange(t *testing.T) {
	e := parseFormula(t, "A0:B1", 0, 0)
	_, ok := e.(*ast.MakeRange)
	assert.True(t, ok)
}

func TestFormulaFunctionCall(t *testing.T) {
	e := parseFormula(t, "@SUM(A0;B1;3)", 0, 0)
	call, ok := e.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Len(t, call.Args, 3)
	callee, ok := call.Callee.(*ast.Constant)
	require.True(t, ok)
	_, ok = callee.Value.(*value.Function)
	assert.True(t, ok)
}

func TestFormulaUnknownFunction(t *testing.T) {
	p := NewFormulaParser("cell", "@NOPE(1)", testBuiltins(), 0, 0)
	_, err := p.Parse()
	require.Error(t, err)
	var pe *engine.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "NOPE")
}

func TestFormulaName(t *testing.T) {
	e := parseFormula(t, "_RATE", 0, 0)
	n, ok := e.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "RATE", n.Identifier)
}

func TestFormulaMoveReference(t *testing.T) {
	e := parseFormula(t, "A0!budget", 0, 0)
	mv, ok := e.(*ast.MoveReference)
	require.True(t, ok)
	assert.Equal(t, "budget", mv.Sheet)
	_, ok = mv.Inner.(*ast.Constant)
	assert.True(t, ok)

	e = parseFormula(t, "A0:B1!budget", 0, 0)
	rng, ok := e.(*ast.MakeRange)
	require.True(t, ok)
	_, ok = rng.Right.(*ast.MoveReference)
	assert.True(t, ok)
}

func TestFormulaUnaryMinusBindsTighterThanMul(t *testing.T) {
	e := parseFormula(t, "-2*3", 0, 0)
	mul, ok := e.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Multiply, mul.Op)
	_, ok = mul.Left.(*ast.Unary)
	assert.True(t, ok)
}

func TestFormulaTrailingInputIsError(t *testing.T) {
	p := NewFormulaParser("cell", "1+2 3", testBuiltins(), 0, 0)
	_, err := p.Parse()
	require.Error(t, err)
}

func TestFormulaCommaDecimalAndExponent(t *testing.T) {
	e := parseFormula(t, "1,5e2", 0, 0)
	c := e.(*ast.Constant)
	f, ok := c.Value.(*value.Float)
	require.True(t, ok)
	assert.Equal(t, "150", f.N.String())
}

func TestCellRefRenderRoundTrip(t *testing.T) {
	for _, text := range []string{"A0", "$B7", "C$12", "$ZZ$99"} {
		e := parseFormula(t, text, 2, 3)
		ref := e.(*ast.Constant).Value.(*value.CellRef)
		assert.Equal(t, text, ref.Render(2, 3), text)
	}
}
