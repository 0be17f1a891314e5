package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbackward/ast"
)

func TestScriptFunctionShape(t *testing.T) {
	p := NewScriptParser("test", `
function F(a, b) is
  set x to a
  set y to b
  return x + y
end
`)
	prog, err := p.Parse()
	require.NoError(t, err)
	def := prog.Functions["F"]
	require.NotNil(t, def)
	assert.Equal(t, 2, def.ParamArgs)
	assert.Equal(t, 2, def.Locals)
	assert.Equal(t, []string{"a", "b"}, def.ArgNames)
	assert.Equal(t, []string{"x", "y"}, def.LocalNames)
}

func TestScriptForwardReference(t *testing.T) {
	p := NewScriptParser("test", `
function Caller() is
  return Callee()
end
function Callee() is
  return 1
end
`)
	prog, err := p.Parse()
	require.NoError(t, err)
	// The call site resolved against the prescanned placeholder, whose
	// pointer identity survives the later definition.
	body := prog.Functions["Caller"].Body.(*ast.StatementSeq)
	ret := body.Statements[0].(*ast.FlowControlStatement)
	call := ret.Value.(*ast.FunctionCall)
	build := call.Callee.(*ast.BuildFunction)
	assert.Same(t, prog.Functions["Callee"], build.Def)
	assert.Equal(t, 0, prog.Functions["Callee"].ParamArgs)
}

func TestScriptCaptureOrdering(t *testing.T) {
	p := NewScriptParser("test", `
function Outer() is
  set a to 1
  set b to 2
  set f to function () is
    return b + a
  end
  return f()
end
`)
	prog, err := p.Parse()
	require.NoError(t, err)
	body := prog.Functions["Outer"].Body.(*ast.StatementSeq)
	assign := body.Statements[2].(*ast.Assign)
	build := assign.Value.(*ast.BuildFunction)
	// Captures are declared in first-reference order: b before a.
	assert.Equal(t, []string{"b", "a"}, build.Def.CaptureNames)
	assert.Len(t, build.Captures, 2)
}

func TestScriptTopLevelSet(t *testing.T) {
	p := NewScriptParser("test", `set answer to 42`)
	prog, err := p.Parse()
	require.NoError(t, err)
	require.Len(t, prog.Globals, 1)
	_, ok := prog.Globals[0].(*ast.Assign)
	assert.True(t, ok)
	_, found := p.GlobalScope().Lookup("answer")
	assert.True(t, found)
}

func TestScriptParseErrorHasPosition(t *testing.T) {
	p := NewScriptParser("test", `
function F() is
  set to 1
end
`)
	_, err := p.Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3:")
}
