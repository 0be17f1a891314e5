package interp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/logging"
	"forwardbackward/parser"
	"forwardbackward/stdlib"
	"forwardbackward/symtab"
	"forwardbackward/value"
)

// runScript parses src, executes its top-level statements, and calls the
// named zero-argument function, returning its result alongside the
// buffered log.
func runScript(t *testing.T, src, entry string) (value.Value, error, *logging.Buffer) {
	t.Helper()
	globals := symtab.NewGlobalScope()
	log := logging.NewBuffer()
	ctx := interp.NewCallingContext(globals, log)
	ctx.SourceName = "test"
	stdlib.Install(globals, ctx)

	p := parser.NewScriptParserWithGlobals("test", src, globals)
	prog, err := p.Parse()
	require.NoError(t, err)
	ctx.EnsureGlobals()
	for _, st := range prog.Globals {
		_, err := interp.Exec(ctx, st)
		require.NoError(t, err)
	}
	def, ok := prog.Functions[entry]
	require.True(t, ok, "no function %s", entry)
	v, err := interp.CallFunction(ctx, &value.Function{Code: def}, nil, nil)
	return v, err, log
}

func floatOf(t *testing.T, v value.Value) string {
	t.Helper()
	f, ok := v.(*value.Float)
	require.True(t, ok, "expected Float, got %T", v)
	return f.N.String()
}

func TestFunctionCallAndArithmetic(t *testing.T) {
	v, err, _ := runScript(t, `
function AddMul(a, b) is
  return a + b * 2
end
function Go() is
  return AddMul(3, 4)
end
`, "Go")
	require.NoError(t, err)
	assert.Equal(t, "11", floatOf(t, v))
}

func TestFunctionFailedToReturn(t *testing.T) {
	_, err, _ := runScript(t, `
function NoReturn() is
  set x to 1
end
function Go() is
  return NoReturn()
end
`, "Go")
	require.Error(t, err)
	var fatal *engine.FatalException
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, err.Error(), "Function failed to return a value")
}

func TestBareReturnIsFatal(t *testing.T) {
	_, err, _ := runScript(t, `
function NoValue() is
  return
end
function Go() is
  return NoValue()
end
`, "Go")
	require.Error(t, err)
	var fatal *engine.FatalException
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, err.Error(), "Function failed to return a value")
}

func TestBreakDepthExitsExactly(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set total to 0
  for i from 1 to 3 do
    for j from 1 to 3 do
      if j = 2 then
        break 2
      end
      set total to total + 1
    end
  end
  return total
end
`, "Go")
	require.NoError(t, err)
	// break 2 exits both loops on the first inner iteration past j=1.
	assert.Equal(t, "1", floatOf(t, v))
}

func TestBreakDeeperThanLoopsIsFatal(t *testing.T) {
	_, err, _ := runScript(t, `
function Go() is
  for i from 1 to 3 do
    break 2
  end
  return 0
end
`, "Go")
	require.Error(t, err)
	var fatal *engine.FatalException
	require.ErrorAs(t, err, &fatal)
	assert.Contains(t, err.Error(), "break/continue escaped function")
}

func TestContinueDepth(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set total to 0
  for i from 1 to 3 do
    for j from 1 to 3 do
      if j > 1 then
        continue 2
      end
      set total to total + 1
    end
    set total to total + 100
  end
  return total
end
`, "Go")
	require.NoError(t, err)
	// continue 2 resumes the outer loop: the +100 never runs.
	assert.Equal(t, "3", floatOf(t, v))
}

func TestReadBeforeSet(t *testing.T) {
	_, err, _ := runScript(t, `
function Go() is
  if 0 then
    set y to 2
  end
  return y + 1
end
`, "Go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Read of value before set.")
}

func TestWhileLoop(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set n to 0
  set sum to 0
  while n < 5 do
    set n to n + 1
    set sum to sum + n
  end
  return sum
end
`, "Go")
	require.NoError(t, err)
	assert.Equal(t, "15", floatOf(t, v))
}

func TestForDownto(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set acc to ""
  for i from 3 downto 1 do
    set acc to acc + ToString(i)
  end
  return acc
end
`, "Go")
	require.NoError(t, err)
	s, ok := v.(*value.String)
	require.True(t, ok)
	assert.Equal(t, "321", s.S)
}

func TestForIteratorSnapshotsContainer(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set arr to { 1, 2, 3 }
  set total to 0
  for x in arr do
    set total to total + x
    set arr to { 9, 9, 9, 9 }
  end
  return total
end
`, "Go")
	require.NoError(t, err)
	// The loop iterates the container captured at entry.
	assert.Equal(t, "6", floatOf(t, v))
}

func TestSelectWithGuards(t *testing.T) {
	src := `
function Classify(n) is
  select n from
    case below 0 : return "negative"
    case 0 is return "zero"
    case also 1 :
    case 2 is return "small"
    case above 2 : return "big"
  end
  return "unreachable"
end
function Go() is
  return Classify(%s)
end
`
	cases := map[string]string{
		"0 - 5": "negative",
		"0":     "zero",
		"2":     "small",
		"7":     "big",
	}
	for input, want := range cases {
		v, err, _ := runScript(t, fmt.Sprintf(src, input), "Go")
		require.NoError(t, err, input)
		s, ok := v.(*value.String)
		require.True(t, ok)
		assert.Equal(t, want, s.S, input)
	}
}

func TestSelectAlsoSharesPrecedingBody(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  select 3 from
    case 2 is return "two-or-three"
    case also 3 :
    case 4 is return "four"
  end
  return "none"
end
`, "Go")
	require.NoError(t, err)
	s := v.(*value.String)
	assert.Equal(t, "two-or-three", s.S)
}

func TestClosureCapture(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set n to 10
  set f to function (x) is
    return x + n
  end
  set n to 99
  return f(5)
end
`, "Go")
	require.NoError(t, err)
	// Captures copy the value at build time.
	assert.Equal(t, "15", floatOf(t, v))
}

func TestTernaryAndShortCircuit(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set x to 0
  set safe to x <> 0 & 10 / x > 1 ? 1 : 0
  return safe
end
`, "Go")
	require.NoError(t, err)
	assert.Equal(t, "0", floatOf(t, v))
}

func TestRecursion(t *testing.T) {
	v, err, _ := runScript(t, `
function Fact(n) is
  if n < 2 then
    return 1
  end
  return n * Fact(n - 1)
end
function Go() is
  return Fact(10)
end
`, "Go")
	require.NoError(t, err)
	assert.Equal(t, "3628800", floatOf(t, v))
}

func TestIndexedAssignment(t *testing.T) {
	v, err, _ := runScript(t, `
function Go() is
  set arr to { 1, 2, 3 }
  set arr[1] to 42
  set d to { "k": 1 }
  set d["k"] to 2
  return arr[1] + d["k"]
end
`, "Go")
	require.NoError(t, err)
	assert.Equal(t, "44", floatOf(t, v))
}

func TestCallStatementLogs(t *testing.T) {
	_, err, log := runScript(t, `
function Go() is
  call Print(1 + 2)
  return 0
end
`, "Go")
	require.NoError(t, err)
	require.Len(t, log.Logs, 1)
	assert.Equal(t, "3", log.Logs[0])
}

func TestArityMismatchIsFatal(t *testing.T) {
	_, err, _ := runScript(t, `
function One(a) is
  return a
end
function Go() is
  return One(1, 2)
end
`, "Go")
	require.Error(t, err)
	var fatal *engine.FatalException
	require.ErrorAs(t, err, &fatal)
}

func TestCallingNonFunctionIsFatal(t *testing.T) {
	_, err, _ := runScript(t, `
function Go() is
  set x to 3
  return x(1)
end
`, "Go")
	require.Error(t, err)
	var fatal *engine.FatalException
	require.ErrorAs(t, err, &fatal)
}
