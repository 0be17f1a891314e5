package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbackward/interp"
	"forwardbackward/logging"
	"forwardbackward/numeric"
	"forwardbackward/symtab"
	"forwardbackward/value"
)

func newCtx() *interp.CallingContext {
	root := symtab.NewGlobalScope()
	return interp.NewCallingContext(root, logging.NewBuffer())
}

func call(t *testing.T, ctx *interp.CallingContext, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := findFunc(name)
	require.True(t, ok, "no such builtin %s", name)
	v, err := fn.Fn(ctx, args, nil)
	require.NoError(t, err)
	return v
}

func findFunc(name string) (*interp.NativeFunction, bool) {
	for _, nf := range All() {
		if nf.Name == name {
			return nf, true
		}
	}
	return nil, false
}

func fv(ctx *interp.CallingContext, n int64) *value.Float {
	return &value.Float{N: ctx.NumEnv.FromInt64(n)}
}

func TestNewArrayAndPushBack(t *testing.T) {
	ctx := newCtx()
	arr := call(t, ctx, "NewArray")
	arr2 := call(t, ctx, "PushBack", arr, fv(ctx, 1))
	arr3 := call(t, ctx, "PushBack", arr2, fv(ctx, 2))
	out := arr3.(*value.Array)
	require.Len(t, out.Elements, 2)
	assert.Equal(t, "1", out.Elements[0].Inspect())
	assert.Equal(t, "2", out.Elements[1].Inspect())
}

func TestPopFrontAndBack(t *testing.T) {
	ctx := newCtx()
	arr := &value.Array{Elements: []value.Value{fv(ctx, 1), fv(ctx, 2), fv(ctx, 3)}}
	front := call(t, ctx, "PopFront", arr).(*value.Array)
	require.Len(t, front.Elements, 2)
	assert.Equal(t, "2", front.Elements[0].Inspect())
	assert.Equal(t, "3", front.Elements[1].Inspect())
	back := call(t, ctx, "PopBack", arr).(*value.Array)
	require.Len(t, back.Elements, 2)
	assert.Equal(t, "1", back.Elements[0].Inspect())
}

func TestGetSetIndex(t *testing.T) {
	ctx := newCtx()
	arr := &value.Array{Elements: []value.Value{fv(ctx, 10), fv(ctx, 20)}}
	got := call(t, ctx, "GetIndex", arr, fv(ctx, 1))
	assert.Equal(t, "20", got.Inspect())
	updated := call(t, ctx, "SetIndex", arr, fv(ctx, 0), fv(ctx, 99)).(*value.Array)
	assert.Equal(t, "99", updated.Elements[0].Inspect())
	assert.Equal(t, "10", arr.Elements[0].Inspect(), "original Array must not be mutated")
}

func TestDictionaryBuiltins(t *testing.T) {
	ctx := newCtx()
	dict := call(t, ctx, "NewDictionary")
	dict2 := call(t, ctx, "Insert", dict, &value.String{S: "k"}, fv(ctx, 5))
	assert.Equal(t, "1", call(t, ctx, "ContainsKey", dict2, &value.String{S: "k"}).Inspect())
	assert.Equal(t, "0", call(t, ctx, "ContainsKey", dict2, &value.String{S: "nope"}).Inspect())
	assert.Equal(t, "5", call(t, ctx, "GetValue", dict2, &value.String{S: "k"}).Inspect())
	assert.Equal(t, "1", call(t, ctx, "Size", dict2).Inspect())
	dict3 := call(t, ctx, "RemoveKey", dict2, &value.String{S: "k"})
	assert.Equal(t, "0", call(t, ctx, "Size", dict3).Inspect())
}

func TestSubString(t *testing.T) {
	ctx := newCtx()
	got := call(t, ctx, "SubString", &value.String{S: "Hello World"}, fv(ctx, 6), fv(ctx, 5))
	assert.Equal(t, "World", got.(*value.String).S)
}

func TestToStringAndValueOf(t *testing.T) {
	ctx := newCtx()
	assert.Equal(t, "5", call(t, ctx, "ToString", fv(ctx, 5)).(*value.String).S)
	got := call(t, ctx, "ValueOf", &value.String{S: "42"})
	assert.Equal(t, "42", got.Inspect())
}

func TestPredicates(t *testing.T) {
	ctx := newCtx()
	assert.Equal(t, "1", call(t, ctx, "IsFloat", fv(ctx, 1)).Inspect())
	assert.Equal(t, "0", call(t, ctx, "IsString", fv(ctx, 1)).Inspect())
	assert.Equal(t, "1", call(t, ctx, "IsNil", value.NilValue).Inspect())
}

func TestMaxMinShortCircuitNaN(t *testing.T) {
	ctx := newCtx()
	nan := &value.Float{N: numeric.NaN()}
	got := call(t, ctx, "Max", nan, fv(ctx, 1))
	assert.True(t, got.(*value.Float).N.IsNaN())
}

func TestMaxMin(t *testing.T) {
	ctx := newCtx()
	assert.Equal(t, "5", call(t, ctx, "Max", fv(ctx, 5), fv(ctx, 2)).Inspect())
	assert.Equal(t, "2", call(t, ctx, "Min", fv(ctx, 5), fv(ctx, 2)).Inspect())
}

func TestAbsAndSqr(t *testing.T) {
	ctx := newCtx()
	neg := &value.Float{N: ctx.NumEnv.FromInt64(-4)}
	assert.Equal(t, "4", call(t, ctx, "Abs", neg).Inspect())
	assert.Equal(t, "16", call(t, ctx, "Sqr", fv(ctx, 4)).Inspect())
}

func TestRoundFloorCeil(t *testing.T) {
	ctx := newCtx()
	half, err := ctx.NumEnv.FromString("2.5")
	require.NoError(t, err)
	// The default mode is ties-to-even: 2.5 rounds down to 2.
	assert.Equal(t, "2", call(t, ctx, "Round", &value.Float{N: half}).Inspect())
	assert.Equal(t, "2", call(t, ctx, "Floor", &value.Float{N: half}).Inspect())
	assert.Equal(t, "3", call(t, ctx, "Ceil", &value.Float{N: half}).Inspect())
}

func TestRoundFollowsRoundMode(t *testing.T) {
	ctx := newCtx()
	half, err := ctx.NumEnv.FromString("2.5")
	require.NoError(t, err)
	call(t, ctx, "SetRoundMode", fv(ctx, int64(numeric.ToNearestAway)))
	assert.Equal(t, "3", call(t, ctx, "Round", &value.Float{N: half}).Inspect())
	call(t, ctx, "SetRoundMode", fv(ctx, int64(numeric.TowardZero)))
	assert.Equal(t, "2", call(t, ctx, "Round", &value.Float{N: half}).Inspect())
	call(t, ctx, "SetRoundMode", fv(ctx, int64(numeric.ToNearestEven)))
	assert.Equal(t, "2", call(t, ctx, "Round", &value.Float{N: half}).Inspect())
}

func TestInputReadsFromLogger(t *testing.T) {
	buf := logging.NewBuffer("hello")
	root := symtab.NewGlobalScope()
	ctx := interp.NewCallingContext(root, buf)
	got := call(t, ctx, "Input")
	assert.Equal(t, "hello", got.(*value.String).S)
}

func TestErrorBuiltinLogsMessage(t *testing.T) {
	buf := logging.NewBuffer()
	root := symtab.NewGlobalScope()
	ctx := interp.NewCallingContext(root, buf)
	call(t, ctx, "Error", &value.String{S: "bad thing"})
	require.Len(t, buf.Logs, 1)
	assert.Contains(t, buf.Logs[0], "bad thing")
}

func TestFatalBuiltinReturnsError(t *testing.T) {
	ctx := newCtx()
	fn, _ := findFunc("Fatal")
	_, err := fn.Fn(ctx, []value.Value{&value.String{S: "boom"}}, nil)
	require.Error(t, err)
}

func TestRegisterInstallsEveryName(t *testing.T) {
	globals := make(map[string]value.Value)
	Register(globals)
	_, ok := globals["NewArray"]
	assert.True(t, ok)
	_, ok = globals["EnterDebugger"]
	assert.True(t, ok)
}
