// Package stdlib implements the built-in functions callable from both
// dialects (spec §2 item 9, §4.7 "native function" path). Grounded on
// Backwards/src/Engine/StdLib.cpp's roster of ~40-odd STDLIB_*_DECL
// functions, reshaped into Go NativeFunction values (package interp)
// rather than the original's macro-generated free functions.
package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/token"
	"forwardbackward/value"
)

// nullary wraps a zero-argument builtin (spec §4.7's native-function
// call path) — the majority of the "constant" built-ins (NewArray,
// NewDictionary, NaN, GetRoundMode, ...) take no arguments.
func nullary(name string, fn func(ctx *interp.CallingContext) (value.Value, error)) *interp.NativeFunction {
	return &interp.NativeFunction{Name: name, ArgCount: 0, Fn: func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
		return fn(ctx)
	}}
}

func unary(name string, fn func(ctx *interp.CallingContext, a value.Value, tok *token.Token) (value.Value, error)) *interp.NativeFunction {
	return &interp.NativeFunction{Name: name, ArgCount: 1, Fn: func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
		return fn(ctx, args[0], tok)
	}}
}

func binary(name string, fn func(ctx *interp.CallingContext, a, b value.Value, tok *token.Token) (value.Value, error)) *interp.NativeFunction {
	return &interp.NativeFunction{Name: name, ArgCount: 2, Fn: func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
		return fn(ctx, args[0], args[1], tok)
	}}
}

func ternary(name string, fn func(ctx *interp.CallingContext, a, b, c value.Value, tok *token.Token) (value.Value, error)) *interp.NativeFunction {
	return &interp.NativeFunction{Name: name, ArgCount: 3, Fn: func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
		return fn(ctx, args[0], args[1], args[2], tok)
	}}
}

// asFloatIndex converts a Float argument to a Go int, the way most
// collection builtins take their index/count arguments.
func asFloatIndex(v value.Value, tok *token.Token, who string) (int, error) {
	f, ok := v.(*value.Float)
	if !ok {
		return 0, engine.NewTypedError(tok, "Error: %s expects a Float index, got a %s", who, v.Type())
	}
	return int(f.N.AsFloat64()), nil
}

// boolFloatVal renders a Go bool the way the rest of the language does:
// 0 for false, 1 for true (spec §4.2 has no dedicated Boolean type).
func boolFloatVal(ctx *interp.CallingContext, b bool) value.Value {
	if b {
		return &value.Float{N: ctx.NumEnv.FromInt64(1)}
	}
	return &value.Float{N: ctx.NumEnv.FromInt64(0)}
}

// Register installs every standard-library function into globals,
// keyed by name, as Function values wrapping a NativeFunction — the
// same representation a user-defined function produces (spec §4.7:
// "Built-in standard-library functions are wrapped as Functions with a
// special FunctionContext whose body is a native implementation").
func Register(globals map[string]value.Value) {
	for _, nf := range All() {
		globals[nf.Name] = &value.Function{Code: nf}
	}
}

// All returns the full standard-library roster, grouped by the source
// files that define them (collections.go, strings.go, predicates.go,
// math.go, io.go, numeric_mode.go, cellref.go).
func All() []*interp.NativeFunction {
	var out []*interp.NativeFunction
	out = append(out, collectionFunctions()...)
	out = append(out, stringFunctions()...)
	out = append(out, predicateFunctions()...)
	out = append(out, mathFunctions()...)
	out = append(out, ioFunctions()...)
	out = append(out, numericModeFunctions()...)
	out = append(out, cellRefFunctions()...)
	return out
}
