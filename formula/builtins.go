package formula

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/numeric"
	"forwardbackward/token"
	"forwardbackward/value"
)

// RegisterAggregates installs the formula-dialect aggregate functions
// into a built-in-name map. They are variadic: `@SUM(A0:B1)` and
// `@SUM(A0;B0;C0)` both work, and ranges, references, and arrays are
// walked recursively down to their cell values.
func RegisterAggregates(m map[string]value.Value) {
	for _, nf := range aggregateFunctions() {
		m[nf.Name] = &value.Function{Code: nf}
	}
}

func aggregateFunctions() []*interp.NativeFunction {
	return []*interp.NativeFunction{
		variadic("SUM", func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
			acc := ctx.NumEnv.Zero(false)
			err := eachNumber(ctx, args, tok, func(n numeric.Number) {
				acc = acc.Add(ctx.NumEnv, n)
			})
			if err != nil {
				return nil, err
			}
			return &value.Float{N: acc}, nil
		}),
		variadic("COUNT", func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
			count := 0
			err := eachNumber(ctx, args, tok, func(numeric.Number) { count++ })
			if err != nil {
				return nil, err
			}
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(count))}, nil
		}),
		variadic("AVERAGE", func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
			acc := ctx.NumEnv.Zero(false)
			count := 0
			err := eachNumber(ctx, args, tok, func(n numeric.Number) {
				acc = acc.Add(ctx.NumEnv, n)
				count++
			})
			if err != nil {
				return nil, err
			}
			if count == 0 {
				return &value.Float{N: numeric.NaN()}, nil
			}
			return &value.Float{N: acc.Div(ctx.NumEnv, ctx.NumEnv.FromInt64(int64(count)))}, nil
		}),
		variadic("MIN", func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
			return extremum(ctx, args, tok, func(candidate, best numeric.Number) bool {
				return candidate.Cmp(best) < 0
			})
		}),
		variadic("MAX", func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error) {
			return extremum(ctx, args, tok, func(candidate, best numeric.Number) bool {
				return candidate.Cmp(best) > 0
			})
		}),
	}
}

func variadic(name string, fn func(ctx *interp.CallingContext, args []value.Value, tok *token.Token) (value.Value, error)) *interp.NativeFunction {
	return &interp.NativeFunction{Name: name, ArgCount: interp.Variadic, Fn: fn}
}

func extremum(ctx *interp.CallingContext, args []value.Value, tok *token.Token, better func(candidate, best numeric.Number) bool) (value.Value, error) {
	var best *numeric.Number
	err := eachNumber(ctx, args, tok, func(n numeric.Number) {
		if n.IsNaN() {
			nan := numeric.NaN()
			best = &nan
			return
		}
		if best == nil || (!best.IsNaN() && better(n, *best)) {
			c := n
			best = &c
		}
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return value.NilValue, nil
	}
	return &value.Float{N: *best}, nil
}

// eachNumber walks an aggregate's arguments: Floats are visited, Nil and
// Strings are skipped (labels inside a summed range don't poison it),
// references resolve to their cell's value, ranges and arrays recurse.
// Anything else is a type error.
func eachNumber(ctx *interp.CallingContext, args []value.Value, tok *token.Token, visit func(numeric.Number)) error {
	for _, a := range args {
		switch v := a.(type) {
		case *value.Float:
			visit(v.N)
		case *value.Nil, *value.String:
			// skipped
		case *value.CellRef:
			resolved, err := ctx.CellResolver.ResolveRef(ctx, v)
			if err != nil {
				return err
			}
			if err := eachNumber(ctx, []value.Value{resolved}, tok, visit); err != nil {
				return err
			}
		case *value.CellRange:
			items, err := ctx.CellResolver.ExpandRange(ctx, v)
			if err != nil {
				return err
			}
			if err := eachNumber(ctx, items, tok, visit); err != nil {
				return err
			}
		case *value.Array:
			if err := eachNumber(ctx, v.Elements, tok, visit); err != nil {
				return err
			}
		default:
			return engine.NewTypedError(tok, "Error aggregating %s", a.Type())
		}
	}
	return nil
}
