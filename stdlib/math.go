package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/numeric"
	"forwardbackward/token"
	"forwardbackward/value"
)

// mathFunctions mirrors StdLib.cpp's numeric builtins: NaN, Max, Min,
// Round, Floor, Ceil, Abs, Sqr. Max/Min short-circuit to NaN the moment
// either argument is NaN (shortMinMax in the original), rather than
// letting Number.Cmp's NaN-sorts-low total order leak into arithmetic
// results.
func mathFunctions() []*interp.NativeFunction {
	asFloat := func(v value.Value, tok *token.Token, who string) (numeric.Number, error) {
		f, ok := v.(*value.Float)
		if !ok {
			return numeric.Number{}, engine.NewTypedError(tok, "Error: %s expects a Float, got a %s", who, v.Type())
		}
		return f.N, nil
	}
	oneArgMath := func(name string, fn func(n numeric.Number) numeric.Number) *interp.NativeFunction {
		return unary(name, func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			n, err := asFloat(v, tok, name)
			if err != nil {
				return nil, err
			}
			return &value.Float{N: fn(n)}, nil
		})
	}
	return []*interp.NativeFunction{
		nullary("NaN", func(ctx *interp.CallingContext) (value.Value, error) {
			return &value.Float{N: numeric.NaN()}, nil
		}),
		binary("Max", func(ctx *interp.CallingContext, a, b value.Value, tok *token.Token) (value.Value, error) {
			na, err := asFloat(a, tok, "Max")
			if err != nil {
				return nil, err
			}
			nb, err := asFloat(b, tok, "Max")
			if err != nil {
				return nil, err
			}
			if na.IsNaN() || nb.IsNaN() {
				return &value.Float{N: numeric.NaN()}, nil
			}
			if na.Cmp(nb) >= 0 {
				return &value.Float{N: na}, nil
			}
			return &value.Float{N: nb}, nil
		}),
		binary("Min", func(ctx *interp.CallingContext, a, b value.Value, tok *token.Token) (value.Value, error) {
			na, err := asFloat(a, tok, "Min")
			if err != nil {
				return nil, err
			}
			nb, err := asFloat(b, tok, "Min")
			if err != nil {
				return nil, err
			}
			if na.IsNaN() || nb.IsNaN() {
				return &value.Float{N: numeric.NaN()}, nil
			}
			if na.Cmp(nb) <= 0 {
				return &value.Float{N: na}, nil
			}
			return &value.Float{N: nb}, nil
		}),
		unary("Round", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			n, err := asFloat(v, tok, "Round")
			if err != nil {
				return nil, err
			}
			return &value.Float{N: n.Round(ctx.NumEnv)}, nil
		}),
		oneArgMath("Floor", func(n numeric.Number) numeric.Number { return n.Floor() }),
		oneArgMath("Ceil", func(n numeric.Number) numeric.Number { return n.Ceil() }),
		unary("Abs", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			n, err := asFloat(v, tok, "Abs")
			if err != nil {
				return nil, err
			}
			if n.IsSigned() {
				return &value.Float{N: n.Negate(ctx.NumEnv)}, nil
			}
			return &value.Float{N: n}, nil
		}),
		unary("Sqr", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			n, err := asFloat(v, tok, "Sqr")
			if err != nil {
				return nil, err
			}
			return &value.Float{N: n.Mul(ctx.NumEnv, n)}, nil
		}),
	}
}
