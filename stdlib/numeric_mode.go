package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/numeric"
	"forwardbackward/token"
	"forwardbackward/value"
)

// numericModeFunctions mirrors StdLib.cpp's GetRoundMode/SetRoundMode and
// GetDefaultPrecision/SetDefaultPrecision/GetPrecision/SetPrecision: these
// read and mutate the shared numeric.Environment a CallingContext carries
// (spec §4.1's rounding mode and precision are process state, not
// per-value attributes except where SetPrecision rounds one Float).
func numericModeFunctions() []*interp.NativeFunction {
	return []*interp.NativeFunction{
		nullary("GetRoundMode", func(ctx *interp.CallingContext) (value.Value, error) {
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(ctx.NumEnv.Rounding()))}, nil
		}),
		unary("SetRoundMode", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			f, ok := v.(*value.Float)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: SetRoundMode expects a Float, got a %s", v.Type())
			}
			ctx.NumEnv.SetRounding(numeric.RoundingMode(int(f.N.AsFloat64())))
			return value.NilValue, nil
		}),
		nullary("GetDefaultPrecision", func(ctx *interp.CallingContext) (value.Value, error) {
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(numeric.DefaultPrecision))}, nil
		}),
		unary("SetDefaultPrecision", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			f, ok := v.(*value.Float)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: SetDefaultPrecision expects a Float, got a %s", v.Type())
			}
			ctx.NumEnv.SetPrecision(uint(f.N.AsFloat64()))
			return value.NilValue, nil
		}),
		nullary("GetPrecision", func(ctx *interp.CallingContext) (value.Value, error) {
			return &value.Float{N: ctx.NumEnv.FromInt64(int64(ctx.NumEnv.Precision()))}, nil
		}),
		binary("SetPrecision", func(ctx *interp.CallingContext, v, bits value.Value, tok *token.Token) (value.Value, error) {
			f, ok := v.(*value.Float)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: SetPrecision expects a Float, got a %s", v.Type())
			}
			b, ok := bits.(*value.Float)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: SetPrecision expects a Float precision, got a %s", bits.Type())
			}
			return &value.Float{N: f.N.ChangePrecision(ctx.NumEnv, uint(b.N.AsFloat64()))}, nil
		}),
	}
}
