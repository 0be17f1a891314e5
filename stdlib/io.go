package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/token"
	"forwardbackward/value"
)

// ioFunctions mirrors StdLib.cpp's LOGGINGFUNCTIONDEFN-generated
// Error/Warn/Info/Fatal (all write through ctx.Logger, Fatal additionally
// aborts evaluation) plus Print (the console-echo builtin spec §8's
// scenario 6 drives through the debugger) and DebugPrint (identical to
// Print: both log the argument's Inspect() text and return Nil), plus
// Input, which reads one line from the logger.
func ioFunctions() []*interp.NativeFunction {
	logLevel := func(name, prefix string, fatal bool) *interp.NativeFunction {
		return unary(name, func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			str, ok := v.(*value.String)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: %s expects a String, got a %s", name, v.Type())
			}
			if ctx.Logger != nil {
				ctx.Logger.Log(prefix + str.S)
			}
			if fatal {
				return nil, engine.NewFatal(tok, "%s", str.S)
			}
			return value.NilValue, nil
		})
	}
	return []*interp.NativeFunction{
		logLevel("Error", "Error: ", false),
		logLevel("Warn", "Warning: ", false),
		logLevel("Info", "Info: ", false),
		logLevel("Fatal", "Fatal: ", true),
		unary("Print", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			if ctx.Logger != nil {
				ctx.Logger.Log(v.Inspect())
			}
			return value.NilValue, nil
		}),
		unary("DebugPrint", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			if ctx.Logger != nil {
				ctx.Logger.Log(v.Inspect())
			}
			return value.NilValue, nil
		}),
		nullary("Input", func(ctx *interp.CallingContext) (value.Value, error) {
			if ctx.Logger == nil {
				return value.NilValue, nil
			}
			line, ok := ctx.Logger.Get()
			if !ok {
				return value.NilValue, nil
			}
			return &value.String{S: line}, nil
		}),
	}
}
