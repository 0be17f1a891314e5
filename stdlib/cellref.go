package stdlib

import (
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/token"
	"forwardbackward/value"
)

// cellRefFunctions mirrors StdLib.cpp's EvalCell/ExpandRange (dispatch
// into the formula dialect's CellRefEval/CellRangeExpand visitors, here
// routed through the CellResolver a formula.Controller installs on the
// CallingContext) and EnterDebugger, the one builtin spec §4.8 documents
// as a voluntary breakpoint rather than an exception-triggered one.
func cellRefFunctions() []*interp.NativeFunction {
	return []*interp.NativeFunction{
		unary("EvalCell", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			ref, ok := v.(*value.CellRef)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: EvalCell expects a CellRef, got a %s", v.Type())
			}
			if ctx.CellResolver == nil {
				engine.Raise("EvalCell: no CellResolver installed on CallingContext")
			}
			return ctx.CellResolver.ResolveRef(ctx, ref)
		}),
		unary("ExpandRange", func(ctx *interp.CallingContext, v value.Value, tok *token.Token) (value.Value, error) {
			rng, ok := v.(*value.CellRange)
			if !ok {
				return nil, engine.NewTypedError(tok, "Error: ExpandRange expects a CellRange, got a %s", v.Type())
			}
			if ctx.CellResolver == nil {
				engine.Raise("ExpandRange: no CellResolver installed on CallingContext")
			}
			items, err := ctx.CellResolver.ExpandRange(ctx, rng)
			if err != nil {
				return nil, err
			}
			return &value.Array{Elements: items}, nil
		}),
		nullary("EnterDebugger", func(ctx *interp.CallingContext) (value.Value, error) {
			if ctx.Debugger != nil {
				ctx.Debugger.Enter("", ctx)
			}
			return value.NilValue, nil
		}),
	}
}
