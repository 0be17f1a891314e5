package interp

import (
	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/token"
	"forwardbackward/value"
)

// NativeFunction is the shape stdlib's built-ins implement (spec §4.7's
// "native function" call path, alongside user-defined ast.FunctionDef
// bodies). It satisfies value.FunctionCode via Name/ArgCount below.
// ArgCount of Variadic means any argument count is accepted — the formula
// dialect's aggregate functions (SUM, MIN, ...) take however many
// `;`-separated arguments the cell supplies.
type NativeFunction struct {
	Name     string
	ArgCount int
	Fn       func(ctx *CallingContext, args []value.Value, tok *token.Token) (value.Value, error)
}

// Variadic as a NativeFunction.ArgCount disables the arity check.
const Variadic = -1

func (n *NativeFunction) FunctionName() string { return n.Name }
func (n *NativeFunction) Arity() int            { return n.ArgCount }

// CallFunction implements spec §4.7's call sequence: arity check, frame
// allocation, push, run the body (user-defined) or native callback, pop
// unconditionally, and translate the body's final signal into a return
// value or a FatalException.
func CallFunction(ctx *CallingContext, fn *value.Function, args []value.Value, callSite *token.Token) (value.Value, error) {
	switch code := fn.Code.(type) {
	case *NativeFunction:
		if code.ArgCount != Variadic && len(args) != code.ArgCount {
			return nil, engine.NewFatal(callSite, "Error: %s expects %d argument(s), got %d", code.Name, code.ArgCount, len(args))
		}
		// Natives get a frame like any other function so the debugger's
		// backtrace shows them (the EnterDebugger builtin itself relies
		// on this to name its own frame).
		frame := &Frame{Name: code.Name, Args: args, CallSite: callSite}
		ctx.PushFrame(frame)
		defer ctx.PopFrame()
		return code.Fn(ctx, args, callSite)
	case *ast.FunctionDef:
		return callUserFunction(ctx, code, fn.Captures, args, callSite)
	default:
		engine.Raise("CallFunction: unhandled FunctionCode %T", fn.Code)
		return nil, nil
	}
}

func callUserFunction(ctx *CallingContext, def *ast.FunctionDef, captures, args []value.Value, callSite *token.Token) (value.Value, error) {
	if len(args) != def.ParamArgs {
		return nil, engine.NewFatal(callSite, "Error: %s expects %d argument(s), got %d", def.Name, def.ParamArgs, len(args))
	}
	frame := &Frame{
		Name:       def.Name,
		ArgNames:   def.ArgNames,
		LocalNames: def.LocalNames,
		CapNames:   def.CaptureNames,
		Args:       append([]value.Value(nil), args...),
		Locals:     make([]value.Value, def.Locals),
		Captures:   captures,
		CallSite:   callSite,
	}
	ctx.PushFrame(frame)
	defer ctx.PopFrame()

	if ctx.FrameDepth() > maxCallDepth {
		return nil, engine.NewFatal(callSite, "Error: stack overflow calling %s", def.Name)
	}

	sig, err := Exec(ctx, def.Body)
	if err != nil {
		return nil, err
	}
	switch sig.Kind {
	case SigReturn:
		if !sig.HasValue {
			return nil, engine.NewFatal(callSite, "Function failed to return a value: %s", def.Name)
		}
		return sig.Value, nil
	case SigNone:
		return nil, engine.NewFatal(callSite, "Function failed to return a value: %s", def.Name)
	case SigBreak, SigContinue:
		return nil, engine.NewFatal(callSite, "Error: break/continue escaped function %s", def.Name)
	default:
		engine.Raise("callUserFunction: unhandled signal kind %v", sig.Kind)
		return nil, nil
	}
}

// maxCallDepth bounds recursion the way a systems-language stack would
// overflow naturally; Go's goroutine stack grows, so this is an explicit
// guard instead (spec §7.3 treats runaway recursion as a FatalException,
// not a crash).
const maxCallDepth = 4096
