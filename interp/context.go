// Package interp is the tree-walking interpreter core shared by both
// dialects (spec §4.4/§4.7/§4.9): expression/statement evaluation, the
// call stack of frames, and flow-control signal propagation. Grounded on
// the teacher's interpreter package — an Evaluator holding process-wide
// state, a switch-based Eval dispatcher, and a Signal type for
// break/continue instead of panics — generalized to this spec's
// slot-resolved frames (symtab.GetterSetter) instead of the teacher's
// map-based Environment chain.
package interp

import (
	"forwardbackward/numeric"
	"forwardbackward/symtab"
	"forwardbackward/token"
	"forwardbackward/value"
)

// Frame is one dynamic function invocation (spec §3 StackFrame): its
// static FunctionContext, argument/local/capture value slots, the
// call-site token (used by the debugger's frame header), and a link to
// the next-outer frame.
type Frame struct {
	// Name/ArgNames/LocalNames/CapNames are the parse-time labels for this
	// frame's slots (spec §4.8's debugger "show"/"print" commands) — the
	// ast.FunctionDef that produced this invocation carries them, since
	// evaluation itself never needs anything but slot indices.
	Name       string
	ArgNames   []string
	LocalNames []string
	CapNames   []string

	Args     []value.Value
	Locals   []value.Value
	Captures []value.Value
	CallSite *token.Token
	Next     *Frame
}

// CellFrame is the dynamic evaluation record for a single cell
// invocation (GLOSSARY: "Cell frame") — just coordinates, since the cell
// pointer itself lives in package sheet, outside interp's dependency
// reach.
type CellFrame struct {
	Col, Row int
	Sheet    string
}

// CellResolver is the hook the formula package installs on a
// CallingContext so interp's Constant/MakeRange/MoveReference evaluation
// can resolve CellRef values without interp depending on package sheet
// (spec §4.10's final_const procedure lives in formula; interp only
// needs to call it).
type CellResolver interface {
	ResolveRef(ctx *CallingContext, ref *value.CellRef) (value.Value, error)
	ExpandRange(ctx *CallingContext, r *value.CellRange) ([]value.Value, error)
}

// Debugger is spec §6.2's hook: enter(message, ctx) -> (). The default
// implementation (package debugger) runs the interactive REPL of §4.8;
// interp never re-enters on its own after Enter returns — for an
// automatically-triggered entry (a caught TypedOperationException) the
// caller re-raises afterward, for a voluntary EnterDebugger() call it
// simply continues.
type Debugger interface {
	Enter(message string, ctx *CallingContext)
}

// Sink is redeclared here as an alias-free minimal interface (rather than
// importing package logging) to keep interp free of a dependency that
// only the CLI/debugger care about wiring concretely; logging.Sink
// satisfies it structurally.
type Sink interface {
	Log(message string)
	Get() (string, bool)
}

type scopeFrame struct {
	scope  *symtab.Scope
	values []value.Value
}

// CallingContext is spec §3's CallingContext: global scope, the lexical
// scope stack, the current frame, logger, debugger, and the formula
// dialect's extras (current cell frame, name table, generation counter,
// in-user-input flag). One CallingContext is shared for the whole
// process lifetime of an embedding (CLI session, recalculation pass,
// test).
type CallingContext struct {
	NumEnv *numeric.Environment

	globalScope *symtab.Scope
	Globals     []value.Value

	scopeFrames []scopeFrame

	Frame      *Frame
	frameDepth int

	Logger   Sink
	Debugger Debugger

	// Formula-dialect extras (spec §3, §4.10-§4.13). Nil/empty in the
	// script dialect.
	CurrentCellFrame *CellFrame
	CellResolver     CellResolver
	Names            map[string]value.Value
	Generation       int
	InUserInput      bool

	// SourceName is the file/program name DescribeError reports
	// alongside a TypedOperationException's line/column (spec §4.8's
	// debugger header, §7.2's message format).
	SourceName string

	// lastDebugged remembers the TypedOperationException instance
	// already shown to the debugger, so the automatic entry on spec
	// §4.8's "catch, enter, re-raise" happens exactly once per
	// exception as it propagates back out through nested Eval/Exec
	// calls rather than once per stack level.
	lastDebugged error
}

// NewCallingContext builds a context rooted at globalScope (the same
// *symtab.Scope the parser resolved top-level `set` statements against).
func NewCallingContext(globalScope *symtab.Scope, logger Sink) *CallingContext {
	return &CallingContext{
		NumEnv:      numeric.NewEnvironment(),
		globalScope: globalScope,
		Logger:      logger,
		Names:       make(map[string]value.Value),
	}
}

// EnsureGlobals grows Globals to match the global scope's current slot
// count — called after each additional top-level parse, since the script
// dialect allows `set NAME to EXPR` to introduce new global names at any
// point (spec §6.5).
func (ctx *CallingContext) EnsureGlobals() {
	n := ctx.globalScope.SlotCount()
	if len(ctx.Globals) < n {
		grown := make([]value.Value, n)
		copy(grown, ctx.Globals)
		ctx.Globals = grown
	}
}

// PushScope activates storage for a lexical block scope (spec §4.6);
// paired with PopScope, called unconditionally on every exit path
// including exceptions and flow-control unwinding.
func (ctx *CallingContext) PushScope(s *symtab.Scope) {
	ctx.scopeFrames = append(ctx.scopeFrames, scopeFrame{scope: s, values: make([]value.Value, s.SlotCount())})
}

func (ctx *CallingContext) PopScope() {
	ctx.scopeFrames = ctx.scopeFrames[:len(ctx.scopeFrames)-1]
}

// scopeValues finds the innermost (topmost) live value slice for s. A
// stack search is correct even under recursion re-entering the same
// lexical scope: the only scope instance visible at any point in a
// strictly nested tree-walk is the most recently pushed one matching s.
func (ctx *CallingContext) scopeValues(s *symtab.Scope) []value.Value {
	for i := len(ctx.scopeFrames) - 1; i >= 0; i-- {
		if ctx.scopeFrames[i].scope == s {
			return ctx.scopeFrames[i].values
		}
	}
	return nil
}

// PushFrame pushes a new StackFrame onto the call chain (spec §4.7 step
// 4), linking Next to the previous top.
func (ctx *CallingContext) PushFrame(f *Frame) {
	f.Next = ctx.Frame
	ctx.Frame = f
	ctx.frameDepth++
}

// PopFrame pops the current frame regardless of normal or exceptional
// exit (spec §4.7 step 7).
func (ctx *CallingContext) PopFrame() {
	ctx.Frame = ctx.Frame.Next
	ctx.frameDepth--
}

// FrameDepth reports how many frames are currently on the chain — the
// debugger's frame numbering counts from the bottom (oldest, #1) to the
// top (most recent, #FrameDepth).
func (ctx *CallingContext) FrameDepth() int { return ctx.frameDepth }

// GlobalNames returns every name declared in the global scope, in
// declaration order (spec §4.8's "show" command, global-scope line).
func (ctx *CallingContext) GlobalNames() []string { return ctx.globalScope.Names() }

// GlobalScope exposes the resolved global scope so the debugger's "print"
// command can parse ad-hoc expressions against the same name bindings the
// program was parsed with.
func (ctx *CallingContext) GlobalScope() *symtab.Scope { return ctx.globalScope }

// TopScope returns the innermost live lexical scope, or nil outside any
// block — the debugger's expression parser resolves block-scoped names
// through it.
func (ctx *CallingContext) TopScope() *symtab.Scope {
	if len(ctx.scopeFrames) == 0 {
		return nil
	}
	return ctx.scopeFrames[len(ctx.scopeFrames)-1].scope
}

// ScopeNames returns the names visible through the active lexical scope
// stack, innermost scope first, matching the order a name lookup would
// search them (spec §4.8's "show" command, current-scope line).
func (ctx *CallingContext) ScopeNames() []string {
	var out []string
	for i := len(ctx.scopeFrames) - 1; i >= 0; i-- {
		out = append(out, ctx.scopeFrames[i].scope.Names()...)
	}
	return out
}

