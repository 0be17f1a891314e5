// Package debugger implements the interactive frame-walking REPL of spec
// §4.8, reading commands through the Logger's Get method (spec §6.1) and
// printing through its Log method. Grounded on the command-table
// dispatch the pack uses for named-command loops and on
// original_source/Backwards/Tests/DebuggerTest.cpp, whose transcripts
// pin this package's exact output.
package debugger

import (
	"fmt"
	"strings"

	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/parser"
	"forwardbackward/symtab"
)

// Debugger is the default interp.Debugger hook implementation.
type Debugger struct{}

func New() *Debugger { return &Debugger{} }

// Enter runs the REPL until `quit` or the command source is exhausted.
// Entered automatically (with the triggering exception's description as
// message) or voluntarily through the EnterDebugger builtin (empty
// message).
func (d *Debugger) Enter(message string, ctx *interp.CallingContext) {
	log := ctx.Logger
	if log == nil {
		return
	}
	if message != "" {
		log.Log("Entered debugger with message: " + message)
	}

	frames := collectFrames(ctx)
	if len(frames) == 0 {
		return
	}
	cur := 0 // index from the top; frame #(len-cur) in user numbering
	log.Log(frameHeader(frames, cur))

	prev := ""
	for {
		cmd, ok := log.Get()
		if !ok {
			return
		}
		if cmd == "" {
			if prev == "" {
				continue
			}
			cmd = prev
		}
		prev = cmd

		switch {
		case cmd == "quit":
			return
		case cmd == "up":
			if cur == 0 {
				log.Log("Already in top-most frame.")
			} else {
				cur--
				log.Log(frameHeader(frames, cur))
			}
		case cmd == "down":
			if cur == len(frames)-1 {
				log.Log("Already in bottom-most frame.")
			} else {
				cur++
				log.Log(frameHeader(frames, cur))
			}
		case cmd == "bt":
			log.Log(backtrace(frames))
		case cmd == "show":
			log.Log(showVariables(ctx, frames[cur]))
		case strings.HasPrefix(cmd, "print "):
			d.print(ctx, frames[cur], strings.TrimPrefix(cmd, "print "))
		default:
			log.Log("Did not understand >" + cmd + "<.")
		}
	}
}

// collectFrames walks the chain top (most recent) first.
func collectFrames(ctx *interp.CallingContext) []*interp.Frame {
	var out []*interp.Frame
	for fr := ctx.Frame; fr != nil; fr = fr.Next {
		out = append(out, fr)
	}
	return out
}

func frameLabel(frames []*interp.Frame, idx int) string {
	fr := frames[idx]
	line, file := 0, "<unknown>"
	if fr.CallSite != nil {
		line, file = fr.CallSite.Line, fr.CallSite.Source
	}
	return fmt.Sprintf("#%d: >%s< from line %d in %s", len(frames)-idx, fr.Name, line, file)
}

func frameHeader(frames []*interp.Frame, idx int) string {
	return "In function " + frameLabel(frames, idx)
}

func backtrace(frames []*interp.Frame) string {
	lines := make([]string, len(frames))
	for i := range frames {
		lines[i] = frameLabel(frames, i)
	}
	return strings.Join(lines, "\n")
}

func showVariables(ctx *interp.CallingContext, fr *interp.Frame) string {
	frameNames := make([]string, 0, len(fr.ArgNames)+len(fr.LocalNames)+len(fr.CapNames))
	frameNames = append(frameNames, fr.ArgNames...)
	frameNames = append(frameNames, fr.LocalNames...)
	frameNames = append(frameNames, fr.CapNames...)
	return "These variables are in the current stack frame: " + strings.Join(frameNames, ", ") +
		"\nThese variables are in the current scope: " + strings.Join(ctx.ScopeNames(), ", ") +
		"\nThese variables are in the global scope: " + strings.Join(ctx.GlobalNames(), ", ")
}

// print parses the argument in the selected frame's lexical environment
// and evaluates it there. The debugger hook is detached for the duration
// so an error in the typed expression prints instead of re-entering.
func (d *Debugger) print(ctx *interp.CallingContext, fr *interp.Frame, src string) {
	fc := symtab.NewFunctionContext(fr.Name)
	for _, n := range fr.ArgNames {
		fc.DeclareArg(n)
	}
	for _, n := range fr.LocalNames {
		fc.DeclareLocal(n)
	}
	for _, n := range fr.CapNames {
		fc.DeclareCapture(n)
	}

	expr, err := parser.ParseDebugExpression(src, fc, ctx.TopScope(), ctx.GlobalScope())
	if err != nil {
		ctx.Logger.Log(err.Error())
		ctx.Logger.Log("Didn't understand that.")
		return
	}

	savedFrame, savedDebugger := ctx.Frame, ctx.Debugger
	ctx.Frame = fr
	ctx.Debugger = nil
	v, err := interp.Eval(ctx, expr)
	ctx.Frame, ctx.Debugger = savedFrame, savedDebugger

	if err != nil {
		ctx.Logger.Log(engine.DescribeError(err, parser.DebugSource))
		return
	}
	ctx.Logger.Log(v.Inspect())
}
