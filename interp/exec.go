package interp

import (
	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/value"
)

// Exec runs one statement (spec §4.4/§4.6/§4.9), returning the signal it
// finished with (fallthrough, break/continue/return) so enclosing loops
// and the function-call driver can react.
func Exec(ctx *CallingContext, s ast.Statement) (sig Signal, err error) {
	defer func() { maybeEnterDebugger(ctx, err) }()
	switch n := s.(type) {
	case *ast.Assign:
		return execAssign(ctx, n)
	case *ast.RecAssign:
		return execRecAssign(ctx, n)
	case *ast.Call:
		_, err := Eval(ctx, n.Expr)
		return noSignal, err
	case *ast.IfBlock:
		return execIfBlock(ctx, n)
	case *ast.WhileBlock:
		return execWhileBlock(ctx, n)
	case *ast.ForBlock:
		return execForBlock(ctx, n)
	case *ast.SelectBlock:
		return execSelectBlock(ctx, n)
	case *ast.FlowControlStatement:
		return execFlowControl(ctx, n)
	case *ast.StatementSeq:
		return execSeq(ctx, n)
	default:
		engine.Raise("Exec: unhandled statement node %T", s)
		return noSignal, nil
	}
}

func execSeq(ctx *CallingContext, n *ast.StatementSeq) (Signal, error) {
	for _, stmt := range n.Statements {
		sig, err := Exec(ctx, stmt)
		if err != nil {
			return noSignal, err
		}
		if sig.Kind != SigNone {
			return sig, nil
		}
	}
	return noSignal, nil
}

func execAssign(ctx *CallingContext, n *ast.Assign) (Signal, error) {
	v, err := Eval(ctx, n.Value)
	if err != nil {
		return noSignal, err
	}
	target, ok := n.Target.(*ast.Variable)
	if !ok {
		engine.Raise("Assign: target %T is not a Variable", n.Target)
	}
	writeHandle(ctx, target.Handle, v)
	return noSignal, nil
}

// execRecAssign implements `set Container[Index] to Value` (spec §4.4
// RecAssign): rebuilds the container immutably (Array/Dictionary values
// never mutate in place) and writes the new container back through the
// same handle the Container expression reads through.
func execRecAssign(ctx *CallingContext, n *ast.RecAssign) (Signal, error) {
	target, ok := n.Container.(*ast.Variable)
	if !ok {
		engine.Raise("RecAssign: container %T is not a Variable", n.Container)
	}
	container, err := readHandle(ctx, target.Handle)
	if err != nil {
		return noSignal, err
	}
	idx, err := Eval(ctx, n.Index)
	if err != nil {
		return noSignal, err
	}
	val, err := Eval(ctx, n.Value)
	if err != nil {
		return noSignal, err
	}
	tok := n.Tok()
	switch c := container.(type) {
	case *value.Array:
		i, err := indexInt(idx, tok, len(c.Elements))
		if err != nil {
			return noSignal, err
		}
		next := make([]value.Value, len(c.Elements))
		copy(next, c.Elements)
		next[i] = val
		writeHandle(ctx, target.Handle, &value.Array{Elements: next})
	case *value.Dictionary:
		writeHandle(ctx, target.Handle, c.Insert(idx, val))
	default:
		return noSignal, engine.NewTypedError(tok, "Error: cannot index-assign into a %s", container.Type())
	}
	return noSignal, nil
}

func execIfBlock(ctx *CallingContext, n *ast.IfBlock) (Signal, error) {
	for _, br := range n.Branches {
		if br.Cond == nil {
			return Exec(ctx, br.Body)
		}
		c, err := Eval(ctx, br.Cond)
		if err != nil {
			return noSignal, err
		}
		b, err := truthy(c, br.Cond)
		if err != nil {
			return noSignal, err
		}
		if b {
			return Exec(ctx, br.Body)
		}
	}
	return noSignal, nil
}

// consumeLoopSignal interprets a body's signal from the perspective of
// one enclosing loop level (spec §4.9): Break/Continue at depth 1 stop
// here; at depth >1 they propagate further out with the depth
// decremented. Return always propagates untouched.
func consumeLoopSignal(sig Signal) (stop bool, propagate Signal) {
	switch sig.Kind {
	case SigNone:
		return false, noSignal
	case SigReturn:
		return true, sig
	case SigBreak:
		if sig.Depth > 1 {
			return true, Signal{Kind: SigBreak, Depth: sig.Depth - 1}
		}
		return true, noSignal
	case SigContinue:
		if sig.Depth > 1 {
			return true, Signal{Kind: SigContinue, Depth: sig.Depth - 1}
		}
		return false, noSignal
	default:
		engine.Raise("consumeLoopSignal: unhandled kind %v", sig.Kind)
		return true, noSignal
	}
}

func execWhileBlock(ctx *CallingContext, n *ast.WhileBlock) (Signal, error) {
	for {
		c, err := Eval(ctx, n.Cond)
		if err != nil {
			return noSignal, err
		}
		b, err := truthy(c, n.Cond)
		if err != nil {
			return noSignal, err
		}
		if !b {
			return noSignal, nil
		}
		sig, err := Exec(ctx, n.Body)
		if err != nil {
			return noSignal, err
		}
		stop, prop := consumeLoopSignal(sig)
		if stop {
			return prop, nil
		}
	}
}

// execForBlock implements both the numeric form (spec §4.9: evaluate
// From/To/Step once, push a one-slot scope for Var, step per iteration)
// and the iterator form (`for V in ARRAY/DICTIONARY do`: the container
// is evaluated once at loop entry, so reassigning it inside the body does
// not change what the loop visits).
func execForBlock(ctx *CallingContext, n *ast.ForBlock) (Signal, error) {
	scope := n.Var.Handle.ScopeObj
	ctx.PushScope(scope)
	defer ctx.PopScope()

	if n.Iterable != nil {
		return execIteratorFor(ctx, n)
	}
	return execNumericFor(ctx, n)
}

func execIteratorFor(ctx *CallingContext, n *ast.ForBlock) (Signal, error) {
	container, err := Eval(ctx, n.Iterable)
	if err != nil {
		return noSignal, err
	}
	var items []value.Value
	switch c := container.(type) {
	case *value.Array:
		items = c.Elements
	case *value.Dictionary:
		for _, e := range c.Entries() {
			items = append(items, e.Key)
		}
	case *value.CellRange:
		items, err = ctx.CellResolver.ExpandRange(ctx, c)
		if err != nil {
			return noSignal, err
		}
	default:
		return noSignal, engine.NewTypedError(n.Tok(), "Error: cannot iterate over a %s", container.Type())
	}
	for _, item := range items {
		writeHandle(ctx, n.Var.Handle, item)
		sig, err := Exec(ctx, n.Body)
		if err != nil {
			return noSignal, err
		}
		stop, prop := consumeLoopSignal(sig)
		if stop {
			return prop, nil
		}
	}
	return noSignal, nil
}

func execNumericFor(ctx *CallingContext, n *ast.ForBlock) (Signal, error) {
	from, err := Eval(ctx, n.From)
	if err != nil {
		return noSignal, err
	}
	to, err := Eval(ctx, n.To)
	if err != nil {
		return noSignal, err
	}
	var step value.Value
	if n.Step != nil {
		step, err = Eval(ctx, n.Step)
		if err != nil {
			return noSignal, err
		}
	} else {
		step = &value.Float{N: ctx.NumEnv.FromInt64(1)}
	}
	fromF, fok := from.(*value.Float)
	toF, tok1 := to.(*value.Float)
	stepF, sok := step.(*value.Float)
	if !fok || !tok1 || !sok {
		return noSignal, engine.NewTypedError(n.Tok(), "Error: for-loop bounds must be Float")
	}

	cur := fromF.N
	for {
		if n.Downto {
			if cur.Cmp(toF.N) < 0 {
				break
			}
		} else {
			if cur.Cmp(toF.N) > 0 {
				break
			}
		}
		writeHandle(ctx, n.Var.Handle, &value.Float{N: cur})
		sig, err := Exec(ctx, n.Body)
		if err != nil {
			return noSignal, err
		}
		stop, prop := consumeLoopSignal(sig)
		if stop {
			return prop, nil
		}
		if n.Downto {
			cur = cur.Sub(ctx.NumEnv, stepF.N)
		} else {
			cur = cur.Add(ctx.NumEnv, stepF.N)
		}
	}
	return noSignal, nil
}

// execSelectBlock implements `select X from case G V ... end` (spec
// §4.9): guards are evaluated top to bottom, `also` extends the
// previous case's value set onto its (shared) body, and the first
// matching case's body runs.
func execSelectBlock(ctx *CallingContext, n *ast.SelectBlock) (Signal, error) {
	subject, err := Eval(ctx, n.Subject)
	if err != nil {
		return noSignal, err
	}
	var pendingBody ast.Statement
	for _, c := range n.Cases {
		if c.Body != nil {
			pendingBody = c.Body
		}
		if c.Value == nil {
			continue
		}
		v, err := Eval(ctx, c.Value)
		if err != nil {
			return noSignal, err
		}
		var matched bool
		switch c.Guard {
		case ast.CaseIs, ast.CaseAlso:
			matched, err = value.EqualOp(ctx.NumEnv, subject, v, n.Tok())
		case ast.CaseAbove:
			var cmp int
			cmp, err = value.CompareOp(ctx.NumEnv, subject, v, n.Tok())
			matched = cmp > 0
		case ast.CaseBelow:
			var cmp int
			cmp, err = value.CompareOp(ctx.NumEnv, subject, v, n.Tok())
			matched = cmp < 0
		}
		if err != nil {
			return noSignal, err
		}
		if matched {
			if pendingBody == nil {
				return noSignal, nil
			}
			return Exec(ctx, pendingBody)
		}
	}
	return noSignal, nil
}

func execFlowControl(ctx *CallingContext, n *ast.FlowControlStatement) (Signal, error) {
	switch n.Kind {
	case ast.FlowBreak:
		return Signal{Kind: SigBreak, Depth: n.Depth}, nil
	case ast.FlowContinue:
		return Signal{Kind: SigContinue, Depth: n.Depth}, nil
	case ast.FlowReturn:
		if n.Value == nil {
			return Signal{Kind: SigReturn}, nil
		}
		v, err := Eval(ctx, n.Value)
		if err != nil {
			return noSignal, err
		}
		return Signal{Kind: SigReturn, Value: v, HasValue: true}, nil
	default:
		engine.Raise("execFlowControl: unhandled kind %v", n.Kind)
		return noSignal, nil
	}
}
