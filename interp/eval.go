package interp

import (
	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/symtab"
	"forwardbackward/token"
	"forwardbackward/value"
)

// Eval evaluates one expression node (spec §4.4). Every branch threads
// ctx.NumEnv through value-model operations and tags errors with the
// node's token so the debugger and formula diagnostics can report a
// location.
func Eval(ctx *CallingContext, e ast.Expr) (v value.Value, err error) {
	defer func() { maybeEnterDebugger(ctx, err) }()
	switch n := e.(type) {
	case *ast.Constant:
		return evalConstant(ctx, n)
	case *ast.Variable:
		return readHandle(ctx, n.Handle)
	case *ast.Binary:
		return evalBinary(ctx, n)
	case *ast.Unary:
		return evalUnary(ctx, n)
	case *ast.Ternary:
		return evalTernary(ctx, n)
	case *ast.DerefVar:
		return evalDerefVar(ctx, n)
	case *ast.FunctionCall:
		return evalFunctionCall(ctx, n)
	case *ast.BuildFunction:
		return evalBuildFunction(ctx, n)
	case *ast.MakeRange:
		return evalMakeRange(ctx, n)
	case *ast.Name:
		if v, ok := ctx.Names[n.Identifier]; ok {
			return v, nil
		}
		return value.NilValue, nil
	case *ast.MoveReference:
		return evalMoveReference(ctx, n)
	case *ast.ArrayLit:
		return evalArrayLit(ctx, n)
	case *ast.DictLit:
		return evalDictLit(ctx, n)
	default:
		engine.Raise("Eval: unhandled expression node %T", e)
		return nil, nil
	}
}

// maybeEnterDebugger implements spec §4.8's automatic entry: "caught by
// the interpreter's outer evaluation loop ... invokes the debugger hook
// ... re-raises". Since errors here propagate as plain Go return values
// rather than exceptions, the frame chain is still fully live the first
// time a TypedOperationException is observed (before any PopFrame defer
// unwinds it); lastDebugged dedupes so nested Eval/Exec callers on the
// way back out don't re-enter for the same exception instance.
func maybeEnterDebugger(ctx *CallingContext, err error) {
	if err == nil || ctx.Debugger == nil {
		return
	}
	te, ok := err.(*engine.TypedOperationException)
	if !ok || ctx.lastDebugged == err {
		return
	}
	ctx.lastDebugged = err
	ctx.Debugger.Enter(engine.DescribeError(te, ctx.SourceName), ctx)
}

func evalConstant(ctx *CallingContext, n *ast.Constant) (value.Value, error) {
	if ref, ok := n.Value.(*value.CellRef); ok {
		return resolveRef(ctx, ref)
	}
	v, ok := n.Value.(value.Value)
	if !ok {
		engine.Raise("Constant: value %T is not a value.Value", n.Value)
	}
	return v, nil
}

func resolveRef(ctx *CallingContext, ref *value.CellRef) (value.Value, error) {
	if ctx.CellResolver == nil {
		engine.Raise("cell reference %s with no CellResolver installed", ref.Inspect())
	}
	return ctx.CellResolver.ResolveRef(ctx, ref)
}

// readHandle dereferences a resolved symtab.GetterSetter (spec §4.5).
// Reading a declared-but-never-assigned slot is a runtime error with the
// fixed message the debugger also reports for such slots.
func readHandle(ctx *CallingContext, gs *symtab.GetterSetter) (value.Value, error) {
	var v value.Value
	switch gs.Kind {
	case symtab.Global:
		if gs.Index < len(ctx.Globals) {
			v = ctx.Globals[gs.Index]
		}
	case symtab.ScopeSlot:
		vals := ctx.scopeValues(gs.ScopeObj)
		if vals != nil && gs.Index < len(vals) {
			v = vals[gs.Index]
		}
	case symtab.Arg:
		v = ctx.Frame.Args[gs.Index]
	case symtab.Local:
		if gs.Index < len(ctx.Frame.Locals) {
			v = ctx.Frame.Locals[gs.Index]
		}
	case symtab.Capture:
		v = ctx.Frame.Captures[gs.Index]
	default:
		engine.Raise("readHandle: unhandled slot kind %v", gs.Kind)
	}
	if v == nil {
		return nil, engine.NewTypedError(nil, "Read of value before set.")
	}
	return v, nil
}

// writeHandle stores into a resolved slot, growing Locals on first write
// to a fresh Local index.
func writeHandle(ctx *CallingContext, gs *symtab.GetterSetter, v value.Value) {
	switch gs.Kind {
	case symtab.Global:
		ctx.EnsureGlobals()
		ctx.Globals[gs.Index] = v
	case symtab.ScopeSlot:
		vals := ctx.scopeValues(gs.ScopeObj)
		vals[gs.Index] = v
	case symtab.Arg:
		ctx.Frame.Args[gs.Index] = v
	case symtab.Local:
		if gs.Index >= len(ctx.Frame.Locals) {
			grown := make([]value.Value, gs.Index+1)
			copy(grown, ctx.Frame.Locals)
			ctx.Frame.Locals = grown
		}
		ctx.Frame.Locals[gs.Index] = v
	case symtab.Capture:
		ctx.Frame.Captures[gs.Index] = v
	default:
		engine.Raise("writeHandle: unhandled slot kind %v", gs.Kind)
	}
}

// truthy implements spec §4.4's ShortAnd/ShortOr/Ternary truth test: any
// non-Nil Float is true iff it's nonzero; anything else is a type error.
func truthy(v value.Value, node ast.Node) (bool, error) {
	f, ok := v.(*value.Float)
	if !ok {
		return false, engine.NewTypedError(node.Tok(), "Error testing truth of %s", v.Type())
	}
	return !f.N.IsZero(), nil
}

func boolFloat(ctx *CallingContext, b bool) value.Value {
	if b {
		return &value.Float{N: ctx.NumEnv.FromInt64(1)}
	}
	return &value.Float{N: ctx.NumEnv.FromInt64(0)}
}

func evalBinary(ctx *CallingContext, n *ast.Binary) (value.Value, error) {
	if n.Op == ast.ShortAnd || n.Op == ast.ShortOr {
		lhs, err := Eval(ctx, n.Left)
		if err != nil {
			return nil, err
		}
		lb, err := truthy(lhs, n.Left)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.ShortAnd && !lb {
			return boolFloat(ctx, false), nil
		}
		if n.Op == ast.ShortOr && lb {
			return boolFloat(ctx, true), nil
		}
		rhs, err := Eval(ctx, n.Right)
		if err != nil {
			return nil, err
		}
		rb, err := truthy(rhs, n.Right)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, rb), nil
	}

	lhs, err := Eval(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := Eval(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	tok := n.Tok()
	switch n.Op {
	case ast.Plus:
		return value.Add(ctx.NumEnv, lhs, rhs, tok)
	case ast.Minus:
		return value.Sub(ctx.NumEnv, lhs, rhs, tok)
	case ast.Multiply:
		return value.Mul(ctx.NumEnv, lhs, rhs, tok)
	case ast.Divide:
		return value.Div(ctx.NumEnv, lhs, rhs, tok)
	case ast.Cat:
		return value.Cat(ctx.NumEnv, lhs, rhs, tok)
	case ast.Equals:
		eq, err := value.EqualOp(ctx.NumEnv, lhs, rhs, tok)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, eq), nil
	case ast.NotEqual:
		eq, err := value.EqualOp(ctx.NumEnv, lhs, rhs, tok)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, !eq), nil
	case ast.Greater:
		c, err := value.CompareOp(ctx.NumEnv, lhs, rhs, tok)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, c > 0), nil
	case ast.Less:
		c, err := value.CompareOp(ctx.NumEnv, lhs, rhs, tok)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, c < 0), nil
	case ast.GEQ:
		c, err := value.CompareOp(ctx.NumEnv, lhs, rhs, tok)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, c >= 0), nil
	case ast.LEQ:
		c, err := value.CompareOp(ctx.NumEnv, lhs, rhs, tok)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, c <= 0), nil
	case ast.MakeRangeOp:
		return makeRangeFromValues(ctx, lhs, rhs, tok)
	default:
		engine.Raise("evalBinary: unhandled op %v", n.Op)
		return nil, nil
	}
}

func evalUnary(ctx *CallingContext, n *ast.Unary) (value.Value, error) {
	v, err := Eval(ctx, n.Operand)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.Negate:
		return value.Negate(ctx.NumEnv, v, n.Tok())
	case ast.Not:
		b, err := truthy(v, n.Operand)
		if err != nil {
			return nil, err
		}
		return boolFloat(ctx, !b), nil
	default:
		engine.Raise("evalUnary: unhandled op %v", n.Op)
		return nil, nil
	}
}

func evalTernary(ctx *CallingContext, n *ast.Ternary) (value.Value, error) {
	c, err := Eval(ctx, n.Cond)
	if err != nil {
		return nil, err
	}
	b, err := truthy(c, n.Cond)
	if err != nil {
		return nil, err
	}
	if b {
		return Eval(ctx, n.Then)
	}
	return Eval(ctx, n.Else)
}

func evalDerefVar(ctx *CallingContext, n *ast.DerefVar) (value.Value, error) {
	c, err := Eval(ctx, n.Container)
	if err != nil {
		return nil, err
	}
	idx, err := Eval(ctx, n.Index)
	if err != nil {
		return nil, err
	}
	tok := n.Tok()
	switch cv := c.(type) {
	case *value.Array:
		i, err := indexInt(idx, tok, len(cv.Elements))
		if err != nil {
			return nil, err
		}
		return cv.Elements[i], nil
	case *value.Dictionary:
		v, ok := cv.Get(idx)
		if !ok {
			return nil, engine.NewTypedError(tok, "Error: key %s not found in dictionary", idx.Inspect())
		}
		return v, nil
	case *value.CellRange:
		elems, err := ctx.CellResolver.ExpandRange(ctx, cv)
		if err != nil {
			return nil, err
		}
		i, err := indexInt(idx, tok, len(elems))
		if err != nil {
			return nil, err
		}
		return elems[i], nil
	default:
		return nil, engine.NewTypedError(tok, "Error indexing %s", c.Type())
	}
}

func indexInt(idx value.Value, tok *token.Token, n int) (int, error) {
	f, ok := idx.(*value.Float)
	if !ok {
		return 0, engine.NewTypedError(tok, "Error: array index must be a Float, got %s", idx.Type())
	}
	i := int(f.N.AsFloat64())
	if i < 0 || i >= n {
		return 0, engine.NewTypedError(tok, "Error: index %d out of bounds (0..%d)", i, n-1)
	}
	return i, nil
}

func evalFunctionCall(ctx *CallingContext, n *ast.FunctionCall) (value.Value, error) {
	callee, err := Eval(ctx, n.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*value.Function)
	if !ok {
		return nil, engine.NewFatal(n.Tok(), "Error: cannot call a %s", callee.Type())
	}
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(ctx, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return CallFunction(ctx, fn, args, n.Tok())
}

func evalBuildFunction(ctx *CallingContext, n *ast.BuildFunction) (value.Value, error) {
	caps := make([]value.Value, len(n.Captures))
	for i, c := range n.Captures {
		v, err := Eval(ctx, c)
		if err != nil {
			return nil, err
		}
		caps[i] = v
	}
	return &value.Function{Code: n.Def, Captures: caps}, nil
}

// rawCellRefOrRange evaluates an expression that must statically denote a
// CellRef or CellRange without resolving it against the backing sheet —
// used by MakeRange and MoveReference, which operate on the reference
// itself rather than its cell's current value (spec §4.4).
func rawCellRefOrRange(ctx *CallingContext, e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.Constant:
		if ref, ok := n.Value.(*value.CellRef); ok {
			return ref, nil
		}
		return nil, engine.NewFatal(n.Tok(), "Error: expected a cell reference")
	case *ast.MakeRange:
		return evalMakeRange(ctx, n)
	case *ast.MoveReference:
		return rawMoveReference(ctx, n)
	default:
		return nil, engine.NewFatal(e.Tok(), "Error: expected a cell reference")
	}
}

func evalMakeRange(ctx *CallingContext, n *ast.MakeRange) (value.Value, error) {
	l, err := rawCellRefOrRange(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	r, err := rawCellRefOrRange(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	return makeRangeFromValues(ctx, l, r, n.Tok())
}

// makeRangeFromValues resolves both endpoints to absolute coordinates in
// the current cell's frame of reference and normalizes so col1<=col2 and
// row1<=row2 (spec §4.4 MakeRange).
func makeRangeFromValues(ctx *CallingContext, l, r value.Value, tok *token.Token) (value.Value, error) {
	lr, lok := l.(*value.CellRef)
	rr, rok := r.(*value.CellRef)
	if !lok || !rok {
		return nil, engine.NewFatal(tok, "Error: range operands must be cell references")
	}
	if lr.Sheet != rr.Sheet {
		return nil, engine.NewFatal(tok, "Error: range operands must be on the same sheet")
	}
	curCol, curRow := 0, 0
	if ctx.CurrentCellFrame != nil {
		curCol, curRow = ctx.CurrentCellFrame.Col, ctx.CurrentCellFrame.Row
	}
	c1, r1 := lr.Resolve(curCol, curRow)
	c2, r2 := rr.Resolve(curCol, curRow)
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return &value.CellRange{Col1: c1, Row1: r1, Col2: c2, Row2: r2, Sheet: lr.Sheet}, nil
}

func rawMoveReference(ctx *CallingContext, n *ast.MoveReference) (value.Value, error) {
	inner, err := rawCellRefOrRange(ctx, n.Inner)
	if err != nil {
		return nil, err
	}
	switch v := inner.(type) {
	case *value.CellRef:
		return &value.CellRef{ColAbsolute: v.ColAbsolute, Col: v.Col, RowAbsolute: v.RowAbsolute, Row: v.Row, Sheet: n.Sheet}, nil
	case *value.CellRange:
		return &value.CellRange{Col1: v.Col1, Row1: v.Row1, Col2: v.Col2, Row2: v.Row2, Sheet: n.Sheet}, nil
	default:
		engine.Raise("rawMoveReference: unexpected %T", inner)
		return nil, nil
	}
}

func evalMoveReference(ctx *CallingContext, n *ast.MoveReference) (value.Value, error) {
	raw, err := rawMoveReference(ctx, n)
	if err != nil {
		return nil, err
	}
	if ref, ok := raw.(*value.CellRef); ok {
		return resolveRef(ctx, ref)
	}
	return raw, nil
}

func evalArrayLit(ctx *CallingContext, n *ast.ArrayLit) (value.Value, error) {
	out := make([]value.Value, len(n.Elements))
	for i, e := range n.Elements {
		v, err := Eval(ctx, e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return &value.Array{Elements: out}, nil
}

func evalDictLit(ctx *CallingContext, n *ast.DictLit) (value.Value, error) {
	d := value.NewDictionary()
	for i := range n.Keys {
		k, err := Eval(ctx, n.Keys[i])
		if err != nil {
			return nil, err
		}
		v, err := Eval(ctx, n.Values[i])
		if err != nil {
			return nil, err
		}
		d = d.Insert(k, v)
	}
	return d, nil
}
