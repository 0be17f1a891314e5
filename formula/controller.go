// Package formula is the Forward-dialect evaluator layered over the
// shared interpreter (spec §2 item 10): cell-reference resolution
// (final_const, §4.10), single-cell computation (§4.11), the whole-sheet
// recalculation loop (§4.12), and range expansion (§4.13). Grounded on
// original_source/Forwards/src/Parser/SpreadSheet.cpp and
// Engine/CellRefEval.cpp/CellRangeExpand.cpp, restructured the way the
// teacher's spreadsheet package wraps its interpreter.
package formula

import (
	"strings"

	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/interp"
	"forwardbackward/parser"
	"forwardbackward/sheet"
	"forwardbackward/stdlib"
	"forwardbackward/token"
	"forwardbackward/value"
)

// Controller holds the active spreadsheet backend, the four
// evaluation-order flags, and the built-in-name map formula function
// calls resolve against (spec §3 "Spreadsheet"/"CallingContext").
type Controller struct {
	Backend sheet.Backend

	ColumnMajor bool
	TopDown     bool
	LeftRight   bool

	Builtins map[string]value.Value
}

// NewController wires a backend with the default column-major,
// top-down, left-right order and the full built-in roster (the shared
// standard library plus the formula aggregates).
func NewController(b sheet.Backend) *Controller {
	c := &Controller{
		Backend:     b,
		ColumnMajor: true,
		TopDown:     true,
		LeftRight:   true,
		Builtins:    make(map[string]value.Value),
	}
	stdlib.Register(c.Builtins)
	RegisterAggregates(c.Builtins)
	return c
}

// Attach installs the controller as the context's cell resolver so
// CellRef constants evaluate through final_const.
func (c *Controller) Attach(ctx *interp.CallingContext) {
	ctx.CellResolver = c
}

// SetCell stores raw input at (col, row), creating the cell if needed.
func (c *Controller) SetCell(col, row int, typ sheet.CellType, input string) {
	c.Backend.InitCellAt(col, row)
	cell := c.Backend.GetCellAt(col, row, "")
	cell.Type = typ
	cell.CurrentInput = input
	cell.Value = nil
	c.Backend.ReturnCell(cell)
}

// ComputeCellForUser computes one cell on behalf of a user action,
// returning the computed value and a diagnostic string (empty on
// success). Errors are stringified, never propagated (spec §4.11 step 7,
// user-driven path); only the first line of a multi-line message is
// kept.
func (c *Controller) ComputeCellForUser(ctx *interp.CallingContext, col, row int) (value.Value, string) {
	out, diag, err := c.computeCell(ctx, col, row)
	if err != nil {
		diag = engine.AtLocation(err)
	}
	if i := strings.IndexByte(diag, '\n'); i >= 0 {
		diag = diag[:i]
	}
	return out, diag
}

// ComputeCell computes one cell for the recalculation path: evaluation
// errors propagate to the caller when rethrow is set, otherwise they are
// swallowed after the cell's post-conditions are applied (spec §4.11
// step 7).
func (c *Controller) ComputeCell(ctx *interp.CallingContext, col, row int, rethrow bool) (value.Value, error) {
	out, _, err := c.computeCell(ctx, col, row)
	if err != nil && rethrow {
		return out, err
	}
	return out, nil
}

// computeCell is spec §4.11. The returned diagnostic is the first parser
// message, if the cell's input had to be parsed and failed.
func (c *Controller) computeCell(ctx *interp.CallingContext, col, row int) (value.Value, string, error) {
	cell := c.Backend.GetCellAt(col, row, "")
	if cell == nil {
		return nil, "", nil
	}
	defer c.Backend.ReturnCell(cell)

	// Already evaluated this generation: serve the memoized value.
	if ctx.Generation == cell.PreviousGeneration && cell.Value != nil {
		return cell.PreviousValue, "", nil
	}

	expr := cell.Value
	var diag string
	if expr == nil {
		switch cell.Type {
		case sheet.Label:
			tok := &token.Token{Type: token.STRING, Text: cell.CurrentInput, Source: "cell", Line: 1, Column: 1}
			expr = ast.NewConstant(tok, &value.String{S: cell.CurrentInput})
		case sheet.Value:
			p := parser.NewFormulaParser("cell", cell.CurrentInput, c.Builtins, col, row)
			parsed, err := p.Parse()
			if err != nil {
				diag = err.Error()
			} else {
				expr = parsed
			}
		}
	}
	if expr == nil {
		return nil, diag, nil
	}

	// Outside user-input mode the parse is committed: the raw text is
	// consumed and the expression becomes the cell's value (spec §4.11
	// step 5).
	if !ctx.InUserInput {
		cell.CurrentInput = ""
		cell.Value = expr
	}

	savedFrame := ctx.CurrentCellFrame
	ctx.CurrentCellFrame = &interp.CellFrame{Col: col, Row: row}
	cell.InEvaluation = true
	cell.Recursed = false
	out, err := interp.Eval(ctx, expr)
	cell.InEvaluation = false
	cell.PreviousGeneration = ctx.Generation
	cell.PreviousValue = out
	ctx.CurrentCellFrame = savedFrame

	c.Backend.StashResult(cell, ctx.Generation)
	return out, diag, err
}

// ResolveRef is final_const (spec §4.10): combine absolute/relative
// components against the current cell frame, then either recurse into
// the target cell's computation or — when the target is mid-evaluation
// or on a foreign sheet — break the cycle by serving its previous value
// and marking it recursed.
func (c *Controller) ResolveRef(ctx *interp.CallingContext, ref *value.CellRef) (value.Value, error) {
	curCol, curRow := 0, 0
	if ctx.CurrentCellFrame != nil {
		curCol, curRow = ctx.CurrentCellFrame.Col, ctx.CurrentCellFrame.Row
	}
	col, row := ref.Resolve(curCol, curRow)
	if col < 0 || row < 0 {
		return value.NilValue, nil
	}

	cell := c.Backend.GetCellAt(col, row, ref.Sheet)
	if cell == nil {
		return value.NilValue, nil
	}
	if cell.InEvaluation || ref.Sheet != "" {
		result := cell.PreviousValue
		cell.Recursed = true
		c.Backend.ReturnCell(cell)
		if result == nil {
			return value.NilValue, nil
		}
		return result, nil
	}
	c.Backend.ReturnCell(cell)

	out, err := c.ComputeCell(ctx, col, row, true)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return value.NilValue, nil
	}
	return out, nil
}

// ExpandRange implements the iteration policy of spec §4.13: a 1x1 range
// yields one CellRef; a single row or column yields CellRefs in reading
// order; a 2-D range yields one sub-range per column. All yielded
// references are absolute, so they resolve identically from any frame.
func (c *Controller) ExpandRange(ctx *interp.CallingContext, r *value.CellRange) ([]value.Value, error) {
	var out []value.Value
	absRef := func(col, row int) value.Value {
		return &value.CellRef{ColAbsolute: true, Col: col, RowAbsolute: true, Row: row, Sheet: r.Sheet}
	}
	switch {
	case r.Col1 == r.Col2 && r.Row1 == r.Row2:
		out = append(out, absRef(r.Col1, r.Row1))
	case r.Col1 == r.Col2:
		for row := r.Row1; row <= r.Row2; row++ {
			out = append(out, absRef(r.Col1, row))
		}
	case r.Row1 == r.Row2:
		for col := r.Col1; col <= r.Col2; col++ {
			out = append(out, absRef(col, r.Row1))
		}
	default:
		for col := r.Col1; col <= r.Col2; col++ {
			out = append(out, &value.CellRange{Col1: col, Row1: r.Row1, Col2: col, Row2: r.Row2, Sheet: r.Sheet})
		}
	}
	return out, nil
}

// Recalc is spec §4.12: leave user-input mode, bump the generation,
// clear the name table, visit every populated cell in the order the four
// flags select, and bump the generation again so the next user action
// starts fresh. Per-cell errors are swallowed (they live on as cell
// diagnostics, not recalc failures).
func (c *Controller) Recalc(ctx *interp.CallingContext) {
	ctx.InUserInput = false
	ctx.Generation++
	for k := range ctx.Names {
		delete(ctx.Names, k)
	}

	if c.ColumnMajor {
		cols := c.columnOrder()
		for _, col := range cols {
			rows := orderedIndices(c.Backend.MaxRowForColumn(col), c.TopDown)
			for _, row := range rows {
				c.ComputeCell(ctx, col, row, false)
			}
		}
	} else {
		rows := orderedIndices(c.Backend.MaxRow(), c.TopDown)
		for _, row := range rows {
			cols := c.columnOrder()
			for _, col := range cols {
				c.ComputeCell(ctx, col, row, false)
			}
		}
	}

	ctx.Generation++
}

func (c *Controller) columnOrder() []int {
	return orderedIndices(c.Backend.MaxColumn(), c.LeftRight)
}

// orderedIndices is 0..n-1 ascending when forward, descending otherwise.
func orderedIndices(n int, forward bool) []int {
	out := make([]int, 0, n)
	if forward {
		for i := 0; i < n; i++ {
			out = append(out, i)
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			out = append(out, i)
		}
	}
	return out
}
