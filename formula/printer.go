package formula

import (
	"strings"

	"forwardbackward/ast"
	"forwardbackward/engine"
	"forwardbackward/value"
)

// Render turns a parsed formula expression back into its source text as
// seen from (col, row) — relative references re-anchor against the given
// cell, so the same expression renders differently from different cells.
// Parenthesization matches the grammar's precedence levels: a child is
// wrapped only when its level is lower than its context requires.
func Render(e ast.Expr, col, row int) string {
	return renderAt(e, col, row, 0)
}

// wrapInParens wraps when the child's level is too low for its context.
// A negative context level demands strictly-higher precedence — the
// right side of `-` wraps even an equal-level child, so `a-(b-c)`
// survives a round trip.
func wrapInParens(text string, contextLevel, myLevel int) string {
	if contextLevel < 0 {
		if -contextLevel >= myLevel {
			return "(" + text + ")"
		}
	} else if contextLevel > myLevel {
		return "(" + text + ")"
	}
	return text
}

func renderAt(e ast.Expr, col, row, level int) string {
	switch n := e.(type) {
	case *ast.Constant:
		return renderConstant(n, col, row)
	case *ast.Binary:
		return renderBinary(n, col, row, level)
	case *ast.Unary:
		if n.Op != ast.Negate {
			engine.Raise("Render: unhandled unary op %v", n.Op)
		}
		return "-" + renderAt(n.Operand, col, row, 4)
	case *ast.MakeRange:
		return wrapInParens(renderAt(n.Left, col, row, 5)+":"+renderAt(n.Right, col, row, 5), level, 5)
	case *ast.Name:
		return "_" + n.Identifier
	case *ast.MoveReference:
		return renderAt(n.Inner, col, row, 5) + "!" + n.Sheet
	case *ast.FunctionCall:
		return renderFunctionCall(n, col, row)
	default:
		engine.Raise("Render: unhandled formula node %T", e)
		return ""
	}
}

// binary op text and precedence level; the right-side level is negative
// where the operator is non-associative on its right (subtraction and
// division).
func renderBinary(n *ast.Binary, col, row, level int) string {
	var op string
	var my, rhs int
	switch n.Op {
	case ast.Equals:
		op, my, rhs = "=", 1, 1
	case ast.NotEqual:
		op, my, rhs = "<>", 1, 1
	case ast.Greater:
		op, my, rhs = ">", 1, 1
	case ast.Less:
		op, my, rhs = "<", 1, 1
	case ast.GEQ:
		op, my, rhs = ">=", 1, 1
	case ast.LEQ:
		op, my, rhs = "<=", 1, 1
	case ast.Plus:
		op, my, rhs = "+", 2, 2
	case ast.Minus:
		op, my, rhs = "-", 2, -2
	case ast.Cat:
		op, my, rhs = "&", 2, 2
	case ast.Multiply:
		op, my, rhs = "*", 3, 3
	case ast.Divide:
		op, my, rhs = "/", 3, -3
	default:
		engine.Raise("Render: unhandled binary op %v", n.Op)
	}
	return wrapInParens(renderAt(n.Left, col, row, my)+op+renderAt(n.Right, col, row, rhs), level, my)
}

func renderConstant(n *ast.Constant, col, row int) string {
	switch v := n.Value.(type) {
	case *value.Float:
		return v.N.String()
	case *value.String:
		return "\"" + strings.ReplaceAll(v.S, "\"", "\"\"") + "\""
	case *value.CellRef:
		text := v.Render(col, row)
		if v.Sheet != "" {
			text += "!" + v.Sheet
		}
		return text
	case *value.Function:
		return "@" + v.Code.FunctionName()
	case *value.Nil:
		return ""
	default:
		engine.Raise("Render: unhandled constant %T", n.Value)
		return ""
	}
}

func renderFunctionCall(n *ast.FunctionCall, col, row int) string {
	name := ""
	if tok := n.Callee.Tok(); tok != nil {
		name = tok.Text
	}
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(name)
	b.WriteString("(")
	for i, a := range n.Args {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(renderAt(a, col, row, 0))
	}
	b.WriteString(")")
	return b.String()
}

// RenderCell reproduces the text a cell would display while being
// edited: the raw input when the parse hasn't been committed, otherwise
// the committed expression rendered from the cell's own coordinates.
func (c *Controller) RenderCell(col, row int) string {
	cell := c.Backend.GetCellAt(col, row, "")
	if cell == nil {
		return ""
	}
	defer c.Backend.ReturnCell(cell)
	if cell.CurrentInput != "" || cell.Value == nil {
		return cell.CurrentInput
	}
	return Render(cell.Value, col, row)
}
